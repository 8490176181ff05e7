package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ainews/internal/config"
)

const blogPageFixture = `<!DOCTYPE html>
<html><body>
  <nav><a href="/about">About</a></nav>
  <article><h2><a href="/2026/08/gpt-agents">Building agents that plan ahead</a></h2></article>
  <h3><a href="https://research.example.com/scaling">Scaling laws revisited</a></h3>
  <h2><a href="/2026/08/gpt-agents">Building agents that plan ahead</a></h2>
  <h4><a href="/x">hi</a></h4>
  <h2><a href="ftp://nope/file">Interesting but wrong scheme post</a></h2>
</body></html>`

func TestWebsiteScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blogPageFixture))
	}))
	defer server.Close()

	w := NewWebsiteCrawler(config.WebsiteSource{
		Blogs: []config.Blog{{Name: "Acme Blog", URL: server.URL}},
	})
	w.client = NewClient(0)
	defer w.Close()

	articles, err := w.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Duplicate link, too-short title and non-http scheme are dropped.
	if len(articles) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(articles))
	}

	first := articles[0]
	if !strings.HasPrefix(first.URL, server.URL+"/2026/08/") {
		t.Errorf("relative URL not resolved: %q", first.URL)
	}
	if !strings.HasPrefix(first.Title, "[Acme Blog] ") {
		t.Errorf("title = %q", first.Title)
	}
	if first.SourceID == nil || !strings.HasPrefix(*first.SourceID, "blog-") || len(*first.SourceID) != len("blog-")+16 {
		t.Errorf("source_id = %v", first.SourceID)
	}

	if articles[1].URL != "https://research.example.com/scaling" {
		t.Errorf("absolute URL mangled: %q", articles[1].URL)
	}
}

func TestWebsiteScrapeCap(t *testing.T) {
	var page strings.Builder
	page.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		page.WriteString(`<h2><a href="/post-` + string(rune('a'+i)) + `-longer">A reasonably long headline</a></h2>`)
	}
	page.WriteString("</body></html>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page.String()))
	}))
	defer server.Close()

	w := NewWebsiteCrawler(config.WebsiteSource{
		Blogs: []config.Blog{{Name: "Busy Blog", URL: server.URL}},
	})
	w.client = NewClient(0)
	defer w.Close()

	articles, err := w.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != maxPostsPerBlog {
		t.Errorf("expected cap of %d, got %d", maxPostsPerBlog, len(articles))
	}
}

const blogRSSFixture = `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Acme Engineering</title>
  <item>
    <title>Faster tokenizers</title>
    <link>https://blog.example.com/tokenizers</link>
    <description>&lt;p&gt;We rewrote the &lt;b&gt;tokenizer&lt;/b&gt;.&lt;/p&gt;</description>
    <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
  </item>
</channel></rss>`

func TestWebsiteRSS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blogRSSFixture))
	}))
	defer server.Close()

	w := NewWebsiteCrawler(config.WebsiteSource{
		Blogs: []config.Blog{{Name: "Acme", URL: "https://blog.example.com", RSS: server.URL}},
	})
	w.client = NewClient(0)
	defer w.Close()

	articles, err := w.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 post, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "[Acme] Faster tokenizers" {
		t.Errorf("title = %q", a.Title)
	}
	if a.Content == nil || strings.Contains(*a.Content, "<") {
		t.Errorf("HTML not stripped: %v", a.Content)
	}
	if a.PublishedAt == nil {
		t.Error("published_at missing")
	}
	if *a.SourceID != "blog-"+hashID("https://blog.example.com/tokenizers") {
		t.Errorf("source_id = %q", *a.SourceID)
	}
}

func TestWebsiteOneBlogFailureDoesNotBlockOthers(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blogRSSFixture))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	w := NewWebsiteCrawler(config.WebsiteSource{
		Blogs: []config.Blog{
			{Name: "Broken", URL: "https://x.example.com", RSS: bad.URL},
			{Name: "Acme", URL: "https://blog.example.com", RSS: good.URL},
		},
	})
	w.client = NewClient(0)
	defer w.Close()

	articles, err := w.Fetch(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected the healthy blog's post, got %d", len(articles))
	}
}
