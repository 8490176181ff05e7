package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ainews/internal/config"
)

const redditFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>r/LocalLLaMA</title>
  <entry>
    <id>t3_1abcd2</id>
    <title>Quantized 70B running on one GPU</title>
    <link href="https://www.reddit.com/r/LocalLLaMA/comments/1abcd2/quantized/"/>
    <author><name>/u/llamafan</name></author>
    <content type="html">&lt;div&gt;Finally got it working.&lt;/div&gt;</content>
    <updated>2026-08-26T12:00:00+00:00</updated>
  </entry>
</feed>`

func TestRedditFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/LocalLLaMA/.rss" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(redditFixture))
	}))
	defer server.Close()

	rc := NewRedditCrawler(config.RedditSource{
		Subreddits: []string{"LocalLLaMA"},
		PostLimit:  25,
	})
	rc.baseURL = server.URL
	rc.client = NewClient(0)
	defer rc.Close()

	articles, err := rc.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 post, got %d", len(articles))
	}

	a := articles[0]
	if *a.SourceID != "reddit-t3_1abcd2" {
		t.Errorf("source_id = %q", *a.SourceID)
	}
	if !strings.HasPrefix(a.Title, "[r/LocalLLaMA] ") {
		t.Errorf("title = %q", a.Title)
	}
	if *a.Author != "llamafan" {
		t.Errorf("author = %q", *a.Author)
	}
}
