package sources

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ainews/internal/config"
	"ainews/internal/database"
)

const maxPostsPerBlog = 10

// WebsiteCrawler monitors configured blogs, preferring RSS and falling
// back to scraping the landing page for article links.
type WebsiteCrawler struct {
	cfg    config.WebsiteSource
	client *Client
	now    func() time.Time
}

// NewWebsiteCrawler creates a blog adapter. The 2s spacing keeps us
// polite toward small blog servers.
func NewWebsiteCrawler(cfg config.WebsiteSource) *WebsiteCrawler {
	return &WebsiteCrawler{
		cfg:    cfg,
		client: NewClient(2 * time.Second),
		now:    time.Now,
	}
}

func (w *WebsiteCrawler) Name() string { return "websites" }
func (w *WebsiteCrawler) Close()       { w.client.Close() }

func (w *WebsiteCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	var articles []database.Article
	var firstErr error

	for _, blog := range w.cfg.Blogs {
		var posts []database.Article
		var err error
		if blog.RSS != "" {
			posts, err = w.fetchRSS(ctx, blog.Name, blog.RSS)
		} else {
			posts, err = w.scrapeHTML(ctx, blog.Name, blog.URL)
		}
		if err != nil {
			log.Printf("[websites] %s: %v", blog.Name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		articles = append(articles, posts...)
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}

func (w *WebsiteCrawler) fetchRSS(ctx context.Context, blogName, rssURL string) ([]database.Article, error) {
	feed, err := fetchFeed(ctx, w.client, rssURL)
	if err != nil {
		return nil, fmt.Errorf("rss fetch: %w", err)
	}

	items := feed.Items
	if len(items) > maxPostsPerBlog {
		items = items[:maxPostsPerBlog]
	}

	var articles []database.Article
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "Untitled"
		}

		articles = append(articles, database.Article{
			Source:      "websites",
			SourceID:    strPtr("blog-" + hashID(item.Link)),
			Title:       "[" + blogName + "] " + title,
			URL:         item.Link,
			Content:     strPtr(truncate(stripHTML(item.Description), 1000)),
			Category:    strPtr("blog"),
			Author:      strPtr(blogName),
			Tags:        strPtr("blog"),
			PublishedAt: itemTime(item),
			FetchedAt:   w.now(),
		})
	}
	return articles, nil
}

// scrapeHTML extracts article links from a blog landing page. The
// heuristic is an anchor inside an article, h2, h3 or h4 element.
func (w *WebsiteCrawler) scrapeHTML(ctx context.Context, blogName, pageURL string) ([]database.Article, error) {
	body, err := w.client.Get(ctx, pageURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("page fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("bad page url: %w", err)
	}

	seen := make(map[string]struct{})
	var articles []database.Article

	doc.Find("article, h2, h3, h4").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}

		abs := resolveURL(base, href)
		if abs == "" {
			return true
		}
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}

		title := truncate(strings.TrimSpace(link.Text()), 200)
		if len(title) < 5 {
			return true
		}

		articles = append(articles, database.Article{
			Source:    "websites",
			SourceID:  strPtr("blog-" + hashID(abs)),
			Title:     "[" + blogName + "] " + title,
			URL:       abs,
			Category:  strPtr("blog"),
			Author:    strPtr(blogName),
			Tags:      strPtr("blog"),
			FetchedAt: w.now(),
		})

		return len(articles) < maxPostsPerBlog
	})

	return articles, nil
}

// resolveURL makes href absolute against the page URL. Non-http schemes
// are dropped.
func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
	return ""
}
