package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ainews/internal/config"
)

func TestHackerNewsFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/topstories.json":
			w.Write([]byte(`[1, 2, 3, 4]`))
		case "/item/1.json":
			w.Write([]byte(`{"type": "story", "title": "New inference engine", "url": "https://example.com/engine",
				"by": "alice", "score": 320, "descendants": 140, "time": 1756300000}`))
		case "/item/2.json":
			w.Write([]byte(`{"type": "job", "title": "Hiring", "url": "https://example.com/job"}`))
		case "/item/3.json":
			// Ask HN, no external URL
			w.Write([]byte(`{"type": "story", "title": "Ask HN: thoughts?"}`))
		case "/item/4.json":
			w.Write([]byte(`{"type": "story", "title": "Model weights released", "url": "https://example.com/weights",
				"by": "bob", "score": 95, "descendants": 12, "time": 1756310000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	h := NewHackerNewsCrawler(config.HackerNewsSource{PostLimit: 10})
	h.apiBase = server.URL
	h.client = NewClient(0)
	defer h.Close()

	articles, err := h.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 link stories, got %d", len(articles))
	}
	if *articles[0].SourceID != "hn-1" || *articles[1].SourceID != "hn-4" {
		t.Errorf("source ids: %q, %q", *articles[0].SourceID, *articles[1].SourceID)
	}
	if articles[0].PublishedAt == nil {
		t.Error("published_at missing")
	}
	if got := *articles[0].Content; got != "HN Score: 320 | by alice | 140 comments" {
		t.Errorf("content = %q", got)
	}
}

func TestHackerNewsPostLimit(t *testing.T) {
	var itemRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			ids := "[1"
			for i := 2; i <= 50; i++ {
				ids += fmt.Sprintf(", %d", i)
			}
			w.Write([]byte(ids + "]"))
			return
		}
		itemRequests++
		w.Write([]byte(`{"type": "story", "title": "t", "url": "https://example.com/x"}`))
	}))
	defer server.Close()

	h := NewHackerNewsCrawler(config.HackerNewsSource{PostLimit: 5})
	h.apiBase = server.URL
	h.client = NewClient(0)
	defer h.Close()

	if _, err := h.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if itemRequests != 5 {
		t.Errorf("expected 5 item fetches, got %d", itemRequests)
	}
}

func TestHackerNewsTopStoriesFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	h := NewHackerNewsCrawler(config.HackerNewsSource{PostLimit: 5})
	h.apiBase = server.URL
	h.client = NewClient(0)
	defer h.Close()

	if _, err := h.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when the story list is unavailable")
	}
}
