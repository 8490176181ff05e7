package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
)

const hnAPIBase = "https://hacker-news.firebaseio.com/v0"

// HackerNewsCrawler fetches top stories from the official Firebase API.
type HackerNewsCrawler struct {
	cfg     config.HackerNewsSource
	client  *Client
	apiBase string
	now     func() time.Time
}

// NewHackerNewsCrawler creates a Hacker News adapter.
func NewHackerNewsCrawler(cfg config.HackerNewsSource) *HackerNewsCrawler {
	return &HackerNewsCrawler{
		cfg:     cfg,
		client:  NewClient(100 * time.Millisecond),
		apiBase: hnAPIBase,
		now:     time.Now,
	}
}

func (h *HackerNewsCrawler) Name() string { return "hackernews" }
func (h *HackerNewsCrawler) Close()       { h.client.Close() }

// Fetch lists top story IDs, then fetches each item. Items that are not
// external-link stories are skipped.
func (h *HackerNewsCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	var storyIDs []int64
	if err := h.client.GetJSON(ctx, h.apiBase+"/topstories.json", nil, nil, &storyIDs); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}

	limit := h.cfg.PostLimit
	if limit <= 0 {
		limit = 25
	}
	if len(storyIDs) > limit {
		storyIDs = storyIDs[:limit]
	}

	var articles []database.Article
	for _, id := range storyIDs {
		var story struct {
			Type        string `json:"type"`
			Title       string `json:"title"`
			URL         string `json:"url"`
			By          string `json:"by"`
			Score       int    `json:"score"`
			Descendants int    `json:"descendants"`
			Time        int64  `json:"time"`
		}
		if err := h.client.GetJSON(ctx, fmt.Sprintf("%s/item/%d.json", h.apiBase, id), nil, nil, &story); err != nil {
			log.Printf("[hackernews] story %d: %v", id, err)
			continue
		}

		// Only external-link stories; skip jobs, polls and Ask HN posts.
		if story.Type != "story" || story.URL == "" {
			continue
		}

		var publishedAt *time.Time
		if story.Time > 0 {
			t := time.Unix(story.Time, 0).UTC()
			publishedAt = &t
		}

		author := story.By
		if author == "" {
			author = "unknown"
		}

		extra, _ := json.Marshal(map[string]any{
			"score":       story.Score,
			"descendants": story.Descendants,
			"hn_id":       id,
		})

		articles = append(articles, database.Article{
			Source:   "hackernews",
			SourceID: strPtr(fmt.Sprintf("hn-%d", id)),
			Title:    truncate(story.Title, 200),
			URL:      story.URL,
			Content: strPtr(fmt.Sprintf("HN Score: %d | by %s | %d comments",
				story.Score, author, story.Descendants)),
			Category:    strPtr("discussion"),
			Author:      strPtr(author),
			Tags:        strPtr("hackernews"),
			Extra:       strPtr(string(extra)),
			PublishedAt: publishedAt,
			FetchedAt:   h.now(),
		})
	}

	return articles, nil
}
