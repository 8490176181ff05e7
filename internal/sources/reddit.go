package sources

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
)

// RedditCrawler fetches hot posts from configured subreddits via their
// public Atom feeds. No credentials required.
type RedditCrawler struct {
	cfg     config.RedditSource
	client  *Client
	baseURL string
	now     func() time.Time
}

// NewRedditCrawler creates a Reddit adapter.
func NewRedditCrawler(cfg config.RedditSource) *RedditCrawler {
	return &RedditCrawler{
		cfg:     cfg,
		client:  NewClient(2 * time.Second),
		baseURL: "https://www.reddit.com",
		now:     time.Now,
	}
}

func (r *RedditCrawler) Name() string { return "reddit" }
func (r *RedditCrawler) Close()       { r.client.Close() }

func (r *RedditCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	limit := r.cfg.PostLimit
	if limit <= 0 {
		limit = 25
	}

	var articles []database.Article
	var firstErr error

	for _, sub := range r.cfg.Subreddits {
		feed, err := fetchFeed(ctx, r.client, r.baseURL+"/r/"+sub+"/.rss")
		if err != nil {
			log.Printf("[reddit] r/%s: %v", sub, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		items := feed.Items
		if len(items) > limit {
			items = items[:limit]
		}

		for _, item := range items {
			if item.Link == "" || item.Title == "" {
				continue
			}

			// Atom entry IDs look like t3_<postid>; fall back to hashing
			// the permalink.
			redditID := item.GUID
			if redditID == "" {
				redditID = hashID(item.Link)
			}

			author := "unknown"
			if item.Author != nil && item.Author.Name != "" {
				author = strings.TrimPrefix(item.Author.Name, "/u/")
			}

			extra, _ := json.Marshal(map[string]any{"subreddit": sub})

			// Atom entries carry the post body in content, not summary.
			body := item.Content
			if body == "" {
				body = item.Description
			}

			articles = append(articles, database.Article{
				Source:      "reddit",
				SourceID:    strPtr("reddit-" + redditID),
				Title:       "[r/" + sub + "] " + item.Title,
				URL:         item.Link,
				Content:     strPtr(truncate(stripHTML(body), maxContentLen)),
				Category:    strPtr("discussion"),
				Author:      strPtr(author),
				Tags:        strPtr(sub),
				Extra:       strPtr(string(extra)),
				PublishedAt: itemTime(item),
				FetchedAt:   r.now(),
			})
		}
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}
