package sources

import (
	"context"
	"log"
	"strings"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
)

// TwitterCrawler fetches tweets from configured accounts through an
// RSSHub bridge instance.
type TwitterCrawler struct {
	cfg config.TwitterSource

	client *Client
	now    func() time.Time
}

// NewTwitterCrawler creates a Twitter adapter.
func NewTwitterCrawler(cfg config.TwitterSource) *TwitterCrawler {
	return &TwitterCrawler{
		cfg:    cfg,
		client: NewClient(2 * time.Second),
		now:    time.Now,
	}
}

func (t *TwitterCrawler) Name() string { return "twitter" }
func (t *TwitterCrawler) Close()       { t.client.Close() }

func (t *TwitterCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	base := strings.TrimRight(t.cfg.RSSHubBase, "/")

	var articles []database.Article
	var firstErr error

	for _, account := range t.cfg.Accounts {
		feed, err := fetchFeed(ctx, t.client, base+"/twitter/user/"+account)
		if err != nil {
			log.Printf("[twitter] @%s: %v", account, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		items := feed.Items
		if len(items) > 10 {
			items = items[:10]
		}

		for _, item := range items {
			if item.Link == "" {
				continue
			}

			articles = append(articles, database.Article{
				Source:      "twitter",
				SourceID:    strPtr("tweet-" + account + "-" + tweetID(item.Link)),
				Title:       "[Twitter @" + account + "] " + truncate(item.Title, 200),
				URL:         item.Link,
				Content:     strPtr(truncate(stripHTML(item.Description), 1000)),
				Category:    strPtr("tweet"),
				Author:      strPtr(account),
				Tags:        strPtr("twitter"),
				PublishedAt: itemTime(item),
				FetchedAt:   t.now(),
			})
		}
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}

// tweetID extracts the numeric status ID from a tweet permalink, or
// hashes the link when the path has no usable tail.
func tweetID(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		tail := trimmed[i+1:]
		if tail != "" && isDigits(tail) {
			return tail
		}
	}
	return hashID(link)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
