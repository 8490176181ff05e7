package sources

import (
	"context"
	"log"
	"time"

	"ainews/internal/database"
)

// leaderboards are the tracked benchmark sites. Each reachable site
// produces one snapshot record per day; the date in the source_id makes
// the second run of a day a dedup no-op.
var leaderboards = []struct {
	idPrefix string
	name     string
	checkURL string
	url      string
	content  string
	tags     string
}{
	{
		idPrefix: "lmsys-arena",
		name:     "LMSYS Chatbot Arena",
		checkURL: "https://huggingface.co/api/spaces/lmsys/chatbot-arena-leaderboard",
		url:      "https://huggingface.co/spaces/lmsys/chatbot-arena-leaderboard",
		content:  "LMSYS Chatbot Arena leaderboard snapshot. Visit the link for the latest rankings.",
		tags:     "lmsys,arena,leaderboard",
	},
	{
		idPrefix: "open-llm-lb",
		name:     "Open LLM Leaderboard",
		checkURL: "https://huggingface.co/api/spaces/open-llm-leaderboard/open_llm_leaderboard",
		url:      "https://huggingface.co/spaces/open-llm-leaderboard/open_llm_leaderboard",
		content:  "Open LLM Leaderboard snapshot. Visit the link for the latest benchmark results.",
		tags:     "open-llm,leaderboard,benchmark",
	},
	{
		idPrefix: "livebench",
		name:     "LiveBench",
		checkURL: "https://livebench.ai/",
		url:      "https://livebench.ai/",
		content:  "LiveBench leaderboard snapshot. Visit the link for the latest results.",
		tags:     "livebench,leaderboard,benchmark",
	},
}

// LeaderboardCrawler records daily snapshot pointers for the tracked
// model leaderboards.
type LeaderboardCrawler struct {
	client *Client
	now    func() time.Time
}

// NewLeaderboardCrawler creates a leaderboard adapter.
func NewLeaderboardCrawler() *LeaderboardCrawler {
	return &LeaderboardCrawler{
		client: NewClient(time.Second),
		now:    time.Now,
	}
}

func (l *LeaderboardCrawler) Name() string { return "leaderboard" }
func (l *LeaderboardCrawler) Close()       { l.client.Close() }

func (l *LeaderboardCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	day := l.now().UTC().Format("20060102")

	var articles []database.Article
	for _, lb := range leaderboards {
		// A snapshot is only recorded when the site answers.
		if _, err := l.client.Get(ctx, lb.checkURL, nil, nil); err != nil {
			log.Printf("[leaderboard] %s unreachable: %v", lb.name, err)
			continue
		}

		articles = append(articles, database.Article{
			Source:    "leaderboard",
			SourceID:  strPtr(lb.idPrefix + "-" + day),
			Title:     "[Leaderboard] " + lb.name + " - Daily Snapshot",
			URL:       lb.url,
			Content:   strPtr(lb.content),
			Category:  strPtr("leaderboard"),
			Tags:      strPtr(lb.tags),
			FetchedAt: l.now(),
		})
	}

	return articles, nil
}
