package crawl

import (
	"context"
	"log"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
	"ainews/internal/sources"
)

// interAdapterPause spaces out adapter runs so upstreams never see the
// whole crawl as one burst.
const interAdapterPause = 5 * time.Second

// Runner executes source adapters and records per-source status.
type Runner struct {
	db    *database.DB
	pause func(time.Duration)
}

// NewRunner creates a crawl runner.
func NewRunner(db *database.DB) *Runner {
	return &Runner{db: db, pause: time.Sleep}
}

// Run executes a single adapter: mark running, fetch, store, record the
// outcome. Adapter errors are recorded in source_status and never
// propagate; the returned count is the number of newly inserted
// articles.
func (r *Runner) Run(ctx context.Context, crawler sources.Crawler) int {
	defer crawler.Close()

	name := crawler.Name()
	if err := r.db.UpdateSourceStatus(name, database.StatusRunning, 0, nil); err != nil {
		log.Printf("[crawl] %s: status update failed: %v", name, err)
	}

	articles, err := crawler.Fetch(ctx)
	if err != nil {
		msg := err.Error()
		log.Printf("[crawl] %s failed: %v", name, err)
		if serr := r.db.UpdateSourceStatus(name, database.StatusError, 0, &msg); serr != nil {
			log.Printf("[crawl] %s: status update failed: %v", name, serr)
		}
		return 0
	}

	newCount, err := r.db.SaveArticles(articles)
	if err != nil {
		msg := err.Error()
		log.Printf("[crawl] %s: saving articles failed: %v", name, err)
		if serr := r.db.UpdateSourceStatus(name, database.StatusError, 0, &msg); serr != nil {
			log.Printf("[crawl] %s: status update failed: %v", name, serr)
		}
		return 0
	}

	log.Printf("[crawl] %s: %d fetched, %d new", name, len(articles), newCount)
	if err := r.db.UpdateSourceStatus(name, database.StatusSuccess, newCount, nil); err != nil {
		log.Printf("[crawl] %s: status update failed: %v", name, err)
	}
	return newCount
}

// RunAll executes all enabled adapters strictly sequentially with a
// pause between them. Returns the total count of new articles.
func (r *Runner) RunAll(ctx context.Context, crawlers []sources.Crawler) int {
	total := 0
	for i, c := range crawlers {
		if i > 0 {
			r.pause(interAdapterPause)
		}
		if ctx.Err() != nil {
			log.Printf("[crawl] run cancelled before %s", c.Name())
			c.Close()
			break
		}
		total += r.Run(ctx, c)
	}
	return total
}

// EnabledCrawlers builds the adapter list from configuration, in a
// fixed order.
func EnabledCrawlers(cfg *config.Config) []sources.Crawler {
	var crawlers []sources.Crawler
	src := cfg.Sources

	if src.GitHub.Enabled {
		crawlers = append(crawlers, sources.NewGitHubCrawler(src.GitHub))
	}
	if src.HuggingFace.Enabled {
		crawlers = append(crawlers, sources.NewHuggingFaceCrawler(src.HuggingFace))
	}
	if src.HackerNews.Enabled {
		crawlers = append(crawlers, sources.NewHackerNewsCrawler(src.HackerNews))
	}
	if src.Reddit.Enabled {
		crawlers = append(crawlers, sources.NewRedditCrawler(src.Reddit))
	}
	if src.Twitter.Enabled && len(src.Twitter.Accounts) > 0 {
		crawlers = append(crawlers, sources.NewTwitterCrawler(src.Twitter))
	}
	if src.Arxiv.Enabled {
		crawlers = append(crawlers, sources.NewArxivCrawler(src.Arxiv))
	}
	if src.Leaderboard.Enabled {
		crawlers = append(crawlers, sources.NewLeaderboardCrawler())
	}
	if src.Websites.Enabled && len(src.Websites.Blogs) > 0 {
		crawlers = append(crawlers, sources.NewWebsiteCrawler(src.Websites))
	}

	return crawlers
}
