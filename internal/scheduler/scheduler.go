package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"ainews/internal/briefing"
	"ainews/internal/config"
	"ainews/internal/crawl"
	"ainews/internal/database"
	"ainews/internal/judge"
	"ainews/internal/llm"
	"ainews/internal/publish"
	"ainews/internal/site"
	"ainews/internal/sources"
	"ainews/internal/summarize"
)

// Scheduler runs the crawl, summarization and briefing jobs on their
// configured intervals until the context is cancelled.
type Scheduler struct {
	cfg    *config.Config
	db     *database.DB
	client *llm.Client
	now    func() time.Time
}

// New creates a scheduler.
func New(cfg *config.Config, db *database.DB) *Scheduler {
	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.APIBase,
		cfg.LLM.APIKeyEnv,
	)
	return &Scheduler{
		cfg:    cfg,
		db:     db,
		client: llm.NewClient(provider),
		now:    time.Now,
	}
}

type sourceJob struct {
	name     string
	interval time.Duration
	make     func() sources.Crawler
}

// Run starts all jobs and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	jobs := s.sourceJobs()
	for _, j := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.every(ctx, j.interval, func() { s.runCrawl(ctx, j) })
		}()
		log.Printf("[scheduler] %s crawler every %s", j.name, j.interval)
	}

	summarizeInterval := time.Duration(s.cfg.Scheduler.SummarizeIntervalHours) * time.Hour
	if summarizeInterval <= 0 {
		summarizeInterval = 2 * time.Hour
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.every(ctx, summarizeInterval, func() { s.runSummarize(ctx) })
	}()
	log.Printf("[scheduler] summarization every %s", summarizeInterval)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.daily(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.weekly(ctx)
	}()

	log.Printf("[scheduler] running with %d crawler jobs", len(jobs))
	wg.Wait()
}

// every runs job on a fixed interval. The first run happens after one
// interval, not at startup; an explicit `ainews pipeline` covers cold
// starts.
func (s *Scheduler) every(ctx context.Context, interval time.Duration, job func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job()
		}
	}
}

// daily sleeps until the configured briefing time, runs the daily
// briefing chain, and repeats.
func (s *Scheduler) daily(ctx context.Context) {
	hour, minute, err := parseClock(s.cfg.Scheduler.DailyBriefingTime)
	if err != nil {
		log.Printf("[scheduler] invalid daily_briefing_time %q: %v, using 08:00",
			s.cfg.Scheduler.DailyBriefingTime, err)
		hour, minute = 8, 0
	}
	for {
		next := nextDaily(s.now(), hour, minute)
		log.Printf("[scheduler] next daily briefing at %s", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			s.runDailyBriefing(ctx)
		}
	}
}

// weekly is the same loop for the weekly briefing, half an hour after
// the daily slot on the configured day.
func (s *Scheduler) weekly(ctx context.Context) {
	hour, minute, err := parseClock(s.cfg.Scheduler.DailyBriefingTime)
	if err != nil {
		hour, minute = 8, 0
	}
	minute += 30
	if minute >= 60 {
		minute -= 60
		hour = (hour + 1) % 24
	}
	day := parseWeekday(s.cfg.Scheduler.WeeklyBriefingDay)

	for {
		next := nextWeekly(s.now(), day, hour, minute)
		log.Printf("[scheduler] next weekly briefing at %s", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			s.runWeeklyBriefing(ctx)
		}
	}
}

func (s *Scheduler) sourceJobs() []sourceJob {
	src := s.cfg.Sources
	var jobs []sourceJob

	add := func(name string, enabled bool, hours int, make func() sources.Crawler) {
		if !enabled {
			return
		}
		if hours <= 0 {
			hours = 6
		}
		jobs = append(jobs, sourceJob{name: name, interval: time.Duration(hours) * time.Hour, make: make})
	}

	add("github", src.GitHub.Enabled, src.GitHub.IntervalHours,
		func() sources.Crawler { return sources.NewGitHubCrawler(src.GitHub) })
	add("huggingface", src.HuggingFace.Enabled, src.HuggingFace.IntervalHours,
		func() sources.Crawler { return sources.NewHuggingFaceCrawler(src.HuggingFace) })
	add("hackernews", src.HackerNews.Enabled, src.HackerNews.IntervalHours,
		func() sources.Crawler { return sources.NewHackerNewsCrawler(src.HackerNews) })
	add("reddit", src.Reddit.Enabled, src.Reddit.IntervalHours,
		func() sources.Crawler { return sources.NewRedditCrawler(src.Reddit) })
	add("twitter", src.Twitter.Enabled && len(src.Twitter.Accounts) > 0, src.Twitter.IntervalHours,
		func() sources.Crawler { return sources.NewTwitterCrawler(src.Twitter) })
	add("arxiv", src.Arxiv.Enabled, src.Arxiv.IntervalHours,
		func() sources.Crawler { return sources.NewArxivCrawler(src.Arxiv) })
	add("leaderboard", src.Leaderboard.Enabled, src.Leaderboard.IntervalHours,
		func() sources.Crawler { return sources.NewLeaderboardCrawler() })
	add("websites", src.Websites.Enabled && len(src.Websites.Blogs) > 0, src.Websites.IntervalHours,
		func() sources.Crawler { return sources.NewWebsiteCrawler(src.Websites) })

	return jobs
}

// runCrawl fetches one source, then judges whatever is fresh.
func (s *Scheduler) runCrawl(ctx context.Context, j sourceJob) {
	runner := crawl.NewRunner(s.db)
	count := runner.Run(ctx, j.make())
	log.Printf("[scheduler] %s crawl finished, %d new articles", j.name, count)

	if _, err := judge.New(s.db, s.client, s.cfg.LLM.Model).Run(ctx); err != nil {
		log.Printf("[scheduler] judgment after %s crawl: %v", j.name, err)
	}
}

func (s *Scheduler) runSummarize(ctx context.Context) {
	r, err := summarize.New(s.db, s.client, s.cfg.LLM.SummarizeModel).Run(ctx)
	if err != nil {
		log.Printf("[scheduler] summarization: %v", err)
		return
	}
	log.Printf("[scheduler] summarization done: %d summarized, %d skipped", r.Summarized, r.Skipped)
}

// runDailyBriefing summarizes leftovers, generates the daily briefing,
// rebuilds the site and pushes it.
func (s *Scheduler) runDailyBriefing(ctx context.Context) {
	s.runSummarize(ctx)

	g := briefing.New(s.db, s.client, s.cfg.LLM.BriefingModel, s.cfg.GetBriefingsDir())
	b, err := g.GenerateDaily(ctx)
	if err != nil {
		log.Printf("[scheduler] daily briefing: %v", err)
		return
	}
	if b == nil {
		log.Printf("[scheduler] daily briefing skipped, empty window")
		return
	}
	s.buildAndPush(ctx)
}

func (s *Scheduler) runWeeklyBriefing(ctx context.Context) {
	g := briefing.New(s.db, s.client, s.cfg.LLM.BriefingModel, s.cfg.GetBriefingsDir())
	b, err := g.GenerateWeekly(ctx)
	if err != nil {
		log.Printf("[scheduler] weekly briefing: %v", err)
		return
	}
	if b == nil {
		log.Printf("[scheduler] weekly briefing skipped, empty window")
		return
	}
	s.buildAndPush(ctx)
}

func (s *Scheduler) buildAndPush(ctx context.Context) {
	if err := site.New(s.db, s.cfg).Build(s.cfg.GetSiteDir()); err != nil {
		log.Printf("[scheduler] site build: %v", err)
		return
	}
	if err := publish.Push(ctx, s.cfg.Publish, s.cfg.GetSiteDir()); err != nil {
		log.Printf("[scheduler] publish: %v", err)
	}
}

// parseClock parses "HH:MM".
func parseClock(v string) (hour, minute int, err error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", v)
	}
	return hour, minute, nil
}

// nextDaily returns the next occurrence of hour:minute after now.
func nextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeekly returns the next occurrence of hour:minute on the given
// weekday after now.
func nextWeekly(now time.Time, day time.Weekday, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	days := (int(day) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func parseWeekday(name string) time.Weekday {
	switch strings.ToLower(name) {
	case "sunday":
		return time.Sunday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Monday
	}
}
