package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"ainews/internal/briefing"
	"ainews/internal/config"
	"ainews/internal/crawl"
	"ainews/internal/database"
	"ainews/internal/enrich"
	"ainews/internal/judge"
	"ainews/internal/llm"
	"ainews/internal/publish"
	"ainews/internal/site"
	"ainews/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// PublishFailed reports whether the publish step ran and failed. It is
// the one condition a pipeline run exits non-zero on.
func (r *Result) PublishFailed() bool {
	for _, s := range r.Steps {
		if s.Name == "Publish" && s.Err != nil {
			return true
		}
	}
	return false
}

// Failed returns the steps that ended in an error.
func (r *Result) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Pipeline orchestrates the 7-step aggregation pipeline.
type Pipeline struct {
	cfg    *config.Config
	db     *database.DB
	client *llm.Client
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.APIBase,
		cfg.LLM.APIKeyEnv,
	)
	return &Pipeline{cfg: cfg, db: db, client: llm.NewClient(provider)}
}

// Run executes the full pipeline: crawl, judge, enrich, summarize,
// briefing, site build, publish. A failing step is recorded and the run
// continues; later stages work with whatever earlier stages managed to
// produce.
func (p *Pipeline) Run(ctx context.Context, weekly bool) *Result {
	r := &Result{}

	r.Steps = append(r.Steps, p.runCrawl(ctx))
	r.Steps = append(r.Steps, p.runJudge(ctx))
	r.Steps = append(r.Steps, p.runEnrich())
	r.Steps = append(r.Steps, p.runSummarize(ctx))
	r.Steps = append(r.Steps, p.runBriefing(ctx, weekly))
	r.Steps = append(r.Steps, p.runBuild())
	r.Steps = append(r.Steps, p.runPublish(ctx))

	for _, s := range r.Failed() {
		log.Printf("[pipeline] step %s failed: %v", s.Name, s.Err)
	}
	return r
}

func (p *Pipeline) runCrawl(ctx context.Context) StepResult {
	log.Println("Step 1/7: Crawling sources...")
	runner := crawl.NewRunner(p.db)
	count := runner.RunAll(ctx, crawl.EnabledCrawlers(p.cfg))
	return StepResult{
		Name:    "Crawl",
		Summary: fmt.Sprintf("Fetched %d new articles", count),
	}
}

func (p *Pipeline) runJudge(ctx context.Context) StepResult {
	log.Println("Step 2/7: Judging fresh articles...")
	j := judge.New(p.db, p.client, p.cfg.LLM.Model)
	result, err := j.Run(ctx)
	if err != nil {
		return StepResult{Name: "Judge", Err: err}
	}
	summary := fmt.Sprintf("Judged %d articles: %d important, %d ignored",
		result.Judged, result.Important, result.Ignored)
	if result.FailedOpen {
		summary += " (failed open, all kept)"
	}
	return StepResult{Name: "Judge", Summary: summary}
}

func (p *Pipeline) runEnrich() StepResult {
	log.Println("Step 3/7: Fetching article content...")
	result := enrich.New(p.db, 15*time.Second).Run()
	return StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("Fetched %d articles, %d failed", result.Fetched, result.Failed),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context) StepResult {
	log.Println("Step 4/7: Summarizing articles...")
	s := summarize.New(p.db, p.client, p.cfg.LLM.SummarizeModel)
	result, err := s.Run(ctx)
	if err != nil {
		return StepResult{Name: "Summarize", Err: err}
	}
	return StepResult{
		Name: "Summarize",
		Summary: fmt.Sprintf("Summarized %d articles, %d skipped",
			result.Summarized, result.Skipped),
	}
}

func (p *Pipeline) runBriefing(ctx context.Context, weekly bool) StepResult {
	log.Println("Step 5/7: Generating briefing...")
	g := briefing.New(p.db, p.client, p.cfg.LLM.BriefingModel, p.cfg.GetBriefingsDir())

	var b *database.Briefing
	var err error
	if weekly {
		b, err = g.GenerateWeekly(ctx)
	} else {
		b, err = g.GenerateDaily(ctx)
	}
	if err != nil {
		return StepResult{Name: "Briefing", Err: err}
	}
	if b == nil {
		return StepResult{Name: "Briefing", Summary: "No articles in window, skipped"}
	}
	return StepResult{
		Name:    "Briefing",
		Summary: fmt.Sprintf("%s (%d articles)", b.Title, b.ArticleCount),
	}
}

func (p *Pipeline) runBuild() StepResult {
	log.Println("Step 6/7: Building site...")
	if err := site.New(p.db, p.cfg).Build(p.cfg.GetSiteDir()); err != nil {
		return StepResult{Name: "Build", Err: err}
	}
	return StepResult{
		Name:    "Build",
		Summary: fmt.Sprintf("Site built in %s", p.cfg.GetSiteDir()),
	}
}

func (p *Pipeline) runPublish(ctx context.Context) StepResult {
	log.Println("Step 7/7: Publishing site...")
	if !publish.Configured(p.cfg.Publish) {
		return StepResult{Name: "Publish", Summary: "Remote not configured, skipped"}
	}
	if err := publish.Push(ctx, p.cfg.Publish, p.cfg.GetSiteDir()); err != nil {
		return StepResult{Name: "Publish", Err: err}
	}
	return StepResult{
		Name:    "Publish",
		Summary: fmt.Sprintf("Pushed to %s", p.cfg.Publish.RemoteHost),
	}
}
