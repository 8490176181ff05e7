package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ainews/internal/briefing"
	"ainews/internal/config"
	"ainews/internal/crawl"
	"ainews/internal/database"
	"ainews/internal/judge"
	"ainews/internal/llm"
	"ainews/internal/pipeline"
	"ainews/internal/publish"
	"ainews/internal/scheduler"
	"ainews/internal/site"
	"ainews/internal/sources"
	"ainews/internal/summarize"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ainews",
	Short:   "AI industry news aggregation and briefings",
	Long:    "ainews crawls AI news sources, filters and summarizes them with an LLM, and publishes bilingual daily briefings as a static site.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(briefingCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(runCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ainews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/ainews/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sources, API keys, and the publish target.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.Today())
		fmt.Println("Articles:")
		fmt.Printf("  Total fetched: %d\n", stats.TotalArticles)
		fmt.Printf("  Judged: %d (%d ignored)\n", stats.JudgedArticles, stats.IgnoredArticles)
		fmt.Printf("  Summarized: %d\n", stats.SummarizedArticles)
		fmt.Println("\nOutput:")
		fmt.Printf("  Briefings: %d\n", stats.Briefings)

		statuses, err := db.GetSourceStatuses()
		if err != nil {
			return err
		}
		if len(statuses) > 0 {
			fmt.Println("\nSources:")
			for _, s := range statuses {
				lastRun := "never"
				if s.LastRun != nil {
					lastRun = s.LastRun.Local().Format("2006-01-02 15:04")
				}
				line := fmt.Sprintf("  %-12s %-8s last run %s, %d total", s.SourceName, s.Status, lastRun, s.TotalArticles)
				if s.ErrorMessage != nil && *s.ErrorMessage != "" {
					line += " (" + *s.ErrorMessage + ")"
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

// --- crawl command ---

var crawlSource string

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl configured sources and judge fresh articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		crawlers := crawl.EnabledCrawlers(cfg)
		if crawlSource != "" {
			var selected sources.Crawler
			for _, c := range crawlers {
				if c.Name() == crawlSource {
					selected = c
				} else {
					c.Close()
				}
			}
			if selected == nil {
				return fmt.Errorf("unknown or disabled source: %s", crawlSource)
			}
			crawlers = []sources.Crawler{selected}
		}

		ctx := signalContext()
		count := crawl.NewRunner(db).RunAll(ctx, crawlers)
		fmt.Printf("\nCrawl complete: %d new articles\n", count)

		result, err := judge.New(db, newLLMClient(), cfg.LLM.Model).Run(ctx)
		if err != nil {
			return fmt.Errorf("judging articles: %w", err)
		}
		if result.Judged > 0 {
			fmt.Printf("Judged %d: %d important, %d ignored\n",
				result.Judged, result.Important, result.Ignored)
		}
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlSource, "source", "s", "", "Crawl a single source by name")
}

// --- summarize command ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate bilingual titles, summaries, and importance scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		s := summarize.New(db, newLLMClient(), cfg.LLM.SummarizeModel)
		result, err := s.Run(signalContext())
		if err != nil {
			return err
		}
		fmt.Printf("Summarized %d articles, %d skipped\n", result.Summarized, result.Skipped)
		return nil
	},
}

// --- briefing command ---

var briefingWeekly bool

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Generate today's briefing",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		g := briefing.New(db, newLLMClient(), cfg.LLM.BriefingModel, cfg.GetBriefingsDir())

		ctx := signalContext()
		var b *database.Briefing
		if briefingWeekly {
			b, err = g.GenerateWeekly(ctx)
		} else {
			b, err = g.GenerateDaily(ctx)
		}
		if err != nil {
			return err
		}
		if b == nil {
			fmt.Println("No articles in the window, nothing to generate.")
			return nil
		}
		fmt.Printf("%s (%d articles)\n", b.Title, b.ArticleCount)
		return nil
	},
}

func init() {
	briefingCmd.Flags().BoolVarP(&briefingWeekly, "weekly", "w", false, "Generate the weekly briefing instead of the daily one")
}

// --- build / push commands ---

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := site.New(db, cfg).Build(cfg.GetSiteDir()); err != nil {
			return err
		}
		fmt.Printf("Site built in %s\n", cfg.GetSiteDir())
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the built site to the remote server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !publish.Configured(cfg.Publish) {
			return fmt.Errorf("publish target not configured; set publish.remote_host in config.yaml")
		}
		return publish.Push(signalContext(), cfg.Publish, cfg.GetSiteDir())
	},
}

// --- pipeline command ---

var pipelineWeekly bool

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full pipeline: crawl -> judge -> enrich -> summarize -> briefing -> build -> push",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result := pipeline.New(cfg, db).Run(signalContext(), pipelineWeekly)

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.PublishFailed() {
			return fmt.Errorf("publish failed")
		}
		fmt.Println("\nPipeline complete.")
		return nil
	},
}

func init() {
	pipelineCmd.Flags().BoolVarP(&pipelineWeekly, "weekly", "w", false, "Generate the weekly briefing instead of the daily one")
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Starting scheduler. Press Ctrl+C to stop.")
		scheduler.New(cfg, db).Run(signalContext())
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func newLLMClient() *llm.Client {
	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.APIBase,
		cfg.LLM.APIKeyEnv,
	)
	return llm.NewClient(provider)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		log.Println("shutting down...")
		cancel()
		// A second signal kills immediately.
		<-ch
		os.Exit(1)
	}()
	return ctx
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "ainews.db"))
}
