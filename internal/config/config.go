package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources   Sources   `yaml:"sources"`
	LLM       LLM       `yaml:"llm"`
	Scheduler Scheduler `yaml:"scheduler"`
	Publish   Publish   `yaml:"publish"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
}

type Sources struct {
	GitHub      GitHubSource      `yaml:"github"`
	HuggingFace HuggingFaceSource `yaml:"huggingface"`
	HackerNews  HackerNewsSource  `yaml:"hackernews"`
	Reddit      RedditSource      `yaml:"reddit"`
	Twitter     TwitterSource     `yaml:"twitter"`
	Arxiv       ArxivSource       `yaml:"arxiv"`
	Leaderboard LeaderboardSource `yaml:"leaderboard"`
	Websites    WebsiteSource     `yaml:"websites"`
}

type GitHubSource struct {
	Enabled       bool     `yaml:"enabled"`
	IntervalHours int      `yaml:"interval_hours"`
	Orgs          []string `yaml:"orgs"`
	Topics        []string `yaml:"topics"`
	TokenEnv      string   `yaml:"token_env"`
}

type HuggingFaceSource struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	TokenEnv      string `yaml:"token_env"`
}

type HackerNewsSource struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"interval_hours"`
	PostLimit     int  `yaml:"post_limit"`
}

type RedditSource struct {
	Enabled       bool     `yaml:"enabled"`
	IntervalHours int      `yaml:"interval_hours"`
	Subreddits    []string `yaml:"subreddits"`
	PostLimit     int      `yaml:"post_limit"`
}

type TwitterSource struct {
	Enabled       bool     `yaml:"enabled"`
	IntervalHours int      `yaml:"interval_hours"`
	RSSHubBase    string   `yaml:"rsshub_base"`
	Accounts      []string `yaml:"accounts"`
}

type ArxivSource struct {
	Enabled       bool     `yaml:"enabled"`
	IntervalHours int      `yaml:"interval_hours"`
	Categories    []string `yaml:"categories"`
	Keywords      []string `yaml:"keywords"`
	MaxResults    int      `yaml:"max_results"`
}

type LeaderboardSource struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"interval_hours"`
}

type Blog struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	RSS  string `yaml:"rss"`
}

type WebsiteSource struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Blogs         []Blog `yaml:"blogs"`
}

type LLM struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	SummarizeModel string  `yaml:"summarize_model"`
	BriefingModel  string  `yaml:"briefing_model"`
	APIBase        string  `yaml:"api_base"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	OllamaURL      string  `yaml:"ollama_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

type Scheduler struct {
	SummarizeIntervalHours int    `yaml:"summarize_interval_hours"`
	DailyBriefingTime      string `yaml:"daily_briefing_time"`
	WeeklyBriefingDay      string `yaml:"weekly_briefing_day"`
}

type Publish struct {
	RemoteHost      string `yaml:"remote_host"`
	RemoteUser      string `yaml:"remote_user"`
	RemotePath      string `yaml:"remote_path"`
	SSHKey          string `yaml:"ssh_key"`
	SiteTitle       string `yaml:"site_title"`
	SiteDescription string `yaml:"site_description"`
	SiteURL         string `yaml:"site_url"`
}

type Output struct {
	DataDir      string `yaml:"data_dir"`
	BriefingsDir string `yaml:"briefings_dir"`
	SiteDir      string `yaml:"site_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for ainews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "ainews")
}

// DataDir returns the XDG data directory for ainews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "ainews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/ainews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'ainews init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults and environment
// overrides for the publish target.
func parse(data []byte) (*Config, error) {
	cfg := defaults()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the built-in configuration, the same baseline Load
// starts from before applying the YAML file.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Sources: Sources{
			GitHub: GitHubSource{
				Enabled:       true,
				IntervalHours: 6,
				Topics:        []string{"llm", "machine-learning"},
				TokenEnv:      "GITHUB_TOKEN",
			},
			HuggingFace: HuggingFaceSource{
				Enabled:       true,
				IntervalHours: 6,
				TokenEnv:      "HF_TOKEN",
			},
			HackerNews: HackerNewsSource{
				Enabled:       true,
				IntervalHours: 4,
				PostLimit:     25,
			},
			Reddit: RedditSource{
				Enabled:       true,
				IntervalHours: 4,
				Subreddits:    []string{"MachineLearning", "LocalLLaMA"},
				PostLimit:     25,
			},
			Twitter: TwitterSource{
				IntervalHours: 4,
				RSSHubBase:    "https://rsshub.app",
			},
			Arxiv: ArxivSource{
				Enabled:       true,
				IntervalHours: 12,
				Categories:    []string{"cs.AI", "cs.CL", "cs.LG"},
				MaxResults:    30,
			},
			Leaderboard: LeaderboardSource{
				Enabled:       true,
				IntervalHours: 24,
			},
			Websites: WebsiteSource{
				Enabled:       true,
				IntervalHours: 6,
			},
		},
		LLM: LLM{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			SummarizeModel: "gpt-4o-mini",
			BriefingModel:  "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			OllamaURL:      "http://localhost:11434",
			Temperature:    0.3,
			MaxTokens:      4096,
		},
		Scheduler: Scheduler{
			SummarizeIntervalHours: 2,
			DailyBriefingTime:      "08:00",
			WeeklyBriefingDay:      "monday",
		},
		Publish: Publish{
			SiteTitle:       "AI Daily Briefing",
			SiteDescription: "AI 行业每日信息聚合简报",
		},
		Logging: Logging{Level: "INFO"},
	}
}

// applyEnvOverrides lets deployment secrets override the publish target
// without writing them into the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PUBLISH_REMOTE_HOST"); v != "" {
		cfg.Publish.RemoteHost = v
	}
	if v := os.Getenv("PUBLISH_REMOTE_USER"); v != "" {
		cfg.Publish.RemoteUser = v
	}
	if v := os.Getenv("PUBLISH_REMOTE_PATH"); v != "" {
		cfg.Publish.RemotePath = v
	}
	if v := os.Getenv("PUBLISH_SSH_KEY"); v != "" {
		cfg.Publish.SSHKey = v
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetBriefingsDir returns the directory for generated Markdown briefings.
func (c *Config) GetBriefingsDir() string {
	if c.Output.BriefingsDir != "" {
		return c.Output.BriefingsDir
	}
	return filepath.Join(c.GetDataDir(), "briefings")
}

// GetSiteDir returns the directory the static site is built into.
func (c *Config) GetSiteDir() string {
	if c.Output.SiteDir != "" {
		return c.Output.SiteDir
	}
	return filepath.Join(c.GetDataDir(), "site")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
