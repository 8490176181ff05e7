package database

import "time"

// Article is one fetched unit of content from any source, plus the
// enrichment fields written later by the judgment and summarization stages.
type Article struct {
	ID              int64
	Source          string
	SourceID        *string // upstream-unique id; nil for best-effort sources
	Title           string
	AITitle         *string // model-written headline (Chinese)
	AITitleEn       *string // model-written headline (English)
	URL             string
	Content         *string // truncated upstream body / description
	Summary         *string
	SummaryEn       *string
	Category        *string
	ImportanceScore *float64 // 1.0-5.0
	Author          *string
	Tags            *string // comma-joined
	Extra           *string // JSON, source-specific
	PublishedAt     *time.Time
	FetchedAt       time.Time
	Ignored         *int64 // nil = unjudged, 0 = important, 1 = judged unimportant
	Summarized      bool
	ContentFetched  bool
}

// IsIgnored reports whether the judgment stage ruled the article out.
func (a *Article) IsIgnored() bool {
	return a.Ignored != nil && *a.Ignored == 1
}

// SourceStatus tracks the operational state of one crawler, upserted after
// every run.
type SourceStatus struct {
	ID              int64
	SourceName      string
	LastRun         *time.Time
	LastSuccess     *time.Time
	Status          string // idle, running, success, error
	ErrorMessage    *string
	ArticlesFetched int // newly inserted in the last run
	TotalArticles   int // lifetime accumulator, success runs only
}

// Briefing is one generated digest for a (date, period) pair.
type Briefing struct {
	ID                int64
	Date              string // YYYY-MM-DD
	Period            string // daily / weekly
	Title             string
	TitleEn           *string
	ContentMarkdown   string
	ContentMarkdownEn *string
	ArticleCount      int
	CreatedAt         time.Time
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles      int
	JudgedArticles     int
	IgnoredArticles    int
	SummarizedArticles int
	Briefings          int
	Sources            int
}

const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
)

const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)
