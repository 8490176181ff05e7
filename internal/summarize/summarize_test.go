package summarize

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ainews/internal/database"
	"ainews/internal/llm"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// queueProvider pops scripted responses/errors per call.
type queueProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *queueProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", nil
}

func (p *queueProvider) IsConfigured() bool { return true }

func newSummarizer(db *database.DB, p llm.Provider) *Summarizer {
	s := New(db, llm.NewClientWithInterval(p, 0), "test-model")
	s.pause = func(time.Duration) {}
	return s
}

func seedArticle(t *testing.T, db *database.DB, sourceID string) int64 {
	t.Helper()
	a := database.Article{
		Source:    "github",
		SourceID:  &sourceID,
		Title:     "Release " + sourceID,
		URL:       "https://example.com/" + sourceID,
		FetchedAt: time.Now(),
	}
	id, err := db.InsertArticle(&a)
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	return id
}

const goodResponse = `{"title": "Acme发布新模型", "title_en": "Acme Ships New Model",
"summary": "性能提升明显。", "summary_en": "Notable performance gains.", "score": 4}`

func TestRunSummarizes(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "r1")

	p := &queueProvider{responses: []string{goodResponse}}
	r, err := newSummarizer(db, p).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Summarized != 1 || r.Skipped != 0 {
		t.Fatalf("result = %+v", r)
	}

	a, _ := db.GetArticleByID(id)
	if a.AITitle == nil || *a.AITitle != "Acme发布新模型" {
		t.Errorf("ai_title = %v", a.AITitle)
	}
	if a.AITitleEn == nil || *a.AITitleEn != "Acme Ships New Model" {
		t.Errorf("ai_title_en = %v", a.AITitleEn)
	}
	if a.ImportanceScore == nil || *a.ImportanceScore != 4 {
		t.Errorf("score = %v", a.ImportanceScore)
	}
	if !a.Summarized {
		t.Error("summarized flag not set")
	}
}

func TestRunMalformedResponseStoresNeutralScore(t *testing.T) {
	db := openTestDB(t)
	id1 := seedArticle(t, db, "r1")
	id2 := seedArticle(t, db, "r2")

	// Newest first: r2 gets the broken response, r1 the good one.
	p := &queueProvider{responses: []string{"I am unable to answer in JSON.", goodResponse}}
	r, err := newSummarizer(db, p).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Summarized != 2 {
		t.Fatalf("result = %+v", r)
	}

	broken, _ := db.GetArticleByID(id2)
	if broken.AITitle != nil {
		t.Errorf("malformed response should leave empty title, got %v", broken.AITitle)
	}
	if broken.ImportanceScore == nil || *broken.ImportanceScore != 3.0 {
		t.Errorf("expected neutral score, got %v", broken.ImportanceScore)
	}
	if !broken.Summarized {
		t.Error("article must still be marked summarized")
	}

	good, _ := db.GetArticleByID(id1)
	if good.AITitle == nil {
		t.Error("batch should continue past the malformed item")
	}
}

func TestRunTransportFailureSkipsItem(t *testing.T) {
	db := openTestDB(t)
	seedArticle(t, db, "r1")
	seedArticle(t, db, "r2")

	p := &queueProvider{
		errs:      []error{errors.New("connection refused"), nil},
		responses: []string{"", goodResponse},
	}
	r, err := newSummarizer(db, p).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Summarized != 1 || r.Skipped != 1 {
		t.Fatalf("result = %+v", r)
	}

	// The failed item stays queued for the next pass.
	remaining, _ := db.GetUnsummarized(10)
	if len(remaining) != 1 {
		t.Errorf("expected 1 article left, got %d", len(remaining))
	}
}

func TestRunScoreClamped(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "r1")

	p := &queueProvider{responses: []string{`{"title": "t", "title_en": "t", "summary": "s", "summary_en": "s", "score": 11}`}}
	if _, err := newSummarizer(db, p).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	a, _ := db.GetArticleByID(id)
	if a.ImportanceScore == nil || *a.ImportanceScore != 5 {
		t.Errorf("score not clamped: %v", a.ImportanceScore)
	}
}

func TestRunSkipsIgnoredArticles(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "r1")
	db.SetJudgment(id, true)

	p := &queueProvider{responses: []string{goodResponse}}
	r, err := newSummarizer(db, p).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Processed != 0 {
		t.Errorf("ignored article summarized: %+v", r)
	}
	if p.calls != 0 {
		t.Errorf("model called %d times for ignored-only backlog", p.calls)
	}
}

func TestUserPromptTruncatesContentOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("中文内容测试片段", 300)
	a := &database.Article{
		Source:  "websites",
		Title:   "长文测试",
		URL:     "https://example.com/long",
		Content: &long,
	}

	p := userPrompt(a)
	if !utf8.ValidString(p) {
		t.Error("prompt contains a split rune")
	}
	if strings.Contains(p, long) {
		t.Error("content not truncated")
	}
	if !strings.Contains(p, "...") {
		t.Error("truncated content missing ellipsis")
	}
}
