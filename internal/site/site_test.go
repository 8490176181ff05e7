package site

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
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

func strPtr(s string) *string { return &s }

func seedBriefing(t *testing.T, db *database.DB, date, period string) {
	t.Helper()
	_, err := db.InsertBriefing(&database.Briefing{
		Date:              date,
		Period:            period,
		Title:             "AI 行业日报 - " + date,
		TitleEn:           strPtr("AI Daily Briefing - " + date),
		ContentMarkdown:   "## 🔥 重要动态\n\n- **新模型发布**：性能提升。",
		ContentMarkdownEn: strPtr("## 🔥 Key Highlights\n\n- A new model shipped."),
		ArticleCount:      7,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("InsertBriefing: %v", err)
	}
}

func seedArticle(t *testing.T, db *database.DB, sourceID, aiTitle string, score float64) {
	t.Helper()
	id, err := db.InsertArticle(&database.Article{
		Source:    "github",
		SourceID:  &sourceID,
		Title:     "Item " + sourceID,
		URL:       "https://example.com/" + sourceID,
		FetchedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	if err := db.ApplySummary(id, aiTitle, aiTitle+" en", "摘要", "summary", score); err != nil {
		t.Fatalf("ApplySummary: %v", err)
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Publish.SiteTitle = "Test Briefing"
	cfg.Publish.SiteDescription = "test description"
	return cfg
}

func TestBuildRendersSite(t *testing.T) {
	db := openTestDB(t)
	seedBriefing(t, db, "2026-08-27", database.PeriodDaily)
	seedBriefing(t, db, "2026-08-21", database.PeriodWeekly)
	seedArticle(t, db, "r1", "模型更新", 4.5)

	dir := t.TempDir()
	if err := New(db, testConfig()).Build(dir); err != nil {
		t.Fatalf("Build: %v", err)
	}

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	html := string(index)
	if !strings.Contains(html, "Test Briefing") {
		t.Error("index missing site title")
	}
	if !strings.Contains(html, "<h2>🔥 重要动态</h2>") {
		t.Error("briefing markdown not rendered to HTML")
	}
	if !strings.Contains(html, "模型更新") {
		t.Error("index missing latest article")
	}
	if !strings.Contains(html, "4.5/5") {
		t.Error("index missing importance score")
	}

	for _, name := range []string{
		"briefing-daily-2026-08-27.html",
		"briefing-weekly-2026-08-21.html",
		"archive.html",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	page, _ := os.ReadFile(filepath.Join(dir, "briefing-daily-2026-08-27.html"))
	if !strings.Contains(string(page), "Key Highlights") {
		t.Error("briefing page missing English section")
	}
}

func TestBuildBriefingsIndex(t *testing.T) {
	db := openTestDB(t)
	seedBriefing(t, db, "2026-08-27", database.PeriodDaily)
	seedBriefing(t, db, "2026-08-26", database.PeriodDaily)

	dir := t.TempDir()
	if err := New(db, testConfig()).Build(dir); err != nil {
		t.Fatalf("Build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "briefings.json"))
	if err != nil {
		t.Fatalf("reading briefings.json: %v", err)
	}
	var links []struct {
		Date      string  `json:"date"`
		Period    string  `json:"period"`
		Title     string  `json:"title"`
		TitleEn   *string `json:"title_en"`
		ItemCount int     `json:"item_count"`
		URL       string  `json:"url"`
	}
	if err := json.Unmarshal(data, &links); err != nil {
		t.Fatalf("decoding briefings.json: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(links))
	}
	// Newest first.
	if links[0].Date != "2026-08-27" {
		t.Errorf("first entry date = %q", links[0].Date)
	}
	if links[0].URL != "briefing-daily-2026-08-27.html" {
		t.Errorf("url = %q", links[0].URL)
	}
	if links[0].ItemCount != 7 {
		t.Errorf("item_count = %d", links[0].ItemCount)
	}
	if links[0].TitleEn == nil {
		t.Error("title_en missing")
	}
}

func TestBuildEmptyDatabase(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	if err := New(db, testConfig()).Build(dir); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		t.Errorf("missing index: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "briefings.json"))
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty index should be [], got %q", data)
	}
}
