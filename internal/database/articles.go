package database

import (
	"database/sql"
	"time"
)

// Timestamps are stored as fixed-width RFC 3339 text. The fractional
// part is always written with all nine digits; variable-width forms
// (RFC3339Nano drops trailing zeros) would break the lexicographic
// comparisons the window queries and fetched_at ordering rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	// Reading stays lenient so rows written before the fixed-width
	// layout still parse.
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := parseTime(*s)
	return &t
}

// InsertArticle inserts an article using the insert-or-skip path.
// Articles with a source_id dedup on (source, source_id): a duplicate is a
// no-op and returns 0. Articles without a source_id always insert.
func (db *DB) InsertArticle(a *Article) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO articles
		(source, source_id, title, ai_title, ai_title_en, url, content,
		 summary, summary_en, category, importance_score, author, tags, extra,
		 published_at, fetched_at, ignored, summarized, content_fetched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Source, a.SourceID, a.Title, a.AITitle, a.AITitleEn, a.URL, a.Content,
		a.Summary, a.SummaryEn, a.Category, a.ImportanceScore, a.Author, a.Tags, a.Extra,
		formatTimePtr(a.PublishedAt), formatTime(a.FetchedAt),
		a.Ignored, boolToInt(a.Summarized), boolToInt(a.ContentFetched),
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil // duplicate (source, source_id)
	}
	return result.LastInsertId()
}

// SaveArticles inserts a batch through the insert-or-skip path and returns
// the count of newly inserted rows.
func (db *DB) SaveArticles(articles []Article) (int, error) {
	newCount := 0
	for i := range articles {
		id, err := db.InsertArticle(&articles[i])
		if err != nil {
			return newCount, err
		}
		if id > 0 {
			newCount++
		}
	}
	return newCount, nil
}

// GetUnjudged returns articles the judgment stage has not seen yet,
// newest first.
func (db *DB) GetUnjudged(limit int) ([]Article, error) {
	rows, err := db.conn.Query(
		selectArticle+` WHERE ignored IS NULL ORDER BY fetched_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// SetJudgment records the judgment verdict for one article:
// ignored=0 keeps it eligible for summarization, ignored=1 rules it out.
func (db *DB) SetJudgment(articleID int64, ignored bool) error {
	_, err := db.conn.Exec(
		"UPDATE articles SET ignored = ? WHERE id = ?",
		boolToInt(ignored), articleID,
	)
	return err
}

// GetUnsummarized returns non-ignored articles without a summary, newest
// first. Unjudged articles are included so a failed judgment pass never
// blocks summarization.
func (db *DB) GetUnsummarized(limit int) ([]Article, error) {
	rows, err := db.conn.Query(
		selectArticle+` WHERE summarized = 0 AND (ignored IS NULL OR ignored = 0)
		ORDER BY fetched_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ApplySummary stores the summarization result for one article and marks
// it summarized. Empty fields are stored as NULL.
func (db *DB) ApplySummary(articleID int64, aiTitle, aiTitleEn, summary, summaryEn string, score float64) error {
	_, err := db.conn.Exec(
		`UPDATE articles SET ai_title = ?, ai_title_en = ?, summary = ?, summary_en = ?,
		 importance_score = ?, summarized = 1 WHERE id = ?`,
		nullIfEmpty(aiTitle), nullIfEmpty(aiTitleEn), nullIfEmpty(summary), nullIfEmpty(summaryEn),
		score, articleID,
	)
	return err
}

// GetNeedingContent returns articles with empty content whose full text
// has not been fetched yet.
func (db *DB) GetNeedingContent(limit int) ([]Article, error) {
	rows, err := db.conn.Query(
		selectArticle+` WHERE (content IS NULL OR content = '') AND content_fetched = 0
		AND url != '' ORDER BY fetched_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// SetContent stores fetched full text for an article.
func (db *DB) SetContent(articleID int64, content string) error {
	_, err := db.conn.Exec(
		"UPDATE articles SET content = ?, content_fetched = 1 WHERE id = ?",
		content, articleID,
	)
	return err
}

// MarkContentAttempted records that a full-text fetch was tried and failed,
// so the article is not retried every pass.
func (db *DB) MarkContentAttempted(articleID int64) error {
	_, err := db.conn.Exec(
		"UPDATE articles SET content_fetched = 1 WHERE id = ?", articleID,
	)
	return err
}

// GetBriefingWindow returns non-ignored articles fetched since the given
// time, ordered by importance descending (unscored last) then recency,
// capped at limit.
func (db *DB) GetBriefingWindow(since time.Time, limit int) ([]Article, error) {
	rows, err := db.conn.Query(
		selectArticle+` WHERE fetched_at >= ? AND (ignored IS NULL OR ignored = 0)
		ORDER BY importance_score IS NULL, importance_score DESC, fetched_at DESC
		LIMIT ?`,
		formatTime(since), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetLatestImportant returns the newest articles that passed judgment and
// carry a model headline, for the site index.
func (db *DB) GetLatestImportant(limit int) ([]Article, error) {
	rows, err := db.conn.Query(
		selectArticle+` WHERE (ignored IS NULL OR ignored = 0) AND ai_title IS NOT NULL
		ORDER BY importance_score IS NULL, importance_score DESC, fetched_at DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticleByID returns a single article by ID, or nil if absent.
func (db *DB) GetArticleByID(articleID int64) (*Article, error) {
	row := db.conn.QueryRow(selectArticle+" WHERE id = ?", articleID)
	a, err := scanArticleRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.TotalArticles},
		{"SELECT COUNT(*) FROM articles WHERE ignored IS NOT NULL", &s.JudgedArticles},
		{"SELECT COUNT(*) FROM articles WHERE ignored = 1", &s.IgnoredArticles},
		{"SELECT COUNT(*) FROM articles WHERE summarized = 1", &s.SummarizedArticles},
		{"SELECT COUNT(*) FROM briefings", &s.Briefings},
		{"SELECT COUNT(*) FROM source_status", &s.Sources},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

const selectArticle = `SELECT id, source, source_id, title, ai_title, ai_title_en,
	url, content, summary, summary_en, category, importance_score, author, tags,
	extra, published_at, fetched_at, ignored, summarized, content_fetched
	FROM articles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (*Article, error) {
	var a Article
	var urlVal *string
	var publishedAt, fetchedAt *string
	var summarized, contentFetched int
	if err := r.Scan(&a.ID, &a.Source, &a.SourceID, &a.Title, &a.AITitle, &a.AITitleEn,
		&urlVal, &a.Content, &a.Summary, &a.SummaryEn, &a.Category, &a.ImportanceScore,
		&a.Author, &a.Tags, &a.Extra, &publishedAt, &fetchedAt, &a.Ignored,
		&summarized, &contentFetched); err != nil {
		return nil, err
	}
	if urlVal != nil {
		a.URL = *urlVal
	}
	a.PublishedAt = parseTimePtr(publishedAt)
	if fetchedAt != nil {
		a.FetchedAt = parseTime(*fetchedAt)
	}
	a.Summarized = summarized != 0
	a.ContentFetched = contentFetched != 0
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func scanArticleRow(row *sql.Row) (*Article, error) {
	return scanArticle(row)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
