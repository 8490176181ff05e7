package database

import (
	"database/sql"
	"time"
)

// InsertBriefing inserts a briefing. The (date, period) pair is unique;
// callers check GetBriefing first and never overwrite an existing digest.
func (db *DB) InsertBriefing(b *Briefing) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO briefings
		(date, period, title, title_en, content_markdown, content_markdown_en, article_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Date, b.Period, b.Title, b.TitleEn, b.ContentMarkdown, b.ContentMarkdownEn,
		b.ArticleCount, formatTime(b.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetBriefing returns the briefing for a (date, period) pair, or nil.
func (db *DB) GetBriefing(date, period string) (*Briefing, error) {
	row := db.conn.QueryRow(
		selectBriefing+" WHERE date = ? AND period = ?", date, period,
	)
	b, err := scanBriefing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetAllBriefings returns all briefings, newest first.
func (db *DB) GetAllBriefings() ([]Briefing, error) {
	rows, err := db.conn.Query(selectBriefing + " ORDER BY date DESC, period")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefings []Briefing
	for rows.Next() {
		b, err := scanBriefing(rows)
		if err != nil {
			return nil, err
		}
		briefings = append(briefings, *b)
	}
	return briefings, rows.Err()
}

const selectBriefing = `SELECT id, date, period, title, title_en,
	content_markdown, content_markdown_en, article_count, created_at FROM briefings`

func scanBriefing(r rowScanner) (*Briefing, error) {
	var b Briefing
	var createdAt string
	if err := r.Scan(&b.ID, &b.Date, &b.Period, &b.Title, &b.TitleEn,
		&b.ContentMarkdown, &b.ContentMarkdownEn, &b.ArticleCount, &createdAt); err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}

// Today returns today's date as YYYY-MM-DD (UTC).
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
