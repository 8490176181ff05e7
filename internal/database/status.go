package database

import (
	"database/sql"
	"time"
)

// UpdateSourceStatus upserts the status row for one crawler. The lifetime
// total only grows, and only on success.
func (db *DB) UpdateSourceStatus(sourceName, status string, articlesFetched int, errorMessage *string) error {
	now := formatTime(time.Now())

	var lastSuccess *string
	totalDelta := 0
	if status == StatusSuccess {
		lastSuccess = &now
		totalDelta = articlesFetched
	}

	_, err := db.conn.Exec(
		`INSERT INTO source_status
		(source_name, last_run, last_success, status, error_message, articles_fetched, total_articles)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_name) DO UPDATE SET
			last_run = excluded.last_run,
			last_success = COALESCE(excluded.last_success, source_status.last_success),
			status = excluded.status,
			error_message = excluded.error_message,
			articles_fetched = excluded.articles_fetched,
			total_articles = source_status.total_articles + ?`,
		sourceName, now, lastSuccess, status, errorMessage, articlesFetched, totalDelta,
		totalDelta,
	)
	return err
}

// GetSourceStatus returns the status row for one source, or nil if the
// source has never run.
func (db *DB) GetSourceStatus(sourceName string) (*SourceStatus, error) {
	row := db.conn.QueryRow(
		selectStatus+" WHERE source_name = ?", sourceName,
	)
	s, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSourceStatuses returns all status rows ordered by source name.
func (db *DB) GetSourceStatuses() ([]SourceStatus, error) {
	rows, err := db.conn.Query(selectStatus + " ORDER BY source_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []SourceStatus
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *s)
	}
	return statuses, rows.Err()
}

const selectStatus = `SELECT id, source_name, last_run, last_success, status,
	error_message, articles_fetched, total_articles FROM source_status`

func scanStatus(r rowScanner) (*SourceStatus, error) {
	var s SourceStatus
	var lastRun, lastSuccess *string
	if err := r.Scan(&s.ID, &s.SourceName, &lastRun, &lastSuccess, &s.Status,
		&s.ErrorMessage, &s.ArticlesFetched, &s.TotalArticles); err != nil {
		return nil, err
	}
	s.LastRun = parseTimePtr(lastRun)
	s.LastSuccess = parseTimePtr(lastSuccess)
	return &s, nil
}
