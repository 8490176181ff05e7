package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    source_id TEXT,
    title TEXT NOT NULL,
    ai_title TEXT,
    ai_title_en TEXT,
    url TEXT,
    content TEXT,
    summary TEXT,
    summary_en TEXT,
    category TEXT,
    importance_score REAL,
    author TEXT,
    tags TEXT,
    extra TEXT,
    published_at TIMESTAMP,
    fetched_at TIMESTAMP NOT NULL,
    ignored INTEGER,
    summarized INTEGER NOT NULL DEFAULT 0,
    content_fetched INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS source_status (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_name TEXT UNIQUE NOT NULL,
    last_run TIMESTAMP,
    last_success TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'idle',
    error_message TEXT,
    articles_fetched INTEGER NOT NULL DEFAULT 0,
    total_articles INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS briefings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    period TEXT NOT NULL,
    title TEXT NOT NULL,
    title_en TEXT,
    content_markdown TEXT NOT NULL,
    content_markdown_en TEXT,
    article_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    UNIQUE(date, period)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_source_sid
    ON articles(source, source_id) WHERE source_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(fetched_at);
CREATE INDEX IF NOT EXISTS idx_articles_unjudged ON articles(ignored) WHERE ignored IS NULL;
CREATE INDEX IF NOT EXISTS idx_briefings_date ON briefings(date);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
