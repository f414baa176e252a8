package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Article timestamps are TIMESTAMPTZ on PostgreSQL and unix microseconds on
// SQLite so that range comparisons stay numeric there.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id         BIGSERIAL PRIMARY KEY,
    email      TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS feeds (
    id            BIGSERIAL PRIMARY KEY,
    url           TEXT NOT NULL,
    url_key       TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    default_media TEXT NOT NULL DEFAULT '',
    article_ids   BIGINT[] NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    id           BIGSERIAL PRIMARY KEY,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    media        TEXT,
    published_at TIMESTAMPTZ,
    author       TEXT NOT NULL DEFAULT 'Unknown',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS categories (
    id       BIGSERIAL PRIMARY KEY,
    owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name     TEXT NOT NULL,
    color    TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS category_feeds (
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    feed_id     BIGINT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    PRIMARY KEY (category_id, feed_id)
)`,
	`CREATE TABLE IF NOT EXISTS user_favorites (
    user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    article_id BIGINT NOT NULL,
    PRIMARY KEY (user_id, article_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_user_favorites_article_id ON user_favorites(article_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS feeds (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    url           TEXT NOT NULL,
    url_key       TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    default_media TEXT NOT NULL DEFAULT '',
    article_ids   TEXT NOT NULL DEFAULT '[]',
    updated_at    INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    media        TEXT,
    published_at INTEGER,
    author       TEXT NOT NULL DEFAULT 'Unknown',
    created_at   INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS categories (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name     TEXT NOT NULL,
    color    TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS category_feeds (
    category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    feed_id     INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    PRIMARY KEY (category_id, feed_id)
)`,
	`CREATE TABLE IF NOT EXISTS user_favorites (
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    article_id INTEGER NOT NULL,
    PRIMARY KEY (user_id, article_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_user_favorites_article_id ON user_favorites(article_id)`,
}

// MigrateUp creates the schema for dialect. Every statement is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var stmts []string
	switch dialect {
	case DialectPostgres:
		stmts = postgresSchema
	case DialectSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("MigrateUp: unknown dialect %q", dialect)
	}

	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateUp: statement %d: %w", i+1, err)
		}
	}
	return nil
}

// MigrateDown drops every table created by MigrateUp.
// Use with caution: this will delete all data.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	tables := []string{"user_favorites", "category_feeds", "categories", "articles", "feeds", "users"}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("MigrateDown: %s: %w", table, err)
		}
	}
	return nil
}
