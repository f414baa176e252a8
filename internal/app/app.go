// Package app wires storage, fetching and parsing into a refresh service.
// The worker and the feedctl command share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedhub/internal/infra/adapter/persistence/postgres"
	"feedhub/internal/infra/adapter/persistence/sqlite"
	"feedhub/internal/infra/db"
	"feedhub/internal/infra/feedparser"
	"feedhub/internal/infra/fetcher"
	"feedhub/internal/observability/metrics"
	"feedhub/internal/repository"
	"feedhub/internal/resilience/circuitbreaker"
	"feedhub/internal/resilience/retry"
	"feedhub/internal/usecase/refresh"
)

// Options configures New.
type Options struct {
	// DSN is a DATABASE_URL; see db.ParseDSN.
	DSN string
	// Fetcher configures feed downloads.
	Fetcher fetcher.Config
	// Concurrency is the number of feeds refreshed at once. SQLite always uses 1.
	Concurrency int
	// Migrate applies the schema before returning.
	Migrate bool
}

// App holds an open database and the services built on it.
type App struct {
	DB      *sql.DB
	Dialect db.Dialect

	Feeds      repository.FeedRepository
	Articles   repository.ArticleRepository
	Favorites  repository.FavoritesRepository
	Categories repository.CategoryRepository

	Refresh *refresh.Service
}

// New opens the database described by opts and builds the refresh service.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Fetcher.Validate(); err != nil {
		return nil, fmt.Errorf("fetcher config: %w", err)
	}

	conn, dialect, err := db.Open(ctx, opts.DSN)
	if err != nil {
		return nil, err
	}

	if opts.Migrate {
		if err := db.MigrateUp(ctx, conn, dialect); err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("database schema up to date", slog.String("dialect", string(dialect)))
	}

	a := &App{DB: conn, Dialect: dialect}
	q := circuitbreaker.NewDBCircuitBreaker(conn)

	switch dialect {
	case db.DialectPostgres:
		a.Feeds = postgres.NewFeedRepo(q)
		a.Articles = postgres.NewArticleRepo(q)
		a.Favorites = postgres.NewFavoritesRepo(q)
		a.Categories = postgres.NewCategoryRepo(q)
	case db.DialectSQLite:
		a.Feeds = sqlite.NewFeedRepo(q)
		a.Articles = sqlite.NewArticleRepo(q)
		a.Favorites = sqlite.NewFavoritesRepo(q)
		a.Categories = sqlite.NewCategoryRepo(q)
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}

	concurrency := opts.Concurrency
	if dialect == db.DialectSQLite && concurrency != 1 {
		logger.Info("sqlite serializes writers, refreshing one feed at a time",
			slog.Int("requested_concurrency", concurrency))
		concurrency = 1
	}

	a.Refresh = refresh.NewService(
		a.Feeds,
		a.Articles,
		a.Favorites,
		a.Categories,
		fetcher.New(opts.Fetcher),
		feedparser.New(),
		refresh.Config{Concurrency: concurrency, Retry: retry.DBConfig()},
	)
	return a, nil
}

// ReportPoolStats publishes connection pool gauges every interval until ctx
// is done.
func (a *App) ReportPoolStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		stats := a.DB.Stats()
		metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close closes the database.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
