package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"feedhub/internal/domain/entity"
	"feedhub/internal/observability/logging"
	"feedhub/internal/observability/metrics"
	"feedhub/internal/observability/tracing"
	"feedhub/internal/repository"
	"feedhub/internal/resilience/retry"
)

// WindowSize is the maximum number of articles a feed keeps.
const WindowSize = 50

// Config controls how a refresh cycle runs.
type Config struct {
	// Concurrency is the number of feeds refreshed at the same time.
	Concurrency int
	// Retry applies to storage reads. Fetches are never retried.
	Retry retry.Config
}

// DefaultConfig returns the configuration used by the worker.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Retry:       retry.DBConfig(),
	}
}

// Service is the feed synchronization engine.
type Service struct {
	Feeds      repository.FeedRepository
	Articles   repository.ArticleRepository
	Favorites  repository.FavoritesRepository
	Categories repository.CategoryRepository
	Fetcher    Fetcher
	Parser     FeedParser

	cfg Config
	now func() time.Time
}

// NewService creates a new synchronization engine.
func NewService(
	feeds repository.FeedRepository,
	articles repository.ArticleRepository,
	favorites repository.FavoritesRepository,
	categories repository.CategoryRepository,
	fetcher Fetcher,
	parser FeedParser,
	cfg Config,
) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Service{
		Feeds:      feeds,
		Articles:   articles,
		Favorites:  favorites,
		Categories: categories,
		Fetcher:    fetcher,
		Parser:     parser,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RefreshAll refreshes every stored feed and then runs one garbage collection
// pass. A failing feed is logged and counted; it never aborts the cycle. The
// error is non-nil only when the feed list cannot be read.
func (s *Service) RefreshAll(ctx context.Context) (*CycleStats, error) {
	runID := uuid.NewString()
	logger := logging.WithRunID(logging.FromContext(ctx), runID)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := tracing.GetTracer().Start(ctx, "refresh.cycle",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	cycleStart := s.now()
	stats := &CycleStats{RunID: runID}

	var feeds []*entity.Feed
	err := s.read(ctx, func() error {
		var err error
		feeds, err = s.Feeds.List(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list feeds")
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	stats.Feeds = len(feeds)
	metrics.UpdateFeedsTotal(len(feeds))

	logger.Info("refresh cycle started",
		slog.Int("feeds", len(feeds)),
		slog.Int("concurrency", s.cfg.Concurrency))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, feed := range feeds {
		g.Go(func() error {
			res, err := s.RefreshFeed(ctx, feed)
			if err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				logger.Warn("feed refresh failed",
					slog.Int64("feed_id", feed.ID),
					slog.String("feed_url", feed.URL),
					slog.Any("error", err))
				return nil
			}
			atomic.AddInt64(&stats.Refreshed, 1)
			atomic.AddInt64(&stats.Inserted, int64(res.Inserted))
			return nil
		})
	}
	_ = g.Wait()

	gc, err := s.CollectGarbage(ctx, cycleStart)
	if err != nil {
		logger.Warn("garbage collection failed, orphans kept until next cycle",
			slog.Any("error", err))
	}
	stats.GC = gc
	stats.Duration = time.Since(cycleStart)

	logger.Info("refresh cycle completed",
		slog.Int("feeds", stats.Feeds),
		slog.Int64("refreshed", stats.Refreshed),
		slog.Int64("failed", stats.Failed),
		slog.Int64("inserted", stats.Inserted),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

// RefreshFeed fetches one feed, reconciles its entries with stored articles
// and replaces its article window. On error the stored window is unchanged;
// articles inserted before the failure are left for garbage collection.
func (s *Service) RefreshFeed(ctx context.Context, feed *entity.Feed) (*FeedResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "refresh.feed",
		trace.WithAttributes(
			attribute.Int64("feed.id", feed.ID),
			attribute.String("feed.url", feed.URL),
		))
	defer span.End()

	start := time.Now()
	res, err := s.refreshFeed(ctx, feed)
	metrics.RecordFeedRefresh(resultLabel(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, resultLabel(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("articles.inserted", res.Inserted),
		attribute.Int("articles.window", res.Size))
	logging.FromContext(ctx).Debug("feed refreshed",
		slog.Int64("feed_id", feed.ID),
		slog.Int("inserted", res.Inserted),
		slog.Int("reused", res.Reused),
		slog.Int("backfilled", res.Backfilled),
		slog.Int("size", res.Size),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

func (s *Service) refreshFeed(ctx context.Context, feed *entity.Feed) (*FeedResult, error) {
	parsed, err := s.load(ctx, feed.URL)
	if err != nil {
		return nil, err
	}

	ids, res, err := s.buildWindow(ctx, parsed, feed.DefaultMedia, feed.ArticleIDs)
	if err != nil {
		return nil, err
	}

	if err := s.Feeds.UpdateArticles(ctx, feed.ID, ids); err != nil {
		return nil, fmt.Errorf("update feed articles: %w", err)
	}
	feed.ArticleIDs = ids

	res.FeedID = feed.ID
	metrics.RecordWindow(res.Inserted, res.Reused, res.Backfilled, res.Size)
	return res, nil
}

// load fetches and parses the document at url.
func (s *Service) load(ctx context.Context, url string) (*ParsedFeed, error) {
	body, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	parsed, err := s.Parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return parsed, nil
}

// read runs a storage read with the configured retry policy.
func (s *Service) read(ctx context.Context, fn func() error) error {
	return retry.WithBackoff(ctx, s.cfg.Retry, fn)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrFetchFailed):
		return metrics.ResultFetchError
	case errors.Is(err, ErrParseFailed):
		return metrics.ResultParseError
	default:
		return metrics.ResultStorageError
	}
}
