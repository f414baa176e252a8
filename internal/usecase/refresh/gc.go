package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"feedhub/internal/domain/entity"
	"feedhub/internal/observability/logging"
	"feedhub/internal/observability/metrics"
	"feedhub/internal/observability/tracing"
)

// CollectGarbage deletes every article created before cutoff that is in no
// feed window and in no user's favorites. It must not run concurrently with
// feed refreshes. A failed pass leaves orphans for the next one.
func (s *Service) CollectGarbage(ctx context.Context, cutoff time.Time) (*GCStats, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "refresh.gc")
	defer span.End()

	start := time.Now()
	stats, err := s.collectGarbage(ctx, cutoff)
	stats.Duration = time.Since(start)
	metrics.RecordGC(stats.Deleted, stats.Duration, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gc")
		return stats, err
	}

	span.SetAttributes(
		attribute.Int("gc.candidates", stats.Candidates),
		attribute.Int64("gc.deleted", stats.Deleted))
	logging.FromContext(ctx).Info("garbage collection completed",
		slog.Int("candidates", stats.Candidates),
		slog.Int("retained", stats.Retained),
		slog.Int64("deleted", stats.Deleted),
		slog.Duration("duration", stats.Duration))

	if count, err := s.Articles.Count(ctx); err == nil {
		metrics.UpdateArticlesTotal(count)
	}
	return stats, nil
}

func (s *Service) collectGarbage(ctx context.Context, cutoff time.Time) (*GCStats, error) {
	stats := &GCStats{}

	var candidates []int64
	err := s.read(ctx, func() error {
		var err error
		candidates, err = s.Articles.ListIDsCreatedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("list article ids: %w", err)
	}
	stats.Candidates = len(candidates)
	if len(candidates) == 0 {
		return stats, nil
	}

	var feeds []*entity.Feed
	err = s.read(ctx, func() error {
		var err error
		feeds, err = s.Feeds.List(ctx)
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("list feeds: %w", err)
	}

	var favorites []int64
	err = s.read(ctx, func() error {
		var err error
		favorites, err = s.Favorites.ListFavoriteArticleIDs(ctx)
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("list favorites: %w", err)
	}

	used := make(map[int64]struct{}, len(feeds)*WindowSize+len(favorites))
	for _, f := range feeds {
		for _, id := range f.ArticleIDs {
			used[id] = struct{}{}
		}
	}
	for _, id := range favorites {
		used[id] = struct{}{}
	}

	orphans := make([]int64, 0)
	for _, id := range candidates {
		if _, ok := used[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	stats.Retained = len(candidates) - len(orphans)
	if len(orphans) == 0 {
		return stats, nil
	}

	deleted, err := s.Articles.DeleteByIDs(ctx, orphans)
	if err != nil {
		return stats, fmt.Errorf("delete orphan articles: %w", err)
	}
	stats.Deleted = deleted
	return stats, nil
}
