package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"feedhub/internal/domain/entity"
	"feedhub/internal/observability/logging"
	"feedhub/internal/observability/tracing"
	"feedhub/internal/repository"
)

// AddFeed subscribes a category to the feed at rawURL. A feed whose URL key
// is already stored is reused; otherwise the feed is fetched, its initial
// window is built and the feed is stored. Attaching to the category is
// idempotent.
func (s *Service) AddFeed(ctx context.Context, rawURL string, categoryID int64) (*AddFeedResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "refresh.add_feed",
		trace.WithAttributes(attribute.String("feed.url", rawURL)))
	defer span.End()

	res, err := s.addFeed(ctx, rawURL, categoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add feed")
		return nil, err
	}
	span.SetAttributes(attribute.Int64("feed.id", res.ID), attribute.Bool("feed.created", res.Created))
	return res, nil
}

func (s *Service) addFeed(ctx context.Context, rawURL string, categoryID int64) (*AddFeedResult, error) {
	if err := entity.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if err := entity.ValidateID("category_id", categoryID); err != nil {
		return nil, err
	}

	ok, err := s.Categories.Exists(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}

	key := entity.FeedURLKey(rawURL)
	feed, err := s.Feeds.FindByURLKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find feed by url key: %w", err)
	}

	created := false
	if feed == nil {
		feed, created, err = s.createFeed(ctx, rawURL, key)
		if err != nil {
			return nil, err
		}
	}

	if err := s.Categories.AttachFeed(ctx, categoryID, feed.ID); err != nil {
		return nil, fmt.Errorf("attach feed to category: %w", err)
	}

	logging.FromContext(ctx).Info("feed added",
		slog.Int64("feed_id", feed.ID),
		slog.String("feed_url", feed.URL),
		slog.Int64("category_id", categoryID),
		slog.Bool("created", created),
		slog.Int("articles", len(feed.ArticleIDs)))

	return &AddFeedResult{ID: feed.ID, Name: feed.Name, Created: created}, nil
}

func (s *Service) createFeed(ctx context.Context, rawURL, key string) (*entity.Feed, bool, error) {
	parsed, err := s.load(ctx, rawURL)
	if err != nil {
		return nil, false, err
	}

	feed := &entity.Feed{
		URL:          rawURL,
		URLKey:       key,
		Name:         entity.FeedName(rawURL),
		DefaultMedia: parsed.Logo,
	}
	ids, _, err := s.buildWindow(ctx, parsed, feed.DefaultMedia, nil)
	if err != nil {
		return nil, false, err
	}
	feed.ArticleIDs = ids

	err = s.Feeds.Create(ctx, feed)
	if errors.Is(err, repository.ErrDuplicateFeed) {
		existing, findErr := s.Feeds.FindByURLKey(ctx, key)
		if findErr != nil {
			return nil, false, fmt.Errorf("find feed by url key: %w", findErr)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("create feed: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create feed: %w", err)
	}
	return feed, true, nil
}
