package repository

import (
	"context"
	"errors"

	"feedhub/internal/domain/entity"
)

// ErrDuplicateFeed is returned by Create when a feed with the same URL key exists.
var ErrDuplicateFeed = errors.New("feed already exists")

type FeedRepository interface {
	List(ctx context.Context) ([]*entity.Feed, error)
	// Get returns (nil, nil) when the feed does not exist.
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	// FindByURLKey returns (nil, nil) when no feed has the key.
	FindByURLKey(ctx context.Context, key string) (*entity.Feed, error)
	// Create inserts the feed and sets its ID.
	Create(ctx context.Context, feed *entity.Feed) error
	// UpdateArticles replaces the article window of a feed in a single write.
	UpdateArticles(ctx context.Context, feedID int64, articleIDs []int64) error
}
