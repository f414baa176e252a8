package repository

import (
	"context"
	"time"

	"feedhub/internal/domain/entity"
)

// ArticleRepository stores articles. Articles are never updated after insert.
type ArticleRepository interface {
	// Insert stores a new article and returns its id. When an article with the
	// same URL already exists the existing id is returned and nothing changes.
	Insert(ctx context.Context, article *entity.Article) (int64, error)
	// FindByURLs returns the stored articles whose URL is in urls, keyed by URL.
	FindByURLs(ctx context.Context, urls []string) (map[string]*entity.Article, error)
	// FindByIDs returns the stored articles whose id is in ids. Missing ids are
	// skipped and the result order is unspecified.
	FindByIDs(ctx context.Context, ids []int64) ([]*entity.Article, error)
	// ListIDsCreatedBefore returns the id of every article created before cutoff.
	ListIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
	// DeleteByIDs removes the given articles and reports how many were deleted.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}
