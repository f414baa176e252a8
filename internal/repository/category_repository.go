package repository

import "context"

// CategoryRepository is the part of the category store the engine depends on.
type CategoryRepository interface {
	Exists(ctx context.Context, categoryID int64) (bool, error)
	// AttachFeed adds the feed to the category. Attaching twice is a no-op.
	AttachFeed(ctx context.Context, categoryID, feedID int64) error
}
