package repository

import "context"

// FavoritesRepository is a read-only view over every user's favorites.
type FavoritesRepository interface {
	// ListFavoriteArticleIDs returns the union of all users' favorite article ids.
	ListFavoriteArticleIDs(ctx context.Context) ([]int64, error)
}
