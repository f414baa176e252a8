package postgres

import (
	"context"
	"fmt"
	"time"

	"feedhub/internal/infra/db"
	"feedhub/internal/repository"
)

// FavoritesRepo implements repository.FavoritesRepository.
type FavoritesRepo struct{ db db.Querier }

// NewFavoritesRepo creates a new PostgreSQL-backed favorites view.
func NewFavoritesRepo(q db.Querier) repository.FavoritesRepository {
	return &FavoritesRepo{db: q}
}

func (repo *FavoritesRepo) ListFavoriteArticleIDs(ctx context.Context) ([]int64, error) {
	defer observe("favorites_list_ids", time.Now())

	rows, err := repo.db.QueryContext(ctx, `SELECT DISTINCT article_id FROM user_favorites`)
	if err != nil {
		return nil, fmt.Errorf("ListFavoriteArticleIDs: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "ListFavoriteArticleIDs")
}
