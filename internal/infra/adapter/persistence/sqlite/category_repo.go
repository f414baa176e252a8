package sqlite

import (
	"context"
	"fmt"
	"time"

	"feedhub/internal/infra/db"
	"feedhub/internal/repository"
)

// CategoryRepo implements repository.CategoryRepository using SQLite.
type CategoryRepo struct{ db db.Querier }

func NewCategoryRepo(q db.Querier) repository.CategoryRepository {
	return &CategoryRepo{db: q}
}

func (repo *CategoryRepo) Exists(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	err := repo.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = ?)`, categoryID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}

func (repo *CategoryRepo) AttachFeed(ctx context.Context, categoryID, feedID int64) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO category_feeds (category_id, feed_id) VALUES (?, ?)`, categoryID, feedID)
	if err != nil {
		return fmt.Errorf("AttachFeed: %w", err)
	}
	return nil
}

// FavoritesRepo implements repository.FavoritesRepository using SQLite.
type FavoritesRepo struct{ db db.Querier }

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

	return scanIDs(rows, "ListFavoriteArticleIDs", make([]int64, 0, 64))
}
