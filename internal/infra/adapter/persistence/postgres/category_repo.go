package postgres

import (
	"context"
	"fmt"

	"feedhub/internal/infra/db"
	"feedhub/internal/repository"
)

// CategoryRepo implements repository.CategoryRepository.
type CategoryRepo struct{ db db.Querier }

// NewCategoryRepo creates a new PostgreSQL-backed category repository.
func NewCategoryRepo(q db.Querier) repository.CategoryRepository {
	return &CategoryRepo{db: q}
}

func (repo *CategoryRepo) Exists(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	err := repo.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, categoryID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}

func (repo *CategoryRepo) AttachFeed(ctx context.Context, categoryID, feedID int64) error {
	const query = `
INSERT INTO category_feeds (category_id, feed_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, categoryID, feedID); err != nil {
		return fmt.Errorf("AttachFeed: %w", err)
	}
	return nil
}
