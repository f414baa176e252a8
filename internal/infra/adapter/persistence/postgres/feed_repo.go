package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/db"
	"feedhub/internal/repository"
)

// FeedRepo implements repository.FeedRepository.
// The article window is a BIGINT[] column so that replacing it is one UPDATE.
type FeedRepo struct{ db db.Querier }

// NewFeedRepo creates a new PostgreSQL-backed feed repository.
func NewFeedRepo(q db.Querier) repository.FeedRepository {
	return &FeedRepo{db: q}
}

const feedColumns = `id, url, url_key, name, default_media, article_ids`

func (repo *FeedRepo) List(ctx context.Context) ([]*entity.Feed, error) {
	defer observe("feeds_list", time.Now())

	rows, err := repo.db.QueryContext(ctx, `SELECT `+feedColumns+` FROM feeds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 64)
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows.Err: %w", err)
	}
	return feeds, nil
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = $1`, id)
	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) FindByURLKey(ctx context.Context, key string) (*entity.Feed, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE url_key = $1`, key)
	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByURLKey: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	const query = `
INSERT INTO feeds (url, url_key, name, default_media, article_ids)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url_key) DO NOTHING
RETURNING id`

	ids := feed.ArticleIDs
	if ids == nil {
		ids = []int64{}
	}
	err := repo.db.QueryRowContext(ctx, query,
		feed.URL, feed.URLKey, feed.Name, feed.DefaultMedia, pq.Array(ids),
	).Scan(&feed.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrDuplicateFeed
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *FeedRepo) UpdateArticles(ctx context.Context, feedID int64, articleIDs []int64) error {
	defer observe("feeds_update_articles", time.Now())

	if articleIDs == nil {
		articleIDs = []int64{}
	}
	const query = `UPDATE feeds SET article_ids = $1, updated_at = now() WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, pq.Array(articleIDs), feedID)
	if err != nil {
		return fmt.Errorf("UpdateArticles: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateArticles: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateArticles: feed %d: %w", feedID, entity.ErrNotFound)
	}
	return nil
}

func scanFeed(row rowScanner) (*entity.Feed, error) {
	var (
		feed entity.Feed
		ids  pq.Int64Array
	)
	if err := row.Scan(&feed.ID, &feed.URL, &feed.URLKey, &feed.Name, &feed.DefaultMedia, &ids); err != nil {
		return nil, err
	}
	feed.ArticleIDs = []int64(ids)
	if feed.ArticleIDs == nil {
		feed.ArticleIDs = []int64{}
	}
	return &feed, nil
}
