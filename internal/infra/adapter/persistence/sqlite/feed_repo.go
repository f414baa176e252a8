package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/db"
	"feedhub/internal/repository"
)

// FeedRepo implements repository.FeedRepository using SQLite.
// The article window is a JSON array in a single column so that replacing it
// is one UPDATE.
type FeedRepo struct{ db db.Querier }

// NewFeedRepo creates a new SQLite-backed feed repository.
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
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) FindByURLKey(ctx context.Context, key string) (*entity.Feed, error) {
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE url_key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByURLKey: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	ids, err := encodeIDs(feed.ArticleIDs)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	const query = `
INSERT INTO feeds (url, url_key, name, default_media, article_ids, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (url_key) DO NOTHING
RETURNING id`

	err = repo.db.QueryRowContext(ctx, query,
		feed.URL, feed.URLKey, feed.Name, feed.DefaultMedia, ids, toMicros(time.Now()),
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

	ids, err := encodeIDs(articleIDs)
	if err != nil {
		return fmt.Errorf("UpdateArticles: %w", err)
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE feeds SET article_ids = ?, updated_at = ? WHERE id = ?`, ids, toMicros(time.Now()), feedID)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeed(row rowScanner) (*entity.Feed, error) {
	var (
		feed entity.Feed
		ids  string
	)
	if err := row.Scan(&feed.ID, &feed.URL, &feed.URLKey, &feed.Name, &feed.DefaultMedia, &ids); err != nil {
		return nil, err
	}
	feed.ArticleIDs = []int64{}
	if ids != "" {
		if err := json.Unmarshal([]byte(ids), &feed.ArticleIDs); err != nil {
			return nil, fmt.Errorf("decode article_ids of feed %d: %w", feed.ID, err)
		}
	}
	return &feed, nil
}

func encodeIDs(ids []int64) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
