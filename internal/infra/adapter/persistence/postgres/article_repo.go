// Package postgres provides PostgreSQL implementations of the repository
// interfaces. Array parameters are bound with lib/pq array adapters so that a
// set lookup is a single round trip.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/db"
	"feedhub/internal/observability/metrics"
	"feedhub/internal/repository"
)

// ArticleRepo implements repository.ArticleRepository.
type ArticleRepo struct{ db db.Querier }

// NewArticleRepo creates a new PostgreSQL-backed article repository.
func NewArticleRepo(q db.Querier) repository.ArticleRepository {
	return &ArticleRepo{db: q}
}

const articleColumns = `id, url, title, description, media, published_at, author, created_at`

// Insert stores the article, or returns the id of the article already stored
// under the same URL. The conflict branch performs a no-op update so that
// RETURNING yields the existing row.
func (repo *ArticleRepo) Insert(ctx context.Context, article *entity.Article) (int64, error) {
	defer observe("articles_insert", time.Now())

	const query = `
INSERT INTO articles (url, title, description, media, published_at, author, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
RETURNING id`

	createdAt := article.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := repo.db.QueryRowContext(ctx, query,
		article.URL, article.Title, article.Description,
		nullString(article.Media), nullTime(article.Date),
		authorOrUnknown(article.Author), createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Insert: %w", err)
	}
	return id, nil
}

func (repo *ArticleRepo) FindByURLs(ctx context.Context, urls []string) (map[string]*entity.Article, error) {
	result := make(map[string]*entity.Article, len(urls))
	if len(urls) == 0 {
		return result, nil
	}
	defer observe("articles_find_by_urls", time.Now())

	query := `SELECT ` + articleColumns + ` FROM articles WHERE url = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("FindByURLs: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("FindByURLs: Scan: %w", err)
		}
		result[article.URL] = article
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindByURLs: rows.Err: %w", err)
	}
	return result, nil
}

func (repo *ArticleRepo) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Article, error) {
	if len(ids) == 0 {
		return []*entity.Article{}, nil
	}
	defer observe("articles_find_by_ids", time.Now())

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("FindByIDs: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, len(ids))
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("FindByIDs: Scan: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindByIDs: rows.Err: %w", err)
	}
	return articles, nil
}

func (repo *ArticleRepo) ListIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	defer observe("articles_list_ids", time.Now())

	const query = `SELECT id FROM articles WHERE created_at < $1`
	rows, err := repo.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("ListIDsCreatedBefore: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "ListIDsCreatedBefore")
}

func (repo *ArticleRepo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observe("articles_delete", time.Now())

	const query = `DELETE FROM articles WHERE id = ANY($1)`
	res, err := repo.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("DeleteByIDs: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteByIDs: RowsAffected: %w", err)
	}
	return n, nil
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*entity.Article, error) {
	var (
		article entity.Article
		media   sql.NullString
		date    sql.NullTime
	)
	if err := row.Scan(&article.ID, &article.URL, &article.Title, &article.Description,
		&media, &date, &article.Author, &article.CreatedAt); err != nil {
		return nil, err
	}
	article.Media = media.String
	if date.Valid {
		t := date.Time
		article.Date = &t
	}
	return &article, nil
}

func scanIDs(rows *sql.Rows, op string) ([]int64, error) {
	ids := make([]int64, 0, 256)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows.Err: %w", op, err)
	}
	return ids, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func authorOrUnknown(author string) string {
	if author == "" {
		return entity.UnknownAuthor
	}
	return author
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}
