package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/db"
	"feedhub/internal/repository"
)

// ArticleRepo implements repository.ArticleRepository using SQLite.
type ArticleRepo struct{ db db.Querier }

// NewArticleRepo creates a new SQLite-backed article repository.
func NewArticleRepo(q db.Querier) repository.ArticleRepository {
	return &ArticleRepo{db: q}
}

const articleColumns = `id, url, title, description, media, published_at, author, created_at`

func (repo *ArticleRepo) Insert(ctx context.Context, article *entity.Article) (int64, error) {
	defer observe("articles_insert", time.Now())

	const query = `
INSERT INTO articles (url, title, description, media, published_at, author, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE SET url = excluded.url
RETURNING id`

	createdAt := article.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var media, published interface{}
	if article.Media != "" {
		media = article.Media
	}
	if article.Date != nil {
		published = toMicros(*article.Date)
	}
	author := article.Author
	if author == "" {
		author = entity.UnknownAuthor
	}

	var id int64
	err := repo.db.QueryRowContext(ctx, query,
		article.URL, article.Title, article.Description, media, published, author, toMicros(createdAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Insert: %w", err)
	}
	return id, nil
}

func (repo *ArticleRepo) FindByURLs(ctx context.Context, urls []string) (map[string]*entity.Article, error) {
	defer observe("articles_find_by_urls", time.Now())

	result := make(map[string]*entity.Article, len(urls))
	for _, part := range chunks(urls, maxParams) {
		query := `SELECT ` + articleColumns + ` FROM articles WHERE url IN (` + placeholders(len(part)) + `)`
		articles, err := repo.query(ctx, query, toArgs(part))
		if err != nil {
			return nil, fmt.Errorf("FindByURLs: %w", err)
		}
		for _, a := range articles {
			result[a.URL] = a
		}
	}
	return result, nil
}

func (repo *ArticleRepo) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Article, error) {
	defer observe("articles_find_by_ids", time.Now())

	result := make([]*entity.Article, 0, len(ids))
	for _, part := range chunks(ids, maxParams) {
		query := `SELECT ` + articleColumns + ` FROM articles WHERE id IN (` + placeholders(len(part)) + `)`
		articles, err := repo.query(ctx, query, toArgs(part))
		if err != nil {
			return nil, fmt.Errorf("FindByIDs: %w", err)
		}
		result = append(result, articles...)
	}
	return result, nil
}

func (repo *ArticleRepo) ListIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	defer observe("articles_list_ids", time.Now())

	rows, err := repo.db.QueryContext(ctx, `SELECT id FROM articles WHERE created_at < ?`, toMicros(cutoff))
	if err != nil {
		return nil, fmt.Errorf("ListIDsCreatedBefore: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "ListIDsCreatedBefore", make([]int64, 0, 256))
}

func (repo *ArticleRepo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	defer observe("articles_delete", time.Now())

	var total int64
	for _, part := range chunks(ids, maxParams) {
		res, err := repo.db.ExecContext(ctx,
			`DELETE FROM articles WHERE id IN (`+placeholders(len(part))+`)`, toArgs(part)...)
		if err != nil {
			return total, fmt.Errorf("DeleteByIDs: ExecContext: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("DeleteByIDs: RowsAffected: %w", err)
		}
		total += n
	}
	return total, nil
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *ArticleRepo) query(ctx context.Context, query string, args []interface{}) ([]*entity.Article, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, len(args))
	for rows.Next() {
		var (
			article   entity.Article
			media     sql.NullString
			published sql.NullInt64
			created   int64
		)
		if err := rows.Scan(&article.ID, &article.URL, &article.Title, &article.Description,
			&media, &published, &article.Author, &created); err != nil {
			return nil, fmt.Errorf("Scan: %w", err)
		}
		article.Media = media.String
		if published.Valid {
			t := fromMicros(published.Int64)
			article.Date = &t
		}
		article.CreatedAt = fromMicros(created)
		articles = append(articles, &article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return articles, nil
}
