package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"

	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/adapter/persistence/postgres"
)

/* ──────────────────────────────── helpers ──────────────────────────────── */

var articleCols = []string{"id", "url", "title", "description", "media", "published_at", "author", "created_at"}

func articleRows(articles ...*entity.Article) *sqlmock.Rows {
	rows := sqlmock.NewRows(articleCols)
	for _, a := range articles {
		var media, date interface{}
		if a.Media != "" {
			media = a.Media
		}
		if a.Date != nil {
			date = *a.Date
		}
		rows.AddRow(a.ID, a.URL, a.Title, a.Description, media, date, a.Author, a.CreatedAt)
	}
	return rows
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

/* ──────────────────────────────── 1. Insert ──────────────────────────────── */

func TestArticleRepo_Insert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles`)).
		WithArgs("https://ex.com/a", "A", "text", nil, nil, entity.UnknownAuthor, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	repo := postgres.NewArticleRepo(db)
	id, err := repo.Insert(context.Background(), &entity.Article{
		URL: "https://ex.com/a", Title: "A", Description: "text",
	})
	if err != nil {
		t.Fatalf("Insert err=%v", err)
	}
	if id != 11 {
		t.Fatalf("id=%d, want 11", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Insert_ConflictReturnsExistingID(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	date := ts("2024-05-01T10:00:00Z")
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url`)).
		WithArgs("https://ex.com/a", "A", "", "https://ex.com/a.png", *date, "Jane", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	repo := postgres.NewArticleRepo(db)
	id, err := repo.Insert(context.Background(), &entity.Article{
		URL: "https://ex.com/a", Title: "A", Media: "https://ex.com/a.png", Date: date, Author: "Jane",
	})
	if err != nil || id != 3 {
		t.Fatalf("Insert id=%d err=%v", id, err)
	}
}

func TestArticleRepo_Insert_Error(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles`)).WillReturnError(dbErr)

	_, err := postgres.NewArticleRepo(db).Insert(context.Background(), &entity.Article{URL: "u"})
	if !errors.Is(err, dbErr) {
		t.Fatalf("want wrapped db error, got %v", err)
	}
}

/* ──────────────────────────────── 2. FindByURLs ──────────────────────────────── */

func TestArticleRepo_FindByURLs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := &entity.Article{ID: 1, URL: "https://ex.com/a", Title: "A", Author: "Unknown", Date: ts("2024-04-30T08:00:00Z"), CreatedAt: created}
	b := &entity.Article{ID: 2, URL: "https://ex.com/b", Title: "B", Author: "Bob", Media: "https://ex.com/b.jpg", CreatedAt: created}

	urls := []string{"https://ex.com/a", "https://ex.com/b", "https://ex.com/c"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM articles WHERE url = ANY($1)`)).
		WithArgs(pq.Array(urls)).
		WillReturnRows(articleRows(a, b))

	got, err := postgres.NewArticleRepo(db).FindByURLs(context.Background(), urls)
	if err != nil {
		t.Fatalf("FindByURLs err=%v", err)
	}
	want := map[string]*entity.Article{a.URL: a, b.URL: b}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_FindByURLs_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	got, err := postgres.NewArticleRepo(db).FindByURLs(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ──────────────────────────────── 3. FindByIDs ──────────────────────────────── */

func TestArticleRepo_FindByIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := &entity.Article{ID: 5, URL: "https://ex.com/5", Author: "Unknown", CreatedAt: created}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM articles WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]int64{5, 6})).
		WillReturnRows(articleRows(a))

	got, err := postgres.NewArticleRepo(db).FindByIDs(context.Background(), []int64{5, 6})
	if err != nil {
		t.Fatalf("FindByIDs err=%v", err)
	}
	if diff := cmp.Diff([]*entity.Article{a}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

/* ──────────────────────────────── 4. GC queries ──────────────────────────────── */

func TestArticleRepo_ListIDsCreatedBefore(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	cutoff := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM articles WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(9))

	got, err := postgres.NewArticleRepo(db).ListIDsCreatedBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ListIDsCreatedBefore err=%v", err)
	}
	if diff := cmp.Diff([]int64{1, 2, 9}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestArticleRepo_DeleteByIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM articles WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]int64{4, 7})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := postgres.NewArticleRepo(db).DeleteByIDs(context.Background(), []int64{4, 7})
	if err != nil || n != 2 {
		t.Fatalf("DeleteByIDs n=%d err=%v", n, err)
	}
}

func TestArticleRepo_DeleteByIDs_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	n, err := postgres.NewArticleRepo(db).DeleteByIDs(context.Background(), []int64{})
	if err != nil || n != 0 {
		t.Fatalf("DeleteByIDs n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Count(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM articles`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := postgres.NewArticleRepo(db).Count(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("Count n=%d err=%v", n, err)
	}
}
