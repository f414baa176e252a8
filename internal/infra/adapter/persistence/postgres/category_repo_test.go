package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"feedhub/internal/infra/adapter/persistence/postgres"
)

func TestCategoryRepo_Exists(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := postgres.NewCategoryRepo(db).Exists(context.Background(), 3)
	if err != nil || !ok {
		t.Fatalf("Exists ok=%v err=%v", ok, err)
	}
}

func TestCategoryRepo_AttachFeed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO category_feeds`)).
		WithArgs(int64(3), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := postgres.NewCategoryRepo(db).AttachFeed(context.Background(), 3, 8); err != nil {
		t.Fatalf("AttachFeed err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFavoritesRepo_ListFavoriteArticleIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT article_id FROM user_favorites`)).
		WillReturnRows(sqlmock.NewRows([]string{"article_id"}).AddRow(int64(5)).AddRow(int64(8)))

	ids, err := postgres.NewFavoritesRepo(db).ListFavoriteArticleIDs(context.Background())
	if err != nil || len(ids) != 2 || ids[0] != 5 || ids[1] != 8 {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}
