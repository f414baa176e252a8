package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, table := range []string{"users", "feeds", "articles", "categories", "category_feeds", "user_favorites"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table + " ").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_created_at").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_user_favorites_article_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, MigrateUp(context.Background(), db, DialectPostgres))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS feeds").
		WillReturnError(sql.ErrConnDone)

	err = MigrateUp(context.Background(), db, DialectPostgres)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_UnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Error(t, MigrateUp(context.Background(), db, Dialect("mysql")))
}

func TestMigrateUp_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, dialect, err := Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Equal(t, DialectSQLite, dialect)
	require.NoError(t, MigrateUp(ctx, conn, dialect))
	require.NoError(t, MigrateUp(ctx, conn, dialect))

	var n int
	err = conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('feeds', 'articles', 'user_favorites')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, MigrateDown(ctx, conn))
}
