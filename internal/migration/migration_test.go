package migration

import (
	"context"
	"errors"
	"testing"

	apperrors "gotidy/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T, driver string) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, driver), mock
}

func TestRun_Postgres(t *testing.T) {
	db, mock := newMock(t, "postgres")

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cleaning_runs .*failure_rows INTEGER\[\]`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_cleaning_runs_created_at`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_cleaning_runs_source`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewRunner().Run(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_SQLite(t *testing.T) {
	db, mock := newMock(t, "sqlite")
	assert.False(t, IsPostgres(db))

	mock.ExpectExec(`failure_rows TEXT NOT NULL`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewRunner().Run(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_Failure(t *testing.T) {
	db, mock := newMock(t, "postgres")
	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("permission denied"))

	err := NewRunner().Run(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
	assert.Equal(t, "1.0.0", NewRunner().Version())
}
