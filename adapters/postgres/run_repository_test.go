package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gotidy/domain/core"
	"gotidy/domain/run"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleRecord(id string, at time.Time) *run.Record {
	return &run.Record{
		ID:             core.RunID(id),
		Source:         "hr.csv",
		CreatedAt:      at,
		Rows:           4,
		Columns:        3,
		TotalCells:     12,
		TotalMissing:   3,
		PercentMissing: 25,
		Policy:         "backfill_then_fill",
		Fingerprint:    "abc",
		ScaledColumn:   ptr("salary"),
		ScaledMin:      ptr(1.0),
		ScaledMax:      ptr(10.0),
		Lambda:         ptr(0.27),
		DateColumn:     ptr("hire_date"),
		FailureRows:    []int{2, 5},
	}
}

var runRowColumns = []string{
	"id", "source", "created_at", "row_count", "column_count", "total_cells", "total_missing",
	"percent_missing", "policy", "fingerprint", "scaled_column", "scaled_min", "scaled_max", "degenerate",
	"lambda", "date_column", "failure_rows",
}

func TestRunRepository_CreatePostgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewRunRepository(sqlx.NewDb(mockDB, "postgres"))

	rec := sampleRecord("r1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	mock.ExpectExec(`INSERT INTO cleaning_runs .* VALUES \( \$1, \$2, .* \$17 \)`).
		WithArgs("r1", "hr.csv", rec.CreatedAt, 4, 3, 12, 3, 25.0, "backfill_then_fill", "abc",
			"salary", 1.0, 10.0, false, 0.27, "hire_date", "{2,5}").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_CreateRejectsEmptyID(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewRunRepository(sqlx.NewDb(mockDB, "postgres"))

	err = repo.Create(context.Background(), &run.Record{})
	assert.True(t, core.IsInvalidInputError(err))
}

func TestRunRepository_GetByIDPostgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewRunRepository(sqlx.NewDb(mockDB, "postgres"))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM cleaning_runs WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(runRowColumns).AddRow(
			"r1", "hr.csv", at, 4, 3, 12, 3, 25.0, "drop_rows", "abc",
			nil, nil, nil, true, nil, nil, "{7}"))

	rec, err := repo.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, core.RunID("r1"), rec.ID)
	assert.Equal(t, "drop_rows", rec.Policy)
	assert.Nil(t, rec.ScaledMin)
	assert.Nil(t, rec.Lambda)
	assert.True(t, rec.Degenerate)
	assert.Equal(t, []int{7}, rec.FailureRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_GetByIDNotFound(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewRunRepository(sqlx.NewDb(mockDB, "postgres"))

	mock.ExpectQuery(`SELECT .* FROM cleaning_runs`).WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, core.IsNotFoundError(err))
}

func TestRunRepository_ListAndDeleteErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewRunRepository(sqlx.NewDb(mockDB, "postgres"))

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnError(errors.New("connection reset"))
	_, err = repo.List(context.Background(), 0, -1)
	assert.ErrorContains(t, err, "failed to query runs")

	mock.ExpectExec(`DELETE FROM cleaning_runs WHERE id = \$1`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Delete(context.Background(), "gone")
	assert.True(t, core.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRunRepository(db)

	older := sampleRecord("r-old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := &run.Record{
		ID:          "r-new",
		Source:      "sales.xlsx",
		CreatedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Policy:      "drop_columns",
		Fingerprint: "def",
	}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.GetByID(ctx, "r-old")
	require.NoError(t, err)
	assert.Equal(t, older.Source, got.Source)
	assert.True(t, older.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, older.FailureRows, got.FailureRows)
	require.NotNil(t, got.Lambda)
	assert.InDelta(t, 0.27, *got.Lambda, 1e-12)
	assert.Equal(t, "salary", *got.ScaledColumn)

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, core.RunID("r-new"), list[0].ID)
	assert.Empty(t, list[0].FailureRows)
	assert.Nil(t, list[0].ScaledMin)

	require.NoError(t, repo.Delete(ctx, "r-old"))
	_, err = repo.GetByID(ctx, "r-old")
	assert.True(t, core.IsNotFoundError(err))
}
