package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gotidy/domain/core"
	"gotidy/domain/run"
	"gotidy/internal/migration"
	"gotidy/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const runColumns = `id, source, created_at, row_count, column_count, total_cells, total_missing,
	percent_missing, policy, fingerprint, scaled_column, scaled_min, scaled_max, degenerate,
	lambda, date_column, failure_rows`

// runRepository implements ports.RunRepository over postgres or sqlite.
// Queries are written with ? placeholders and rebound for the driver.
type runRepository struct {
	db       *sqlx.DB
	postgres bool
}

// NewRunRepository creates a run repository for db's driver
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db, postgres: migration.IsPostgres(db)}
}

// Create inserts a run record
func (r *runRepository) Create(ctx context.Context, rec *run.Record) error {
	if rec.ID.String() == "" {
		return core.NewInvalidInputError("run record has no id")
	}
	failures, err := r.encodeFailureRows(rec.FailureRows)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`INSERT INTO cleaning_runs (` + runColumns + `) VALUES (
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	)`)

	_, err = r.db.ExecContext(ctx, query,
		rec.ID.String(), rec.Source, rec.CreatedAt.UTC(), rec.Rows, rec.Columns, rec.TotalCells, rec.TotalMissing,
		rec.PercentMissing, rec.Policy, rec.Fingerprint, nullString(rec.ScaledColumn), nullFloat(rec.ScaledMin),
		nullFloat(rec.ScaledMax), rec.Degenerate, nullFloat(rec.Lambda), nullString(rec.DateColumn), failures,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetByID retrieves a run record by its ID
func (r *runRepository) GetByID(ctx context.Context, id core.RunID) (*run.Record, error) {
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM cleaning_runs WHERE id = ?`)

	rec, err := r.scan(r.db.QueryRowxContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// List returns runs newest first
func (r *runRepository) List(ctx context.Context, limit, offset int) ([]*run.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM cleaning_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*run.Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

// Delete removes a run record
func (r *runRepository) Delete(ctx context.Context, id core.RunID) error {
	query := r.db.Rebind(`DELETE FROM cleaning_runs WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return core.NewNotFoundError("run", id.String())
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *runRepository) scan(row rowScanner) (*run.Record, error) {
	var (
		rec          run.Record
		id           string
		scaledColumn sql.NullString
		dateColumn   sql.NullString
		scaledMin    sql.NullFloat64
		scaledMax    sql.NullFloat64
		lambda       sql.NullFloat64
		pgFailures   pq.Int64Array
		textFailures sql.NullString
	)

	var failures interface{} = &textFailures
	if r.postgres {
		failures = &pgFailures
	}

	err := row.Scan(
		&id, &rec.Source, &rec.CreatedAt, &rec.Rows, &rec.Columns, &rec.TotalCells, &rec.TotalMissing,
		&rec.PercentMissing, &rec.Policy, &rec.Fingerprint, &scaledColumn, &scaledMin, &scaledMax, &rec.Degenerate,
		&lambda, &dateColumn, failures,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = core.RunID(id)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ScaledColumn = stringPtr(scaledColumn)
	rec.DateColumn = stringPtr(dateColumn)
	rec.ScaledMin = floatPtr(scaledMin)
	rec.ScaledMax = floatPtr(scaledMax)
	rec.Lambda = floatPtr(lambda)

	rec.FailureRows = []int{}
	if r.postgres {
		for _, v := range pgFailures {
			rec.FailureRows = append(rec.FailureRows, int(v))
		}
	} else if textFailures.Valid && textFailures.String != "" {
		if err := json.Unmarshal([]byte(textFailures.String), &rec.FailureRows); err != nil {
			return nil, fmt.Errorf("failed to decode failure rows: %w", err)
		}
	}
	return &rec, nil
}

// encodeFailureRows stores row indexes as an INTEGER[] on postgres and as a
// JSON array in sqlite's TEXT column.
func (r *runRepository) encodeFailureRows(rows []int) (interface{}, error) {
	if r.postgres {
		out := make(pq.Int64Array, len(rows))
		for i, v := range rows {
			out[i] = int64(v)
		}
		return out, nil
	}
	if rows == nil {
		rows = []int{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode failure rows: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
