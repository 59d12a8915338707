package migration

import (
	"context"

	"gotidy/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run store schema. Statements differ only where
// postgres and sqlite disagree on column types.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createCleaningRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create cleaning_runs table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

// IsPostgres reports whether db talks to postgres rather than sqlite
func IsPostgres(db *sqlx.DB) bool {
	return db.DriverName() == "postgres" || db.DriverName() == "pgx"
}

func (r *MigrationRunner) createCleaningRunsTable(ctx context.Context, db *sqlx.DB) error {
	failureRows := "TEXT NOT NULL DEFAULT '[]'"
	createdAt := "TIMESTAMP NOT NULL"
	if IsPostgres(db) {
		failureRows = "INTEGER[] NOT NULL DEFAULT '{}'"
		createdAt = "TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()"
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cleaning_runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			created_at `+createdAt+`,
			row_count INTEGER NOT NULL,
			column_count INTEGER NOT NULL,
			total_cells INTEGER NOT NULL,
			total_missing INTEGER NOT NULL,
			percent_missing DOUBLE PRECISION NOT NULL,
			policy TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			scaled_column TEXT,
			scaled_min DOUBLE PRECISION,
			scaled_max DOUBLE PRECISION,
			degenerate BOOLEAN NOT NULL DEFAULT FALSE,
			lambda DOUBLE PRECISION,
			date_column TEXT,
			failure_rows `+failureRows+`
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cleaning_runs_created_at ON cleaning_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cleaning_runs_source ON cleaning_runs(source)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			return err
		}
	}
	return nil
}
