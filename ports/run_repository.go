package ports

import (
	"context"

	"gotidy/domain/core"
	"gotidy/domain/run"
)

// RunRepository stores one summary record per pipeline run
type RunRepository interface {
	Create(ctx context.Context, rec *run.Record) error
	GetByID(ctx context.Context, id core.RunID) (*run.Record, error)
	// List returns the newest runs first
	List(ctx context.Context, limit, offset int) ([]*run.Record, error)
	Delete(ctx context.Context, id core.RunID) error
}
