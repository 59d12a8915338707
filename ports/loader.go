package ports

import (
	"context"

	"gotidy/domain/table"
)

// TableLoader reads a source (a file path) into a typed table
type TableLoader interface {
	Load(ctx context.Context, source string) (*table.Table, error)
}
