package resolution

import (
	"strconv"
	"strings"

	"gotidy/domain/core"
	"gotidy/domain/table"
)

// FillPolicy turns a table with nulls into a cleaned table. Policies never
// mutate their input; each returns a new table. Which policy is right is a
// judgment about the data (absent because it does not exist, or because it was
// not recorded) that the caller makes.
type FillPolicy interface {
	Name() string
	Apply(t *table.Table) (*table.Table, error)
}

// Policy names accepted by ParsePolicy
const (
	PolicyDropRows         = "drop_rows"
	PolicyDropColumns      = "drop_columns"
	PolicyFillConstant     = "fill_constant"
	PolicyBackfill         = "backfill"
	PolicyBackfillThenFill = "backfill_then_fill"
)

// Resolve applies a policy to a table
func Resolve(t *table.Table, p FillPolicy) (*table.Table, error) {
	if t == nil {
		return nil, core.NewInvalidInputError("table is required")
	}
	if p == nil {
		return nil, core.NewInvalidInputError("fill policy is required")
	}
	return p.Apply(t)
}

// ParsePolicy builds a policy from its name. The constant is used by the
// fill_constant and backfill_then_fill policies and ignored by the others.
func ParsePolicy(name string, constant table.Value) (FillPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyDropRows:
		return DropRows{}, nil
	case PolicyDropColumns:
		return DropColumns{}, nil
	case PolicyFillConstant:
		return FillConstant{Value: constant}, nil
	case PolicyBackfill:
		return Backfill{}, nil
	case PolicyBackfillThenFill:
		return BackfillThenFillConstant{Value: constant}, nil
	}
	return nil, core.NewInvalidInputError("unknown fill policy %q", name)
}

// ConstantFromString reads a fill constant typed on a command line or in config:
// anything that parses as a float is numeric, everything else is text.
func ConstantFromString(s string) table.Value {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return table.NewNumericValue(f)
	}
	return table.NewTextValue(s)
}

// DropRows removes every row that holds a null in any column
type DropRows struct{}

func (DropRows) Name() string { return PolicyDropRows }

func (DropRows) Apply(t *table.Table) (*table.Table, error) {
	keep := make([]int, 0, t.Rows())
	for r := 0; r < t.Rows(); r++ {
		if !t.RowHasMissing(r) {
			keep = append(keep, r)
		}
	}

	columns := t.Columns()
	for i, col := range columns {
		values := make([]table.Value, len(keep))
		for j, r := range keep {
			values[j] = col.Values[r]
		}
		columns[i].Values = values
	}
	return table.NewWithRows(len(keep), columns...)
}

// DropColumns removes every column that holds at least one null
type DropColumns struct{}

func (DropColumns) Name() string { return PolicyDropColumns }

func (DropColumns) Apply(t *table.Table) (*table.Table, error) {
	var kept []table.Column
	for _, col := range t.Columns() {
		if !col.HasMissing() {
			kept = append(kept, col)
		}
	}
	return table.NewWithRows(t.Rows(), kept...)
}

// FillConstant replaces every null with Value. Where Value does not fit the
// column type the cell receives its text representation; a numeric column that
// receives text becomes a mixed column.
type FillConstant struct {
	Value table.Value
}

func (FillConstant) Name() string { return PolicyFillConstant }

func (p FillConstant) Apply(t *table.Table) (*table.Table, error) {
	if p.Value.IsMissing() {
		return nil, core.NewInvalidInputError("fill constant cannot be the missing marker")
	}
	columns := t.Columns()
	for i, col := range columns {
		columns[i] = fillConstant(col, p.Value)
	}
	return table.NewWithRows(t.Rows(), columns...)
}

// Backfill replaces each null with the next non-null value below it in the same
// column. Trailing nulls have nothing to copy and stay null.
type Backfill struct{}

func (Backfill) Name() string { return PolicyBackfill }

func (Backfill) Apply(t *table.Table) (*table.Table, error) {
	columns := t.Columns()
	for i, col := range columns {
		columns[i] = backfill(col)
	}
	return table.NewWithRows(t.Rows(), columns...)
}

// BackfillThenFillConstant backfills each column, then fills whatever nulls
// remain with Value exactly as FillConstant does. The order matters: the constant
// only lands where backfill had nothing to copy.
type BackfillThenFillConstant struct {
	Value table.Value
}

func (BackfillThenFillConstant) Name() string { return PolicyBackfillThenFill }

func (p BackfillThenFillConstant) Apply(t *table.Table) (*table.Table, error) {
	if p.Value.IsMissing() {
		return nil, core.NewInvalidInputError("fill constant cannot be the missing marker")
	}
	columns := t.Columns()
	for i, col := range columns {
		columns[i] = fillConstant(backfill(col), p.Value)
	}
	return table.NewWithRows(t.Rows(), columns...)
}

func backfill(col table.Column) table.Column {
	next := table.NewMissingValue()
	for r := len(col.Values) - 1; r >= 0; r-- {
		if col.Values[r].IsMissing() {
			col.Values[r] = next
			continue
		}
		next = col.Values[r]
	}
	return col
}

func fillConstant(col table.Column, v table.Value) table.Column {
	if !col.HasMissing() {
		return col
	}

	fill := v
	switch {
	case col.Type.Accepts(v):
	case col.Type == table.TypeText:
		fill = v.AsTextValue()
	default:
		fill = v.AsTextValue()
		col.Type = table.TypeMixed
	}

	for r, cell := range col.Values {
		if cell.IsMissing() {
			col.Values[r] = fill
		}
	}
	return col
}
