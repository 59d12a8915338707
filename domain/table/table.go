package table

import (
	"gotidy/domain/core"
)

// Table is an ordered collection of named columns of equal length. A Table is
// immutable once built: every accessor hands out copies.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// Schema maps column names to declared types, in column order
type Schema []Field

// Field is one entry of a Schema
type Field struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// New validates and builds a table. Mismatched column lengths are a shape error;
// duplicate names or cells that disagree with their column type are invalid input.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, col := range columns {
		if err := col.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, core.NewInvalidInputError("duplicate column name %q", col.Name)
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, core.NewShapeError(col.Name, t.rows, col.Len())
		}
		t.index[col.Name] = i
		t.columns[i] = col.Clone()
	}

	return t, nil
}

// NewWithRows is New for a table whose row count is known up front. Every column
// must have exactly rows cells; with no columns the table still remembers rows,
// which is what dropping every column of a table produces.
func NewWithRows(rows int, columns ...Column) (*Table, error) {
	if rows < 0 {
		return nil, core.NewInvalidInputError("row count %d is negative", rows)
	}
	if len(columns) == 0 {
		return &Table{index: map[string]int{}, rows: rows}, nil
	}
	if columns[0].Len() != rows {
		return nil, core.NewShapeError(columns[0].Name, rows, columns[0].Len())
	}
	return New(columns...)
}

// MustNew is New for fixtures known to be valid; it panics on error.
func MustNew(columns ...Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Rows returns the row count
func (t *Table) Rows() int {
	return t.rows
}

// NumColumns returns the column count
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Shape returns (rows, columns)
func (t *Table) Shape() (int, int) {
	return t.rows, len(t.columns)
}

// Names returns column names in declared order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Schema returns the declared schema
func (t *Table) Schema() Schema {
	schema := make(Schema, len(t.columns))
	for i, c := range t.columns {
		schema[i] = Field{Name: c.Name, Type: c.Type}
	}
	return schema
}

// Column returns a copy of the named column
func (t *Table) Column(name string) (Column, error) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, core.NewInvalidInputError("no column named %q", name)
	}
	return t.columns[i].Clone(), nil
}

// Columns returns copies of all columns in order
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Clone()
	}
	return out
}

// Cell returns the value at (row, column name)
func (t *Table) Cell(row int, name string) (Value, error) {
	i, ok := t.index[name]
	if !ok {
		return Value{}, core.NewInvalidInputError("no column named %q", name)
	}
	if row < 0 || row >= t.rows {
		return Value{}, core.NewInvalidInputError("row %d out of range [0,%d)", row, t.rows)
	}
	return t.columns[i].Values[row].clone(), nil
}

// Row returns the cells of one row in column order
func (t *Table) Row(row int) ([]Value, error) {
	if row < 0 || row >= t.rows {
		return nil, core.NewInvalidInputError("row %d out of range [0,%d)", row, t.rows)
	}
	out := make([]Value, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Values[row].clone()
	}
	return out, nil
}

// RowHasMissing reports whether any cell of the row is the null marker
func (t *Table) RowHasMissing(row int) bool {
	for _, c := range t.columns {
		if c.Values[row].IsMissing() {
			return true
		}
	}
	return false
}

// Equal reports whether two tables have the same schema and cells
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i, c := range t.columns {
		oc := o.columns[i]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for r := range c.Values {
			if !c.Values[r].Equal(oc.Values[r]) {
				return false
			}
		}
	}
	return true
}
