package table

import (
	"fmt"

	"gotidy/domain/core"
)

// ColumnType is the declared type of a column
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeText    ColumnType = "text"
	// TypeMixed holds cells of any type. It only arises when a text constant
	// is filled into a numeric column.
	TypeMixed ColumnType = "mixed"
)

// ParseColumnType converts a declared type name
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(s) {
	case TypeNumeric, TypeText, TypeMixed:
		return ColumnType(s), nil
	}
	return "", core.NewInvalidInputError("unknown column type %q", s)
}

// Accepts reports whether a cell may be stored in a column of this type.
func (t ColumnType) Accepts(v Value) bool {
	if v.IsMissing() {
		return true
	}
	switch t {
	case TypeNumeric:
		return v.IsNumeric()
	case TypeText:
		return v.IsText()
	case TypeMixed:
		return true
	}
	return false
}

// Column is a named, ordered sequence of cells of one declared type
type Column struct {
	Name   string     `json:"name"`
	Type   ColumnType `json:"type"`
	Values []Value    `json:"values"`
}

// NewNumericColumn builds a numeric column; nil entries are missing.
func NewNumericColumn(name string, values ...*float64) Column {
	cells := make([]Value, len(values))
	for i, v := range values {
		if v == nil {
			cells[i] = NewMissingValue()
			continue
		}
		cells[i] = NewNumericValue(*v)
	}
	return Column{Name: name, Type: TypeNumeric, Values: cells}
}

// NewTextColumn builds a text column; nil entries are missing.
func NewTextColumn(name string, values ...*string) Column {
	cells := make([]Value, len(values))
	for i, v := range values {
		if v == nil {
			cells[i] = NewMissingValue()
			continue
		}
		cells[i] = NewTextValue(*v)
	}
	return Column{Name: name, Type: TypeText, Values: cells}
}

// Float and Text return pointers for the column constructors.
func Float(f float64) *float64 { return &f }
func Text(s string) *string    { return &s }

// Len returns the number of cells
func (c Column) Len() int {
	return len(c.Values)
}

// MissingCount counts cells equal to the null marker
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// HasMissing reports whether any cell is the null marker
func (c Column) HasMissing() bool {
	for _, v := range c.Values {
		if v.IsMissing() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	values := make([]Value, len(c.Values))
	for i, v := range c.Values {
		values[i] = v.clone()
	}
	return Column{Name: c.Name, Type: c.Type, Values: values}
}

// Floats extracts a numeric sample. Missing or non-numeric cells are rejected
// because scaling and normalization do not accept nulls.
func (c Column) Floats() ([]float64, error) {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if !v.IsNumeric() {
			return nil, core.NewInvalidInputError("column %q row %d is %s, expected a number", c.Name, i, v.Type)
		}
		out[i] = *v.NumericVal
	}
	return out, nil
}

// Strings returns the text of each cell; ok[i] is false where the cell is missing.
func (c Column) Strings() (values []string, ok []bool) {
	values = make([]string, len(c.Values))
	ok = make([]bool, len(c.Values))
	for i, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		values[i] = v.String()
		ok[i] = true
	}
	return values, ok
}

func (c Column) validate() error {
	if c.Name == "" {
		return core.NewInvalidInputError("column name cannot be empty")
	}
	if _, err := ParseColumnType(string(c.Type)); err != nil {
		return fmt.Errorf("column %q: %w", c.Name, err)
	}
	for i, v := range c.Values {
		if !c.Type.Accepts(v) {
			return core.NewInvalidInputError("column %q is %s but row %d holds a %s value", c.Name, c.Type, i, v.Type)
		}
	}
	return nil
}

func (v Value) clone() Value {
	switch {
	case v.IsNumeric():
		return NewNumericValue(*v.NumericVal)
	case v.IsText():
		return NewTextValue(*v.TextVal)
	}
	return NewMissingValue()
}
