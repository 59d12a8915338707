package table

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueType defines the storage type of a single cell
type ValueType string

const (
	ValueTypeNumeric ValueType = "numeric"
	ValueTypeText    ValueType = "text"
	ValueTypeMissing ValueType = "missing"
)

// Value is a nullable cell. The missing marker is its own type, so a numeric NaN
// and an empty string are both ordinary present values.
type Value struct {
	Type       ValueType `json:"type"`
	NumericVal *float64  `json:"numeric_val,omitempty"`
	TextVal    *string   `json:"text_val,omitempty"`
}

// NewNumericValue creates a numeric value
func NewNumericValue(n float64) Value {
	return Value{Type: ValueTypeNumeric, NumericVal: &n}
}

// NewTextValue creates a text value
func NewTextValue(s string) Value {
	return Value{Type: ValueTypeText, TextVal: &s}
}

// NewMissingValue creates the null marker
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing}
}

// IsMissing reports whether v is the null marker. The zero Value counts as missing.
func (v Value) IsMissing() bool {
	return v.Type == ValueTypeMissing || v.Type == "" ||
		(v.Type == ValueTypeNumeric && v.NumericVal == nil) ||
		(v.Type == ValueTypeText && v.TextVal == nil)
}

// IsNumeric returns true if the value represents a number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric && v.NumericVal != nil
}

// IsText returns true if the value represents a string
func (v Value) IsText() bool {
	return v.Type == ValueTypeText && v.TextVal != nil
}

// AsFloat64 returns the numeric value, or 0 if not numeric
func (v Value) AsFloat64() float64 {
	if v.IsNumeric() {
		return *v.NumericVal
	}
	return 0.0
}

// AsText returns the text value, or empty string if not text
func (v Value) AsText() string {
	if v.IsText() {
		return *v.TextVal
	}
	return ""
}

// String renders the value the way it would appear in a text column.
func (v Value) String() string {
	switch {
	case v.IsNumeric():
		return strconv.FormatFloat(*v.NumericVal, 'g', -1, 64)
	case v.IsText():
		return *v.TextVal
	}
	return "<missing>"
}

// AsTextValue converts v to its text representation. Missing stays missing.
func (v Value) AsTextValue() Value {
	if v.IsMissing() {
		return v
	}
	return NewTextValue(v.String())
}

// Equal compares two cells. Two missing cells are equal; NaN equals NaN so that
// copies of a table compare equal.
func (v Value) Equal(o Value) bool {
	switch {
	case v.IsMissing() || o.IsMissing():
		return v.IsMissing() && o.IsMissing()
	case v.IsNumeric() && o.IsNumeric():
		a, b := *v.NumericVal, *o.NumericVal
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case v.IsText() && o.IsText():
		return *v.TextVal == *o.TextVal
	}
	return false
}

// MarshalJSON encodes a cell as a bare JSON number, string, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.IsNumeric():
		f := *v.NumericVal
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(f)
	case v.IsText():
		return json.Marshal(*v.TextVal)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = NewMissingValue()
	case float64:
		*v = NewNumericValue(x)
	case string:
		*v = NewTextValue(x)
	default:
		*v = NewTextValue(string(data))
	}
	return nil
}
