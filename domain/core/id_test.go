package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID()

	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{valid.String(), valid, false},
		{"  " + valid.String() + " ", valid, false},
		{"run-123", "", true},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	shape := NewShapeError("age", 3, 2)
	if !IsShapeError(shape) || !IsFatal(shape) {
		t.Errorf("shape error should be fatal and detectable: %v", shape)
	}

	invalid := NewInvalidInputError("value %g is not positive", -1.0)
	if !IsInvalidInputError(invalid) || !IsFatal(invalid) {
		t.Errorf("invalid input error should be fatal and detectable: %v", invalid)
	}

	var failure error = ParseFailure{Row: 4, Input: "not-a-date"}
	if !errors.Is(failure, ErrParseFailure) {
		t.Error("ParseFailure should unwrap to ErrParseFailure")
	}
	if IsFatal(failure) {
		t.Error("ParseFailure should not be fatal")
	}

	var warning error = DegenerateInputWarning{Value: 3, Fallback: 0, Count: 3}
	if !errors.Is(warning, ErrDegenerateInput) {
		t.Error("DegenerateInputWarning should unwrap to ErrDegenerateInput")
	}
	if IsFatal(warning) {
		t.Error("DegenerateInputWarning should not be fatal")
	}

	if IsFatal(nil) {
		t.Error("nil is not fatal")
	}
}
