package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural errors abort the offending operation
	ErrShape        = errors.New("shape mismatch")
	ErrInvalidInput = errors.New("invalid input")

	// Non-fatal conditions, reported alongside results
	ErrParseFailure    = errors.New("date parse failure")
	ErrDegenerateInput = errors.New("degenerate input")

	ErrNotFound = errors.New("resource not found")
)

// Error constructors with context
func NewShapeError(column string, want, got int) error {
	return fmt.Errorf("%w: column %q has %d rows, expected %d", ErrShape, column, got, want)
}

func NewInvalidInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// ParseFailure records a single date cell that matched none of the accepted formats.
type ParseFailure struct {
	Row   int    `json:"row"`
	Input string `json:"input"`
}

func (f ParseFailure) Error() string {
	return fmt.Sprintf("row %d: %q matches no accepted date format", f.Row, f.Input)
}

func (f ParseFailure) Unwrap() error {
	return ErrParseFailure
}

// DegenerateInputWarning is raised when a min-max scale sees a zero-range sample.
// The scaler resolves it with a constant fallback instead of aborting.
type DegenerateInputWarning struct {
	Value    float64 `json:"value"`
	Fallback float64 `json:"fallback"`
	Count    int     `json:"count"`
}

func (w DegenerateInputWarning) Error() string {
	return fmt.Sprintf("all %d values equal %g; scaled to constant %g", w.Count, w.Value, w.Fallback)
}

func (w DegenerateInputWarning) Unwrap() error {
	return ErrDegenerateInput
}

// Error checking helpers
func IsShapeError(err error) bool {
	return errors.Is(err, ErrShape)
}

func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFatal reports whether err aborts an operation, as opposed to a per-cell
// failure or a warning that is returned alongside a result.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrParseFailure) && !errors.Is(err, ErrDegenerateInput)
}
