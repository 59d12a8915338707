// Package run describes one execution of the cleaning pipeline as it is
// stored and replayed.
package run

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"gotidy/domain/core"
)

// Record is the stored summary of a pipeline run. Optional stages leave their
// fields nil.
type Record struct {
	ID             core.RunID `json:"id"`
	Source         string     `json:"source"`
	CreatedAt      time.Time  `json:"created_at"`
	Rows           int        `json:"rows"`
	Columns        int        `json:"columns"`
	TotalCells     int        `json:"total_cells"`
	TotalMissing   int        `json:"total_missing"`
	PercentMissing float64    `json:"percent_missing"`
	Policy         string     `json:"policy"`
	Fingerprint    string     `json:"fingerprint"`

	ScaledColumn *string  `json:"scaled_column,omitempty"`
	ScaledMin    *float64 `json:"scaled_min,omitempty"`
	ScaledMax    *float64 `json:"scaled_max,omitempty"`
	Degenerate   bool     `json:"degenerate"`
	Lambda       *float64 `json:"lambda,omitempty"`

	DateColumn  *string `json:"date_column,omitempty"`
	FailureRows []int   `json:"failure_rows"`
}

// Fingerprint identifies the inputs that decide a run's output. Two runs with
// the same fingerprint over the same file produce the same result.
type Fingerprint struct {
	Source      string    `json:"source"`
	Policy      string    `json:"policy"`
	FillValue   string    `json:"fill_value"`
	DateFormats []string  `json:"date_formats"`
	DateMode    string    `json:"date_mode"`
	Seed        int64     `json:"seed"`
	CodeVersion string    `json:"code_version"`
	Hash        string    `json:"hash"`
}

// NewFingerprint hashes the run parameters
func NewFingerprint(source, policy, fillValue string, dateFormats []string, dateMode string, seed int64, codeVersion string) Fingerprint {
	data := fmt.Sprintf("source:%s|policy:%s|fill:%s|formats:%s|mode:%s|seed:%d|code:%s",
		source, policy, fillValue, strings.Join(dateFormats, "\x1f"), dateMode, seed, codeVersion)
	sum := sha256.Sum256([]byte(data))

	return Fingerprint{
		Source:      source,
		Policy:      policy,
		FillValue:   fillValue,
		DateFormats: append([]string(nil), dateFormats...),
		DateMode:    dateMode,
		Seed:        seed,
		CodeVersion: codeVersion,
		Hash:        fmt.Sprintf("%x", sum),
	}
}
