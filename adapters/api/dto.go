package api

import (
	"math"
	"strconv"

	"gotidy/app"
	"gotidy/domain/datareadiness/dates"
	"gotidy/domain/datareadiness/profiling"
	"gotidy/domain/table"
	"gotidy/internal/scaling"
)

// TableDTO is the wire form of a table: columns in order, cells as bare JSON
// numbers, strings or null.
type TableDTO struct {
	Columns []table.Column `json:"columns"`
}

// ToTable validates the wire table. In a numeric column the strings "NaN",
// "Inf", "+Inf" and "-Inf" are read as the matching floats, since JSON
// numbers cannot carry them.
func (d TableDTO) ToTable() (*table.Table, error) {
	cols := make([]table.Column, len(d.Columns))
	for i, c := range d.Columns {
		if c.Type == "" {
			c.Type = inferType(c.Values)
		}
		if c.Type == table.TypeNumeric {
			c.Values = nonFiniteToNumeric(c.Values)
		}
		cols[i] = c
	}
	return table.New(cols...)
}

// FromTable builds the wire form of a table
func FromTable(t *table.Table) TableDTO {
	return TableDTO{Columns: t.Columns()}
}

func inferType(values []table.Value) table.ColumnType {
	for _, v := range values {
		if v.IsText() {
			return table.TypeText
		}
	}
	return table.TypeNumeric
}

func nonFiniteToNumeric(values []table.Value) []table.Value {
	out := make([]table.Value, len(values))
	for i, v := range values {
		out[i] = v
		if !v.IsText() {
			continue
		}
		if f, err := strconv.ParseFloat(v.AsText(), 64); err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[i] = table.NewNumericValue(f)
		}
	}
	return out
}

// TableRequest carries a table alone
type TableRequest struct {
	Table TableDTO `json:"table"`
}

// ResolveRequest asks for one missing-value policy to be applied
type ResolveRequest struct {
	Table     TableDTO    `json:"table"`
	Policy    string      `json:"policy"`
	FillValue table.Value `json:"fill_value"`
}

// ResolveResponse returns the cleaned table with before and after reports
type ResolveResponse struct {
	Policy string                  `json:"policy"`
	Table  TableDTO                `json:"table"`
	Before profiling.MissingReport `json:"before"`
	After  profiling.MissingReport `json:"after"`
}

// SampleRequest carries a numeric sample
type SampleRequest struct {
	Values []float64 `json:"values"`
	// Lambda fixes the Box-Cox parameter instead of fitting it
	Lambda *float64 `json:"lambda,omitempty"`
}

// ScaleResponse is a min-max scaled sample
type ScaleResponse struct {
	scaling.ScaledSample
	Degenerate bool            `json:"degenerate"`
	Before     scaling.Summary `json:"before"`
	After      scaling.Summary `json:"after"`
}

// NormalizeResponse is a Box-Cox transformed sample
type NormalizeResponse struct {
	scaling.NormalizedSample
	Before scaling.Summary `json:"before"`
	After  scaling.Summary `json:"after"`
}

// DatesRequest carries date text; null entries are absent cells
type DatesRequest struct {
	Name    string    `json:"name"`
	Values  []*string `json:"values"`
	Formats []string  `json:"formats"`
	Mode    string    `json:"mode"`
}

// DatesResponse is a parsed column plus its failures
type DatesResponse struct {
	dates.ParsedDateColumn
	Failures []FailureDTO `json:"failures"`
}

// FailureDTO is one cell that matched no format
type FailureDTO struct {
	Row   int    `json:"row"`
	Input string `json:"input"`
}

// CleanRequest runs the whole pipeline over one table
type CleanRequest struct {
	Source          string   `json:"source"`
	Table           TableDTO `json:"table"`
	Policy          string   `json:"policy"`
	FillValue       string   `json:"fill_value"`
	ScaleColumn     string   `json:"scale_column"`
	NormalizeColumn string   `json:"normalize_column"`
	DateColumn      string   `json:"date_column"`
	Formats         []string `json:"formats"`
	Mode            string   `json:"mode"`
	Seed            int64    `json:"seed"`
}

// CleanResponse is the pipeline result with the cleaned table inline
type CleanResponse struct {
	*app.CleaningResult
	Table TableDTO `json:"table"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
