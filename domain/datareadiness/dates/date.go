package dates

import (
	"time"

	"gotidy/domain/core"

	"github.com/golang-sql/civil"
)

// Status is the outcome of parsing one cell
type Status string

const (
	StatusParsed Status = "parsed"
	// StatusAbsent marks a null cell; nothing was there to parse.
	StatusAbsent Status = "absent"
	// StatusFailed marks text that matched none of the accepted formats.
	StatusFailed Status = "failed"
)

// ParsedDate is one cell of a parsed date column
type ParsedDate struct {
	Row       int         `json:"row"`
	Input     string      `json:"input,omitempty"`
	Status    Status      `json:"status"`
	Date      *civil.Date `json:"date,omitempty"`
	DayOfWeek string      `json:"weekday,omitempty"`
	Format    string      `json:"format,omitempty"` // specifier that matched
}

// OK reports whether the cell parsed
func (d ParsedDate) OK() bool {
	return d.Status == StatusParsed && d.Date != nil
}

// Year returns the calendar year, or 0 if the cell did not parse
func (d ParsedDate) Year() int {
	if !d.OK() {
		return 0
	}
	return d.Date.Year
}

// Month returns the month 1-12, or 0 if the cell did not parse
func (d ParsedDate) Month() int {
	if !d.OK() {
		return 0
	}
	return int(d.Date.Month)
}

// Day returns the day of month 1-31, or 0 if the cell did not parse
func (d ParsedDate) Day() int {
	if !d.OK() {
		return 0
	}
	return d.Date.Day
}

// Weekday returns the proleptic Gregorian day of the week
func (d ParsedDate) Weekday() (time.Weekday, bool) {
	if !d.OK() {
		return 0, false
	}
	return d.Date.In(time.UTC).Weekday(), true
}

// ParsedDateColumn is one result per input cell, in input order
type ParsedDateColumn struct {
	Name  string       `json:"name"`
	Mode  Mode         `json:"mode"`
	Dates []ParsedDate `json:"dates"`
	// LockedFormat is the single format used in inferred mode
	LockedFormat string `json:"locked_format,omitempty"`
}

// Failures returns one ParseFailure per cell whose text matched no format
func (c ParsedDateColumn) Failures() []core.ParseFailure {
	var out []core.ParseFailure
	for _, d := range c.Dates {
		if d.Status == StatusFailed {
			out = append(out, core.ParseFailure{Row: d.Row, Input: d.Input})
		}
	}
	return out
}

// Counts tallies cells by status
func (c ParsedDateColumn) Counts() map[Status]int {
	out := map[Status]int{StatusParsed: 0, StatusAbsent: 0, StatusFailed: 0}
	for _, d := range c.Dates {
		out[d.Status]++
	}
	return out
}

// DayOfMonthCounts counts parsed dates per day of month; index 0 is day 1.
// A spike on days 1-12 with nothing above is the usual sign that day and
// month were swapped by an ambiguous format.
func (c ParsedDateColumn) DayOfMonthCounts() [31]int {
	var out [31]int
	for _, d := range c.Dates {
		if d.OK() {
			out[d.Day()-1]++
		}
	}
	return out
}
