package profiling

import (
	"gotidy/domain/table"
)

// MissingReport is a read-only summary of null cells in one table snapshot.
// It is computed fresh by Report and never updated; a report of an older
// table says nothing about a table derived from it.
type MissingReport struct {
	Columns        []ColumnMissing `json:"columns"`
	Rows           int             `json:"rows"`
	TotalCells     int             `json:"total_cells"`
	TotalMissing   int             `json:"total_missing"`
	PercentMissing float64         `json:"percent_missing"`
}

// ColumnMissing is the null count of a single column
type ColumnMissing struct {
	Name         string  `json:"name"`
	MissingCount int     `json:"missing_count"`
	MissingRate  float64 `json:"missing_rate"` // percent of the column's cells
}

// Report counts nulls per column and overall. Percent missing is 0 for a table
// with no cells.
func Report(t *table.Table) MissingReport {
	rows, cols := t.Shape()
	report := MissingReport{
		Columns:    make([]ColumnMissing, 0, cols),
		Rows:       rows,
		TotalCells: rows * cols,
	}

	for _, col := range t.Columns() {
		missing := col.MissingCount()
		report.Columns = append(report.Columns, ColumnMissing{
			Name:         col.Name,
			MissingCount: missing,
			MissingRate:  percent(missing, rows),
		})
		report.TotalMissing += missing
	}

	report.PercentMissing = percent(report.TotalMissing, report.TotalCells)
	return report
}

// Counts returns the per-column null counts keyed by column name
func (r MissingReport) Counts() map[string]int {
	out := make(map[string]int, len(r.Columns))
	for _, c := range r.Columns {
		out[c.Name] = c.MissingCount
	}
	return out
}

// Column returns the entry for one column
func (r MissingReport) Column(name string) (ColumnMissing, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMissing{}, false
}

// ColumnsWithMissing returns the names of columns holding at least one null,
// in declared column order
func (r MissingReport) ColumnsWithMissing() []string {
	var names []string
	for _, c := range r.Columns {
		if c.MissingCount > 0 {
			names = append(names, c.Name)
		}
	}
	return names
}

// Complete reports whether the table had no nulls at all
func (r MissingReport) Complete() bool {
	return r.TotalMissing == 0
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// ColumnRate returns the percent of one column's cells that are null
func (r MissingReport) ColumnRate(name string) (float64, bool) {
	c, ok := r.Column(name)
	return c.MissingRate, ok
}
