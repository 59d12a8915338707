package excel

// ExcelData is a sheet or CSV file as raw text: a header row and data rows in
// file order. Rows may be shorter than Headers; the coercer pads them.
type ExcelData struct {
	Source  string     // file path or upload name
	Headers []string   // column headers
	Rows    [][]string // data rows
}

// NumRows returns the number of data rows
func (d *ExcelData) NumRows() int {
	return len(d.Rows)
}
