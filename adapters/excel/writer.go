package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"gotidy/domain/table"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name WriteExcel writes to
const DefaultSheet = "Sheet1"

// WriteExcel writes a table as an xlsx workbook with a header row. Missing
// cells are left blank; NaN and infinities are written as text because xlsx
// has no number cell for them.
func WriteExcel(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, 0, t.NumColumns())
	for _, name := range t.Names() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.Rows(); i++ {
		cells, err := t.Row(i)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(cells))
		for j, v := range cells {
			row[j] = excelCell(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DefaultSheet, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func excelCell(v table.Value) interface{} {
	switch {
	case v.IsMissing():
		return nil
	case v.IsNumeric():
		f := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	}
	return v.AsText()
}

// WriteCSV writes a table as comma-separated text. Missing cells become empty
// fields, so an empty text cell does not survive a round trip.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	for i := 0; i < t.Rows(); i++ {
		cells, err := t.Row(i)
		if err != nil {
			return err
		}
		record := make([]string, len(cells))
		for j, v := range cells {
			if !v.IsMissing() {
				record[j] = v.String()
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
