package excel

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gotidy/adapters/datareadiness/coercer"
	"gotidy/domain/core"
	"gotidy/domain/table"
	"gotidy/internal/logging"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var bom = []byte{0xef, 0xbb, 0xbf}

// DataReader reads xlsx and CSV files (optionally gzipped) into tables
type DataReader struct {
	config  ExcelConfig
	coercer *coercer.TypeCoercer
	logger  *zap.SugaredLogger
}

// NewDataReader creates a reader for both Excel and CSV files
func NewDataReader(config ExcelConfig, logger *zap.SugaredLogger) *DataReader {
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
		logger:  logging.OrNop(logger),
	}
}

// FileType reports "xlsx" or "csv" from the path, ignoring a trailing .gz
func FileType(path string) (fileType string, gzipped bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" {
		gzipped = true
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	switch ext {
	case ".xlsx", ".xlsm":
		return "xlsx", gzipped
	default:
		return "csv", gzipped
	}
}

// Load reads a file and coerces it into a typed table
func (r *DataReader) Load(ctx context.Context, path string) (*table.Table, error) {
	data, err := r.ReadData(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.ToTable(data)
}

// ToTable coerces raw rows into a typed table
func (r *DataReader) ToTable(data *ExcelData) (*table.Table, error) {
	t, err := r.coercer.CoerceRows(data.Headers, data.Rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", data.Source, err)
	}
	r.logger.Debugw("table coerced", "source", data.Source, "rows", t.Rows(), "columns", t.NumColumns())
	return t, nil
}

// ReadData reads a file into raw rows without typing the cells
func (r *DataReader) ReadData(ctx context.Context, path string) (*ExcelData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewNotFoundError("file", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fileType, gzipped := FileType(path)
	var src io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	start := time.Now()
	var data *ExcelData
	switch fileType {
	case "xlsx":
		data, err = r.ReadExcel(src, path)
	default:
		data, err = r.ReadCSV(src, path)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Infow("file read",
		"source", path,
		"type", fileType,
		"columns", len(data.Headers),
		"rows", data.NumRows(),
		"elapsed_ms", float64(time.Since(start).Nanoseconds())/1e6,
	)
	return data, nil
}

// ReadCSV reads delimited text. A leading byte order mark is dropped and rows
// may have varying lengths.
func (r *DataReader) ReadCSV(src io.Reader, name string) (*ExcelData, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	raw = bytes.TrimPrefix(raw, bom)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = r.config.Delimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewInvalidInputError("%s: malformed CSV: %v", name, err)
	}
	return processRows(name, rows)
}

// ReadExcel reads the configured sheet, or the first sheet when none is set
func (r *DataReader) ReadExcel(src io.Reader, name string) (*ExcelData, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, core.NewInvalidInputError("%s: not a readable workbook: %v", name, err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, core.NewInvalidInputError("%s: workbook has no sheets", name)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.NewInvalidInputError("%s: read sheet %q: %v", name, sheet, err)
	}
	return processRows(name, rows)
}

// processRows splits off the header row. A file with a header and no data is
// a valid empty table.
func processRows(name string, rows [][]string) (*ExcelData, error) {
	if len(rows) == 0 {
		return nil, core.NewInvalidInputError("%s: no header row", name)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return &ExcelData{
		Source:  name,
		Headers: headers,
		Rows:    rows[1:],
	}, nil
}
