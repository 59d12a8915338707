package coercer

import (
	"math"
	"strconv"
	"strings"

	"gotidy/domain/core"
	"gotidy/domain/table"
)

// TypeCoercer turns raw text cells into typed table columns. A column becomes
// numeric only when enough of its present cells parse as numbers; otherwise it
// stays text and keeps every cell verbatim.
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold"` // share of present cells that must parse as numbers
	NullTokens       []string `json:"null_tokens"`       // cell text read as missing
	TrimSpace        bool     `json:"trim_space"`
	LenientNumbers   bool     `json:"lenient_numbers"` // accept currency, percent, (negatives), 1,234
}

// DefaultCoercionConfig returns the loader defaults. Every present cell must
// parse for a column to be numeric, so no text is silently dropped.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		NullTokens:       []string{"", "NA", "N/A", "null", "NULL"},
		TrimSpace:        true,
		LenientNumbers:   false,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	if config.NumericThreshold <= 0 || config.NumericThreshold > 1 {
		config.NumericThreshold = 1.0
	}
	return &TypeCoercer{config: config}
}

// Cell is one raw cell; Present false means the source had no cell at all
type Cell struct {
	Text    string
	Present bool
}

// CoerceColumn infers the column type and converts every cell
func (c *TypeCoercer) CoerceColumn(name string, cells []Cell) table.Column {
	analysis := c.AnalyzeTypeDistribution(cells)

	if analysis.RecommendedType == table.TypeNumeric {
		values := make([]*float64, len(cells))
		for i, cell := range cells {
			text, ok := c.present(cell)
			if !ok {
				continue
			}
			// Below-threshold strays become missing; the analysis reports them.
			if v, ok := c.parseNumeric(text); ok {
				values[i] = table.Float(v)
			}
		}
		return table.NewNumericColumn(name, values...)
	}

	values := make([]*string, len(cells))
	for i, cell := range cells {
		if text, ok := c.present(cell); ok {
			values[i] = table.Text(text)
		}
	}
	return table.NewTextColumn(name, values...)
}

// CoerceRows builds a table from a header row and raw data rows. Short rows
// are padded with missing cells; cells past the header are ignored.
func (c *TypeCoercer) CoerceRows(headers []string, rows [][]string) (*table.Table, error) {
	if len(headers) == 0 {
		return nil, core.NewInvalidInputError("no header row")
	}

	columns := make([]table.Column, len(headers))
	for j, name := range headers {
		cells := make([]Cell, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = Cell{Text: row[j], Present: true}
			}
		}
		columns[j] = c.CoerceColumn(strings.TrimSpace(name), cells)
	}
	return table.NewWithRows(len(rows), columns...)
}

// AnalyzeTypeDistribution counts how many present cells parse as numbers
func (c *TypeCoercer) AnalyzeTypeDistribution(cells []Cell) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(cells)}

	for _, cell := range cells {
		text, ok := c.present(cell)
		if !ok {
			analysis.MissingCount++
			continue
		}
		analysis.ValidCount++
		if _, ok := c.parseNumeric(text); ok {
			analysis.NumericCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

func (c *TypeCoercer) present(cell Cell) (string, bool) {
	if !cell.Present {
		return "", false
	}
	text := cell.Text
	if c.config.TrimSpace {
		text = strings.TrimSpace(text)
	}
	for _, token := range c.config.NullTokens {
		if text == token {
			return "", false
		}
	}
	return text, true
}

// parseNumeric accepts NaN and infinities; they are values, not missing cells.
func (c *TypeCoercer) parseNumeric(text string) (float64, bool) {
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, true
	}
	if !c.config.LenientNumbers {
		return 0, false
	}
	return parseLenient(text)
}

// parseLenient handles accounting negatives, currency symbols, percent signs
// and comma thousands separators.
func parseLenient(text string) (float64, bool) {
	clean := strings.TrimSpace(text)

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}
	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY"} {
		clean = strings.ReplaceAll(clean, symbol, "")
	}
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, "%")
	clean = strings.ReplaceAll(clean, ",", "")
	if negative {
		clean = "-" + clean
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) table.ColumnType {
	if analysis.ValidCount == 0 {
		// An all-missing column has no evidence either way; numeric keeps it
		// usable by the scaler once filled with a number.
		return table.TypeNumeric
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return table.TypeNumeric
	}
	return table.TypeText
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int              `json:"total_count"`
	ValidCount      int              `json:"valid_count"`
	MissingCount    int              `json:"missing_count"`
	NumericCount    int              `json:"numeric_count"`
	NumericRatio    float64          `json:"numeric_ratio"`
	RecommendedType table.ColumnType `json:"recommended_type"`
}
