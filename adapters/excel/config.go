package excel

import (
	"gotidy/adapters/datareadiness/coercer"
)

// ExcelConfig holds configuration for spreadsheet and CSV sources
type ExcelConfig struct {
	Sheet          string                 `json:"sheet"`     // empty means the first sheet
	Delimiter      rune                   `json:"delimiter"` // CSV only; zero means ','
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultExcelConfig returns the loader defaults
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Delimiter:      ',',
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
