package coercer

import (
	"math"
	"testing"

	"gotidy/domain/core"
	"gotidy/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cells(values ...string) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		out[i] = Cell{Text: v, Present: true}
	}
	return out
}

func TestCoerceColumn_Numeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	col := c.CoerceColumn("salary", cells("100", " 250.5 ", "", "NA", "1e3"))
	assert.Equal(t, table.TypeNumeric, col.Type)
	assert.Equal(t, 2, col.MissingCount())
	assert.Equal(t, 250.5, col.Values[1].AsFloat64())
	assert.Equal(t, 1000.0, col.Values[4].AsFloat64())
}

func TestCoerceColumn_NaNIsPresent(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	col := c.CoerceColumn("x", cells("1", "NaN"))
	require.Equal(t, table.TypeNumeric, col.Type)
	assert.False(t, col.Values[1].IsMissing())
	assert.True(t, math.IsNaN(col.Values[1].AsFloat64()))
}

func TestCoerceColumn_TextKeepsEveryCell(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	col := c.CoerceColumn("city", cells("Paris", "42", "", "Lyon"))
	assert.Equal(t, table.TypeText, col.Type)
	assert.Equal(t, "42", col.Values[1].AsText())
	assert.True(t, col.Values[2].IsMissing())
}

func TestCoerceColumn_Threshold(t *testing.T) {
	cfg := DefaultCoercionConfig()
	cfg.NumericThreshold = 0.75
	c := NewTypeCoercer(cfg)

	col := c.CoerceColumn("n", cells("1", "2", "3", "oops"))
	assert.Equal(t, table.TypeNumeric, col.Type)
	assert.True(t, col.Values[3].IsMissing())
}

func TestCoerceColumn_Lenient(t *testing.T) {
	cfg := DefaultCoercionConfig()
	cfg.LenientNumbers = true
	c := NewTypeCoercer(cfg)

	col := c.CoerceColumn("amount", cells("$1,200", "(30)", "15%"))
	require.Equal(t, table.TypeNumeric, col.Type)
	assert.Equal(t, 1200.0, col.Values[0].AsFloat64())
	assert.Equal(t, -30.0, col.Values[1].AsFloat64())
	assert.Equal(t, 15.0, col.Values[2].AsFloat64())

	strict := NewTypeCoercer(DefaultCoercionConfig())
	assert.Equal(t, table.TypeText, strict.CoerceColumn("amount", cells("$1,200")).Type)
}

func TestCoerceRows(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	tbl, err := c.CoerceRows(
		[]string{"id", " name ", "score"},
		[][]string{
			{"1", "ann", "3.5"},
			{"2", "bob"},
			{"3", "", "4", "extra"},
		},
	)
	require.NoError(t, err)

	rows, cols := tbl.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"id", "name", "score"}, tbl.Names())

	score, err := tbl.Column("score")
	require.NoError(t, err)
	assert.Equal(t, table.TypeNumeric, score.Type)
	assert.True(t, score.Values[1].IsMissing())

	name, _ := tbl.Column("name")
	assert.Equal(t, table.TypeText, name.Type)
	assert.True(t, name.Values[2].IsMissing())
}

func TestCoerceRows_Errors(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	_, err := c.CoerceRows(nil, nil)
	assert.True(t, core.IsInvalidInputError(err))

	_, err = c.CoerceRows([]string{"a", "a"}, [][]string{{"1", "2"}})
	assert.True(t, core.IsInvalidInputError(err))
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	a := c.AnalyzeTypeDistribution(append(cells("1", "x", ""), Cell{}))
	assert.Equal(t, 4, a.TotalCount)
	assert.Equal(t, 2, a.ValidCount)
	assert.Equal(t, 2, a.MissingCount)
	assert.Equal(t, 1, a.NumericCount)
	assert.InDelta(t, 0.5, a.NumericRatio, 1e-12)
	assert.Equal(t, table.TypeText, a.RecommendedType)
}
