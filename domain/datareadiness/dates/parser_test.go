package dates

import (
	"testing"
	"time"

	"gotidy/domain/core"
	"gotidy/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, mode Mode, specs ...string) *Parser {
	t.Helper()
	p, err := NewParser(specs, mode)
	require.NoError(t, err)
	return p
}

func TestParse_SlashFormat(t *testing.T) {
	p := newParser(t, ModeMixed, "%Y/%m/%d", "%Y-%m-%d")

	out := p.ParseStrings([]string{"2021/03/15"}, nil)
	require.Len(t, out.Dates, 1)
	d := out.Dates[0]
	require.True(t, d.OK())
	assert.Equal(t, 2021, d.Year())
	assert.Equal(t, 3, d.Month())
	assert.Equal(t, 15, d.Day())
	assert.Equal(t, "%Y/%m/%d", d.Format)
}

func TestParse_FailureIsPerCell(t *testing.T) {
	p := newParser(t, ModeMixed, "%Y/%m/%d", "%Y-%m-%d")

	out := p.ParseStrings([]string{"not-a-date", "2021-03-16"}, nil)
	assert.Equal(t, StatusFailed, out.Dates[0].Status)
	assert.Nil(t, out.Dates[0].Date)
	assert.True(t, out.Dates[1].OK())

	failures := out.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 0, failures[0].Row)
	assert.Equal(t, "not-a-date", failures[0].Input)
	assert.ErrorIs(t, failures[0], core.ErrParseFailure)

	_, err := p.Parse("not-a-date")
	assert.ErrorIs(t, err, core.ErrParseFailure)
}

func TestParse_MixedFormatsWithWeekday(t *testing.T) {
	p := newParser(t, ModeMixed, "%Y/%m/%d", "%Y-%m-%d")

	out := p.ParseStrings([]string{"2021/03/15", "2021-03-16"}, nil)
	require.Len(t, out.Dates, 2)

	first, second := out.Dates[0], out.Dates[1]
	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, 0, first.Row)
	assert.Equal(t, 1, second.Row)
	assert.Equal(t, 15, first.Day())
	assert.Equal(t, 16, second.Day())

	wd, ok := first.Weekday()
	require.True(t, ok)
	assert.Equal(t, time.Monday, wd)
	wd, _ = second.Weekday()
	assert.Equal(t, time.Tuesday, wd)
}

func TestParse_ProlepticGregorianWeekday(t *testing.T) {
	p := newParser(t, ModeMixed, "%Y-%m-%d")
	tests := map[string]time.Weekday{
		"1582-10-15": time.Friday,
		"1600-02-29": time.Tuesday,
		"2000-01-01": time.Saturday,
		"2024-02-29": time.Thursday,
	}
	for input, want := range tests {
		out := p.ParseStrings([]string{input}, nil)
		got, ok := out.Dates[0].Weekday()
		require.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParse_AmbiguousFirstMatchWins(t *testing.T) {
	dayFirst := newParser(t, ModeMixed, "%d/%m/%y", "%m/%d/%y")
	monthFirst := newParser(t, ModeMixed, "%m/%d/%y", "%d/%m/%y")

	a := dayFirst.ParseStrings([]string{"01/02/03"}, nil).Dates[0]
	b := monthFirst.ParseStrings([]string{"01/02/03"}, nil).Dates[0]

	assert.Equal(t, 2, a.Month())
	assert.Equal(t, 1, a.Day())
	assert.Equal(t, 1, b.Month())
	assert.Equal(t, 2, b.Day())
}

func TestParse_Strictness(t *testing.T) {
	p := newParser(t, ModeMixed, "%Y-%m-%d", "%d %b %Y")
	tests := map[string]Status{
		"2021-03-15":    StatusParsed,
		"2021-03-15 ":   StatusFailed, // leftover characters
		"2021-03-15T00": StatusFailed,
		"2021-02-30":    StatusFailed, // no such day
		"15 Mar 2021":   StatusParsed,
		"15 MAR 2021":   StatusFailed, // case-sensitive
		"15 mar 2021":   StatusFailed,
		"":              StatusFailed,
	}
	for input, want := range tests {
		got := p.ParseStrings([]string{input}, nil).Dates[0].Status
		assert.Equal(t, want, got, "%q", input)
	}
}

func TestParse_AbsentIsNotFailure(t *testing.T) {
	p := newParser(t, ModeMixed, DefaultFormats...)
	col := table.NewTextColumn("hire_date", table.Text("2021/03/15"), nil, table.Text("garbage"))

	out, err := p.ParseColumn(col)
	require.NoError(t, err)
	assert.Equal(t, "hire_date", out.Name)
	assert.Equal(t, StatusParsed, out.Dates[0].Status)
	assert.Equal(t, StatusAbsent, out.Dates[1].Status)
	assert.Equal(t, StatusFailed, out.Dates[2].Status)
	assert.Equal(t, map[Status]int{StatusParsed: 1, StatusAbsent: 1, StatusFailed: 1}, out.Counts())
	assert.Len(t, out.Failures(), 1)
}

func TestParseColumn_RejectsNumeric(t *testing.T) {
	p := newParser(t, ModeMixed, DefaultFormats...)
	_, err := p.ParseColumn(table.NewNumericColumn("n", table.Float(20210315)))
	assert.True(t, core.IsInvalidInputError(err))
}

func TestParse_InferredModeLocksFirstFormat(t *testing.T) {
	p := newParser(t, ModeInferred, "%Y/%m/%d", "%Y-%m-%d")

	out := p.ParseStrings([]string{"", "2021-03-15", "2021/03/16", "2021-03-17"}, []bool{false, true, true, true})
	assert.Equal(t, "%Y-%m-%d", out.LockedFormat)
	assert.Equal(t, StatusAbsent, out.Dates[0].Status)
	assert.Equal(t, StatusParsed, out.Dates[1].Status)
	assert.Equal(t, StatusFailed, out.Dates[2].Status, "other formats are not tried once one is locked")
	assert.Equal(t, StatusParsed, out.Dates[3].Status)

	mixed := newParser(t, ModeMixed, "%Y/%m/%d", "%Y-%m-%d")
	all := mixed.ParseStrings([]string{"2021-03-15", "2021/03/16"}, nil)
	assert.Equal(t, 2, all.Counts()[StatusParsed])
}

func TestNewParser_Validation(t *testing.T) {
	_, err := NewParser(nil, ModeMixed)
	assert.True(t, core.IsInvalidInputError(err))

	_, err = NewParser([]string{" "}, ModeMixed)
	assert.True(t, core.IsInvalidInputError(err))

	_, err = NewParser([]string{"%Y-%m-%d %H:%M"}, ModeMixed)
	assert.True(t, core.IsInvalidInputError(err))

	_, err = NewParser([]string{"%Y-%m-%d"}, "fuzzy")
	assert.True(t, core.IsInvalidInputError(err))

	p, err := NewParser([]string{"%Y-%m-%d"}, "")
	require.NoError(t, err)
	assert.Equal(t, ModeMixed, p.Mode())
	assert.Equal(t, []string{"%Y-%m-%d"}, p.Formats())
}

func TestDayOfMonthCounts(t *testing.T) {
	p := newParser(t, ModeMixed, DefaultFormats...)
	out := p.ParseStrings([]string{"2021-03-01", "2021-04-01", "2021-03-31", "bad"}, nil)
	counts := out.DayOfMonthCounts()
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[30])
}

func TestParse_UnpaddedMonthAndDay(t *testing.T) {
	p := newParser(t, ModeMixed, "%m/%d/%y", "%Y/%m/%d", "%d %b %Y", "%Y%m%d")
	tests := map[string]string{
		"3/2/07":     "2007-03-02",
		"03/02/07":   "2007-03-02",
		"12/31/99":   "1999-12-31",
		"2021/3/15":  "2021-03-15",
		"2021/03/5":  "2021-03-05",
		"5 Mar 2021": "2021-03-05",
		"20210315":   "2021-03-15",
	}
	for input, want := range tests {
		d, err := p.Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, d.String(), input)
	}

	for _, input := range []string{"13/2/07", "3//07", "5 MAR 2021", "2021/3/15x"} {
		_, err := p.Parse(input)
		assert.ErrorIs(t, err, core.ErrParseFailure, input)
	}
}

func TestParse_WeekdayName(t *testing.T) {
	p := newParser(t, ModeMixed, DefaultFormats...)
	out := p.ParseStrings([]string{"2021/03/15", "bad"}, nil)
	assert.Equal(t, "Monday", out.Dates[0].DayOfWeek)
	assert.Empty(t, out.Dates[1].DayOfWeek)
}

func TestNewParser_EscapedPercent(t *testing.T) {
	p, err := NewParser([]string{"%Y-%m-%d %%H"}, ModeMixed)
	require.NoError(t, err, "%%H is a literal, not an hour")

	d, err := p.Parse("2021-03-15 %H")
	require.NoError(t, err)
	assert.Equal(t, "2021-03-15", d.String())

	_, err = NewParser([]string{"%Y-%m-%d %%%H"}, ModeMixed)
	assert.True(t, core.IsInvalidInputError(err))
}
