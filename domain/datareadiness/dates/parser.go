package dates

import (
	"slices"
	"strings"
	"time"

	"gotidy/domain/core"
	"gotidy/domain/table"

	"github.com/golang-sql/civil"
	"github.com/ncruces/go-strftime"
)

// Mode selects how formats are applied across a column
type Mode string

const (
	// ModeMixed tries every accepted format, in order, on every cell. The first
	// format that consumes the whole cell wins, so an ambiguous string such as
	// "01/02/03" resolves by list order. This is a policy choice, not something
	// the text can decide.
	ModeMixed Mode = "mixed"
	// ModeInferred locks the first format that parses the first parsable cell
	// and applies only that format to the rest of the column.
	ModeInferred Mode = "inferred"
)

// DefaultFormats are the accepted formats when a caller supplies none
var DefaultFormats = []string{"%Y/%m/%d", "%Y-%m-%d"}

// ParseMode converts a mode name; empty means ModeMixed
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMixed:
		return ModeMixed, nil
	case ModeInferred:
		return ModeInferred, nil
	}
	return "", core.NewInvalidInputError("unknown date parse mode %q", s)
}

type format struct {
	spec   string
	layout string
}

// Parser converts text cells to calendar dates against an ordered list of
// strftime-style formats. Parsing is case-sensitive and ignores locale.
type Parser struct {
	formats []format
	mode    Mode
}

// NewParser compiles the accepted formats. Formats that are empty, that use an
// unsupported specifier, or that carry a time-of-day component are rejected.
func NewParser(specs []string, mode Mode) (*Parser, error) {
	if len(specs) == 0 {
		return nil, core.NewInvalidInputError("at least one date format is required")
	}
	if mode == "" {
		mode = ModeMixed
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	p := &Parser{mode: mode, formats: make([]format, 0, len(specs))}
	for _, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			return nil, core.NewInvalidInputError("date format cannot be empty")
		}
		layout, err := compileLayout(spec)
		if err != nil {
			return nil, core.NewInvalidInputError("date format %q: %v", spec, err)
		}
		if hasTimeOfDay(spec) {
			return nil, core.NewInvalidInputError("date format %q carries a time of day", spec)
		}
		p.formats = append(p.formats, format{spec: spec, layout: layout})
	}
	return p, nil
}

// Mode returns the parser's mode
func (p *Parser) Mode() Mode {
	return p.mode
}

// Formats returns the accepted format specifiers in order
func (p *Parser) Formats() []string {
	out := make([]string, len(p.formats))
	for i, f := range p.formats {
		out[i] = f.spec
	}
	return out
}

// ParseColumn parses a text column. Numeric columns hold no date text and are
// rejected; nulls come back as StatusAbsent.
func (p *Parser) ParseColumn(col table.Column) (ParsedDateColumn, error) {
	if col.Type == table.TypeNumeric {
		return ParsedDateColumn{}, core.NewInvalidInputError("column %q is numeric, expected date text", col.Name)
	}
	values, present := col.Strings()
	out := p.ParseStrings(values, present)
	out.Name = col.Name
	return out, nil
}

// ParseStrings parses raw cells; present[i] false marks a null cell. A nil
// present slice treats every cell as present.
func (p *Parser) ParseStrings(values []string, present []bool) ParsedDateColumn {
	isPresent := func(i int) bool { return present == nil || present[i] }

	candidates := p.formats
	out := ParsedDateColumn{Mode: p.mode, Dates: make([]ParsedDate, len(values))}

	if p.mode == ModeInferred {
		for i, v := range values {
			if !isPresent(i) {
				continue
			}
			if _, f, ok := parseWith(p.formats, v); ok {
				candidates = []format{f}
				out.LockedFormat = f.spec
				break
			}
		}
	}

	for i, v := range values {
		if !isPresent(i) {
			out.Dates[i] = ParsedDate{Row: i, Status: StatusAbsent}
			continue
		}
		d, f, ok := parseWith(candidates, v)
		if !ok {
			out.Dates[i] = ParsedDate{Row: i, Input: v, Status: StatusFailed}
			continue
		}
		out.Dates[i] = ParsedDate{
			Row:       i,
			Input:     v,
			Status:    StatusParsed,
			Date:      &d,
			DayOfWeek: d.In(time.UTC).Weekday().String(),
			Format:    f.spec,
		}
	}
	return out
}

// Parse parses one string, trying each accepted format in order
func (p *Parser) Parse(s string) (civil.Date, error) {
	d, _, ok := parseWith(p.formats, s)
	if !ok {
		return civil.Date{}, core.ParseFailure{Row: -1, Input: s}
	}
	return d, nil
}

func parseWith(formats []format, s string) (civil.Date, format, bool) {
	for _, f := range formats {
		t, err := time.Parse(f.layout, s)
		if err != nil {
			continue
		}
		// time.Parse matches month and day names without regard to case.
		// Formatting back and comparing with zero padding removed keeps
		// names exact while accepting 3/2/07 and 03/02/07 alike.
		if stripLeadingZeros(t.Format(f.layout)) != stripLeadingZeros(s) {
			continue
		}
		return civil.DateOf(t), f, true
	}
	return civil.Date{}, format{}, false
}

// compileLayout translates a strftime format into a Go layout. A %m or %d set
// off by literal text becomes Go's unpadded element, which reads one or two
// digits; next to another specifier it stays two digits so compact formats
// such as %Y%m%d keep their field boundaries.
func compileLayout(spec string) (string, error) {
	var out, chunk strings.Builder
	flush := func() error {
		if chunk.Len() == 0 {
			return nil
		}
		layout, err := strftime.Layout(chunk.String())
		if err != nil {
			return err
		}
		out.WriteString(layout)
		chunk.Reset()
		return nil
	}

	for i := 0; i < len(spec); i++ {
		if spec[i] != '%' || i+1 == len(spec) {
			chunk.WriteByte(spec[i])
			continue
		}
		c := spec[i+1]
		if (c == 'm' || c == 'd') && !specifierAt(spec, i-2) && !specifierAt(spec, i+2) {
			if err := flush(); err != nil {
				return "", err
			}
			if c == 'm' {
				out.WriteString("1")
			} else {
				out.WriteString("2")
			}
		} else {
			chunk.WriteString(spec[i : i+2])
		}
		i++
	}
	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// specifierAt reports whether a conversion specifier (not an escaped %%)
// starts at spec[i].
func specifierAt(spec string, i int) bool {
	return i >= 0 && i+1 < len(spec) && spec[i] == '%' && spec[i+1] != '%'
}

// stripLeadingZeros drops leading zeros from every run of digits, keeping at
// least one digit per run.
func stripLeadingZeros(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		isDigit := c >= '0' && c <= '9'
		if isDigit && !inRun && c == '0' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			continue
		}
		inRun = isDigit
		b.WriteByte(c)
	}
	return b.String()
}

var timeOfDaySpecifiers = []string{
	"%H", "%I", "%k", "%l", "%M", "%S", "%L", "%f", "%N",
	"%p", "%P", "%T", "%R", "%r", "%c", "%X", "%z", "%Z", "%s",
}

// hasTimeOfDay scans the conversion specifiers of spec; an escaped %% is a
// literal percent sign and never starts one.
func hasTimeOfDay(spec string) bool {
	for i := 0; i+1 < len(spec); i++ {
		if spec[i] != '%' {
			continue
		}
		j := i + 1
		if strings.IndexByte("-_0^#", spec[j]) >= 0 && j+1 < len(spec) {
			j++
		}
		if slices.Contains(timeOfDaySpecifiers, "%"+string(spec[j])) {
			return true
		}
		i = j
	}
	return false
}
