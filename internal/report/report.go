// Package report renders cleaning results as markdown, and as HTML through
// gomarkdown, for the CLI and the API.
package report

import (
	"fmt"
	"strings"
	"time"

	"gotidy/domain/datareadiness/dates"
	"gotidy/domain/datareadiness/profiling"
	"gotidy/internal/scaling"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Builder accumulates report sections in the order they are added
type Builder struct {
	sb strings.Builder
}

// New starts a report with a title
func New(title string) *Builder {
	b := &Builder{}
	fmt.Fprintf(&b.sb, "# %s\n\n", escape(title))
	return b
}

// Missing adds the per-column null counts
func (b *Builder) Missing(heading string, r profiling.MissingReport) *Builder {
	fmt.Fprintf(&b.sb, "## %s\n\n", heading)
	fmt.Fprintf(&b.sb, "%d rows, %d of %d cells missing (%.2f%%)\n\n",
		r.Rows, r.TotalMissing, r.TotalCells, r.PercentMissing)

	if len(r.Columns) == 0 {
		b.sb.WriteString("_no columns_\n\n")
		return b
	}
	b.sb.WriteString("| column | missing | rate |\n|---|---:|---:|\n")
	for _, c := range r.Columns {
		fmt.Fprintf(&b.sb, "| %s | %d | %.2f%% |\n", escape(c.Name), c.MissingCount, c.MissingRate)
	}
	b.sb.WriteString("\n")
	return b
}

// Scaled adds a min-max scaling section with the before and after shape
func (b *Builder) Scaled(column string, s scaling.ScaledSample, before, after scaling.Summary) *Builder {
	fmt.Fprintf(&b.sb, "## Min-max scaling: %s\n\n", escape(column))
	fmt.Fprintf(&b.sb, "fitted range [%g, %g]\n\n", s.Min, s.Max)
	if s.Degenerate() {
		fmt.Fprintf(&b.sb, "> **warning:** all %d values equal %g; every output set to %g\n\n",
			s.Warning.Count, s.Warning.Value, s.Warning.Fallback)
	}
	b.summaries(before, after)
	return b
}

// Normalized adds a Box-Cox section with the fitted lambda
func (b *Builder) Normalized(column string, n scaling.NormalizedSample, before, after scaling.Summary) *Builder {
	fmt.Fprintf(&b.sb, "## Box-Cox normalization: %s\n\n", escape(column))
	fmt.Fprintf(&b.sb, "lambda = %.6f (log-likelihood %.4f)\n\n", n.Lambda, n.LogLikelihood)
	b.summaries(before, after)
	return b
}

func (b *Builder) summaries(before, after scaling.Summary) {
	b.sb.WriteString("| | count | min | max | mean | std dev | skewness |\n|---|---:|---:|---:|---:|---:|---:|\n")
	for _, row := range []struct {
		label string
		s     scaling.Summary
	}{{"before", before}, {"after", after}} {
		fmt.Fprintf(&b.sb, "| %s | %d | %.4g | %.4g | %.4g | %.4g | %.4f |\n",
			row.label, row.s.Count, row.s.Min, row.s.Max, row.s.Mean, row.s.StdDev, row.s.Skewness)
	}
	b.sb.WriteString("\n")
}

// Dates adds parse counts, the failing cells and the day-of-month histogram
func (b *Builder) Dates(c dates.ParsedDateColumn) *Builder {
	counts := c.Counts()
	fmt.Fprintf(&b.sb, "## Dates: %s\n\n", escape(c.Name))
	fmt.Fprintf(&b.sb, "mode %s: %d parsed, %d absent, %d failed\n\n",
		c.Mode, counts[dates.StatusParsed], counts[dates.StatusAbsent], counts[dates.StatusFailed])
	if c.LockedFormat != "" {
		fmt.Fprintf(&b.sb, "locked format `%s`\n\n", c.LockedFormat)
	}

	if failures := c.Failures(); len(failures) > 0 {
		b.sb.WriteString("| row | input |\n|---:|---|\n")
		for _, f := range failures {
			fmt.Fprintf(&b.sb, "| %d | %s |\n", f.Row, escape(f.Input))
		}
		b.sb.WriteString("\n")
	}

	days := c.DayOfMonthCounts()
	b.sb.WriteString("| day | count |\n|---:|---:|\n")
	for i, n := range days {
		if n > 0 {
			fmt.Fprintf(&b.sb, "| %d | %d |\n", i+1, n)
		}
	}
	b.sb.WriteString("\n")
	return b
}

// Warnings adds a bullet list; nothing is written for an empty list
func (b *Builder) Warnings(warnings []string) *Builder {
	if len(warnings) == 0 {
		return b
	}
	b.sb.WriteString("## Warnings\n\n")
	for _, w := range warnings {
		fmt.Fprintf(&b.sb, "- %s\n", escape(w))
	}
	b.sb.WriteString("\n")
	return b
}

// Footer stamps the run id and time
func (b *Builder) Footer(runID string, at time.Time) *Builder {
	fmt.Fprintf(&b.sb, "---\nrun `%s` at %s\n", runID, at.UTC().Format(time.RFC3339))
	return b
}

// Markdown returns the report source
func (b *Builder) Markdown() string {
	return b.sb.String()
}

// HTML renders the report as a standalone HTML fragment
func (b *Builder) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(b.sb.String()), p, renderer)
}

// escape keeps cell text from breaking table syntax
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
