package testkit

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gotidy/domain/table"

	"gonum.org/v1/gonum/stat/distuv"
)

// ExponentialSample draws n values from an exponential distribution. Every value
// is strictly positive, which makes it a natural input for the power transform.
func ExponentialSample(rng *rand.Rand, n int, rate float64) []float64 {
	dist := distuv.Exponential{Rate: rate, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// LogNormalSample draws n values whose logarithm is normal, so the maximum
// likelihood Box-Cox lambda is close to zero.
func LogNormalSample(rng *rand.Rand, n int, mu, sigma float64) []float64 {
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// DirtyTableConfig configures the dirty demonstration table
type DirtyTableConfig struct {
	Rows          int       `json:"rows"`
	MissingRate   float64   `json:"missing_rate"`
	BadDateRate   float64   `json:"bad_date_rate"`
	StartDate     time.Time `json:"start_date"`
	SpanDays      int       `json:"span_days"`
	DateLayouts   []string  `json:"date_layouts"`
	SalaryMean    float64   `json:"salary_mean"`
	SalaryStdDev  float64   `json:"salary_std_dev"`
	CityChoices   []string  `json:"city_choices"`
	SchemaVersion string    `json:"schema_version"`
}

// DefaultDirtyTableConfig returns sensible defaults for demonstration data
func DefaultDirtyTableConfig() DirtyTableConfig {
	return DirtyTableConfig{
		Rows:          100,
		MissingRate:   0.15,
		BadDateRate:   0.02,
		StartDate:     time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		SpanDays:      3650,
		DateLayouts:   []string{"2006/01/02", "2006-01-02", "01/02/2006"},
		SalaryMean:    52000,
		SalaryStdDev:  9000,
		CityChoices:   []string{"Lagos", "Lima", "Oslo", "Pune", "Quito"},
		SchemaVersion: "1.0.0",
	}
}

// DirtyTable builds an employee-like table with nulls scattered through every
// column but id, and a hire_date text column written in mixed date layouts.
func DirtyTable(rng *rand.Rand, cfg DirtyTableConfig) *table.Table {
	ids := make([]*float64, cfg.Rows)
	names := make([]*string, cfg.Rows)
	salaries := make([]*float64, cfg.Rows)
	cities := make([]*string, cfg.Rows)
	hired := make([]*string, cfg.Rows)

	salaryDist := distuv.Normal{Mu: cfg.SalaryMean, Sigma: cfg.SalaryStdDev, Src: rng}

	for i := 0; i < cfg.Rows; i++ {
		ids[i] = table.Float(float64(i + 1))

		if !missing(rng, cfg.MissingRate) {
			names[i] = table.Text(fmt.Sprintf("employee_%04d", i+1))
		}
		if !missing(rng, cfg.MissingRate) {
			salaries[i] = table.Float(salaryDist.Rand())
		}
		if !missing(rng, cfg.MissingRate) && len(cfg.CityChoices) > 0 {
			cities[i] = table.Text(cfg.CityChoices[rng.IntN(len(cfg.CityChoices))])
		}
		if !missing(rng, cfg.MissingRate) {
			hired[i] = table.Text(randomDate(rng, cfg))
		}
	}

	return table.MustNew(
		table.NewNumericColumn("id", ids...),
		table.NewTextColumn("name", names...),
		table.NewNumericColumn("salary", salaries...),
		table.NewTextColumn("city", cities...),
		table.NewTextColumn("hire_date", hired...),
	)
}

func missing(rng *rand.Rand, rate float64) bool {
	return rng.Float64() < rate
}

func randomDate(rng *rand.Rand, cfg DirtyTableConfig) string {
	if rng.Float64() < cfg.BadDateRate || len(cfg.DateLayouts) == 0 {
		return "unknown"
	}
	span := cfg.SpanDays
	if span <= 0 {
		span = 1
	}
	day := cfg.StartDate.AddDate(0, 0, rng.IntN(span))
	return day.Format(cfg.DateLayouts[rng.IntN(len(cfg.DateLayouts))])
}
