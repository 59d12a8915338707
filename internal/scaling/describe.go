package scaling

import (
	"gotidy/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample's location, spread and shape. Comparing the summary
// before and after a transform shows whether the shape changed.
type Summary struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"`
}

// Describe summarises a sample
func Describe(sample []float64) (Summary, error) {
	if len(sample) == 0 {
		return Summary{}, core.NewInvalidInputError("cannot describe an empty sample")
	}
	if err := checkFinite(sample); err != nil {
		return Summary{}, err
	}

	min, _ := stats.Min(sample)
	max, _ := stats.Max(sample)
	mean, _ := stats.Mean(sample)
	stdDev, _ := stats.StandardDeviation(sample)

	s := Summary{
		Count:  len(sample),
		Min:    min,
		Max:    max,
		Mean:   mean,
		StdDev: stdDev,
	}
	if len(sample) > 2 && stdDev > 0 {
		s.Skewness = stat.Skew(sample, nil)
	}
	return s, nil
}
