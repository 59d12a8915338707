package scaling

import (
	"math"

	"gotidy/domain/core"

	"github.com/montanaflynn/stats"
)

// DegenerateFallback is the scaled value given to every element of a zero-range sample
const DegenerateFallback = 0.0

// ScaledSample is a min-max scaled sample together with the range it was scaled by
type ScaledSample struct {
	Values  []float64                    `json:"values"`
	Min     float64                      `json:"min"`
	Max     float64                      `json:"max"`
	Warning *core.DegenerateInputWarning `json:"warning,omitempty"`
}

// Degenerate reports whether the source sample had zero range
func (s ScaledSample) Degenerate() bool {
	return s.Warning != nil
}

// MinMaxScaler learns a sample's range and maps values linearly onto [0,1]
type MinMaxScaler struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	fitted bool
}

// NewMinMaxScaler creates an unfitted scaler
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// NewFittedMinMaxScaler restores a scaler from a recorded range
func NewFittedMinMaxScaler(min, max float64) (*MinMaxScaler, error) {
	if err := checkFinite([]float64{min, max}); err != nil {
		return nil, err
	}
	if min > max {
		return nil, core.NewInvalidInputError("min %g exceeds max %g", min, max)
	}
	return &MinMaxScaler{Min: min, Max: max, fitted: true}, nil
}

// Fit records the sample's minimum and maximum
func (s *MinMaxScaler) Fit(sample []float64) error {
	if len(sample) == 0 {
		return core.NewInvalidInputError("min-max scale needs at least one value")
	}
	if err := checkFinite(sample); err != nil {
		return err
	}

	min, err := stats.Min(sample)
	if err != nil {
		return core.NewInvalidInputError("min: %v", err)
	}
	max, err := stats.Max(sample)
	if err != nil {
		return core.NewInvalidInputError("max: %v", err)
	}

	s.Min, s.Max, s.fitted = min, max, true
	return nil
}

// Transform scales values by the fitted range. Values of the fitted sample land
// in [0,1]; new values outside the fitted range land outside it. A zero fitted
// range maps everything to DegenerateFallback and sets the sample's Warning.
func (s *MinMaxScaler) Transform(sample []float64) (ScaledSample, error) {
	if !s.fitted {
		return ScaledSample{}, core.NewInvalidInputError("min-max scaler is not fitted")
	}
	if err := checkFinite(sample); err != nil {
		return ScaledSample{}, err
	}

	out := ScaledSample{
		Values: make([]float64, len(sample)),
		Min:    s.Min,
		Max:    s.Max,
	}

	span := s.Max - s.Min
	if span == 0 {
		for i := range out.Values {
			out.Values[i] = DegenerateFallback
		}
		out.Warning = &core.DegenerateInputWarning{Value: s.Min, Fallback: DegenerateFallback, Count: len(sample)}
		return out, nil
	}

	for i, x := range sample {
		out.Values[i] = s.scale(x, span)
	}
	return out, nil
}

// FitTransform fits the scaler to sample and scales it
func (s *MinMaxScaler) FitTransform(sample []float64) (ScaledSample, error) {
	if err := s.Fit(sample); err != nil {
		return ScaledSample{}, err
	}
	return s.Transform(sample)
}

// InverseTransform maps scaled values back through the fitted range. With a zero
// range every value maps back to the single original value.
func (s *MinMaxScaler) InverseTransform(scaled []float64) ([]float64, error) {
	if !s.fitted {
		return nil, core.NewInvalidInputError("min-max scaler is not fitted")
	}
	if err := checkFinite(scaled); err != nil {
		return nil, err
	}

	out := make([]float64, len(scaled))
	span := s.Max - s.Min
	for i, y := range scaled {
		out[i] = s.unscale(y, span)
		if math.IsInf(out[i], 0) {
			return nil, core.NewInvalidInputError("scaled value %g at index %d maps outside the float64 range", y, i)
		}
	}
	return out, nil
}

// scale and unscale work on halved operands when the fitted range is wider
// than float64 can hold, so both ends of a finite sample stay finite.
func (s *MinMaxScaler) scale(x, span float64) float64 {
	if math.IsInf(span, 0) {
		return (x/2 - s.Min/2) / (s.Max/2 - s.Min/2)
	}
	return (x - s.Min) / span
}

func (s *MinMaxScaler) unscale(y, span float64) float64 {
	if math.IsInf(span, 0) {
		return 2 * (y*(s.Max/2-s.Min/2) + s.Min/2)
	}
	return y*span + s.Min
}

// MinMaxScale fits and scales in one step
func MinMaxScale(sample []float64) (ScaledSample, error) {
	return NewMinMaxScaler().FitTransform(sample)
}

func checkFinite(sample []float64) error {
	for i, x := range sample {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return core.NewInvalidInputError("value %g at index %d is not finite", x, i)
		}
	}
	return nil
}
