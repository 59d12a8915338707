package scaling

import (
	"math"
	"sort"
	"testing"

	"gotidy/domain/core"
	"gotidy/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScale_KnownValues(t *testing.T) {
	out, err := MinMaxScale([]float64{1, 5, 10})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 4.0 / 9.0, 1}, out.Values, 1e-12)
	assert.Equal(t, 1.0, out.Min)
	assert.Equal(t, 10.0, out.Max)
	assert.False(t, out.Degenerate())
}

func TestMinMaxScale_ZeroRange(t *testing.T) {
	out, err := MinMaxScale([]float64{3, 3, 3})
	require.NoError(t, err)

	for _, v := range out.Values {
		assert.False(t, math.IsNaN(v))
		assert.Equal(t, DegenerateFallback, v)
	}
	require.True(t, out.Degenerate())
	assert.Equal(t, 3.0, out.Warning.Value)
	assert.ErrorIs(t, *out.Warning, core.ErrDegenerateInput)

	back, err := NewMinMaxScaler().InverseTransform(out.Values)
	assert.Error(t, err, "unfitted scaler cannot invert")
	assert.Nil(t, back)

	scaler, err := NewFittedMinMaxScaler(out.Min, out.Max)
	require.NoError(t, err)
	back, err = scaler.InverseTransform(out.Values)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3}, back)
}

func TestMinMaxScale_InvalidInput(t *testing.T) {
	tests := map[string][]float64{
		"empty": {},
		"nan":   {1, math.NaN()},
		"inf":   {math.Inf(1), 2},
	}
	for name, sample := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := MinMaxScale(sample)
			assert.True(t, core.IsInvalidInputError(err), "got %v", err)
		})
	}
}

func TestMinMaxScale_PreservesOrderAndBounds(t *testing.T) {
	sample := testkit.ExponentialSample(testkit.NewRand("minmax", 0), 1000, 1)

	out, err := MinMaxScale(sample)
	require.NoError(t, err)

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range out.Values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	assert.Equal(t, 0.0, minV)
	assert.Equal(t, 1.0, maxV)

	idx := make([]int, len(sample))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return sample[idx[a]] < sample[idx[b]] })
	for k := 1; k < len(idx); k++ {
		assert.LessOrEqual(t, out.Values[idx[k-1]], out.Values[idx[k]])
	}

	// Shape is preserved: skewness is invariant under positive affine maps.
	before, err := Describe(sample)
	require.NoError(t, err)
	after, err := Describe(out.Values)
	require.NoError(t, err)
	assert.InDelta(t, before.Skewness, after.Skewness, 1e-9)
}

func TestMinMaxScaler_RoundTrip(t *testing.T) {
	sample := testkit.ExponentialSample(testkit.NewRand("roundtrip", 3), 200, 0.5)

	scaler := NewMinMaxScaler()
	out, err := scaler.FitTransform(sample)
	require.NoError(t, err)

	restored, err := NewFittedMinMaxScaler(out.Min, out.Max)
	require.NoError(t, err)
	back, err := restored.InverseTransform(out.Values)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sample, back, 1e-9)
}

func TestMinMaxScaler_TransformBeforeFit(t *testing.T) {
	_, err := NewMinMaxScaler().Transform([]float64{1})
	assert.True(t, core.IsInvalidInputError(err))

	_, err = NewFittedMinMaxScaler(2, 1)
	assert.True(t, core.IsInvalidInputError(err))
}

func TestMinMaxScale_RangeWiderThanFloat64(t *testing.T) {
	sample := []float64{-1e308, 0, 1e308}
	out, err := MinMaxScale(sample)
	require.NoError(t, err)

	for i, v := range out.Values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "index %d: %g", i, v)
	}
	assert.Equal(t, 0.0, out.Values[0])
	assert.InDelta(t, 0.5, out.Values[1], 1e-12)
	assert.Equal(t, 1.0, out.Values[2])

	scaler, err := NewFittedMinMaxScaler(out.Min, out.Max)
	require.NoError(t, err)
	back, err := scaler.InverseTransform([]float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1e308, 1e308}, back)

	_, err = scaler.InverseTransform([]float64{2})
	assert.True(t, core.IsInvalidInputError(err), "got %v", err)
}
