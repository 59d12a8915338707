package scaling

import (
	"math"

	"gotidy/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	// maxAbsLambda bounds the lambda search; beyond it x^lambda overflows for
	// ordinary data and the likelihood surface is flat anyway.
	maxAbsLambda = 10.0
	// lambdaEpsilon is treated as lambda == 0, the log transform.
	lambdaEpsilon = 1e-12
	outOfBounds   = 1e300
)

// coarse starting grid, matching the usual (-2, 2) bracket
var lambdaGrid = []float64{-2, -1.5, -1, -0.5, 0, 0.5, 1, 1.5, 2}

// NormalizedSample is a Box-Cox transformed sample with the lambda that produced it
type NormalizedSample struct {
	Values        []float64 `json:"values"`
	Lambda        float64   `json:"lambda"`
	LogLikelihood float64   `json:"log_likelihood"`
}

// PowerTransformer fits a Box-Cox lambda by maximum likelihood and applies it
type PowerTransformer struct {
	Lambda        float64 `json:"lambda"`
	LogLikelihood float64 `json:"log_likelihood"`
	fitted        bool
}

// NewPowerTransformer creates an unfitted transformer
func NewPowerTransformer() *PowerTransformer {
	return &PowerTransformer{}
}

// NewFittedPowerTransformer restores a transformer from a recorded lambda, for
// transforming new data drawn from the same process.
func NewFittedPowerTransformer(lambda float64) (*PowerTransformer, error) {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, core.NewInvalidInputError("lambda %g is not finite", lambda)
	}
	return &PowerTransformer{Lambda: lambda, fitted: true}, nil
}

// Fit chooses lambda by maximising the Box-Cox profile log-likelihood
//
//	llf(λ) = (λ-1)·Σ ln xᵢ − n/2 · ln σ²(y_λ)
//
// starting from the best point of a coarse grid and refining with Nelder-Mead.
func (p *PowerTransformer) Fit(sample []float64) error {
	logs, err := positiveLogs(sample)
	if err != nil {
		return err
	}
	if floats.Min(sample) == floats.Max(sample) {
		return core.NewInvalidInputError("power transform needs at least two distinct values")
	}

	sumLog := floats.Sum(logs)
	objective := func(x []float64) float64 {
		return -boxCoxLogLikelihood(logs, sumLog, x[0])
	}

	start := lambdaGrid[0]
	best := math.Inf(1)
	for _, l := range lambdaGrid {
		if f := objective([]float64{l}); f < best {
			start, best = l, f
		}
	}

	// A failed refinement keeps the grid optimum.
	lambda := start
	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, []float64{start}, nil, &optimize.NelderMead{})
	if err == nil && result.F <= best {
		lambda = result.X[0]
	}
	p.Lambda = lambda
	p.LogLikelihood = boxCoxLogLikelihood(logs, sumLog, lambda)
	p.fitted = true
	return nil
}

// Transform applies the fitted lambda
func (p *PowerTransformer) Transform(sample []float64) ([]float64, error) {
	if !p.fitted {
		return nil, core.NewInvalidInputError("power transformer is not fitted")
	}
	return BoxCox(sample, p.Lambda)
}

// FitTransform fits lambda to sample and transforms it
func (p *PowerTransformer) FitTransform(sample []float64) (NormalizedSample, error) {
	if err := p.Fit(sample); err != nil {
		return NormalizedSample{}, err
	}
	values, err := p.Transform(sample)
	if err != nil {
		return NormalizedSample{}, err
	}
	return NormalizedSample{Values: values, Lambda: p.Lambda, LogLikelihood: p.LogLikelihood}, nil
}

// InverseTransform undoes the fitted transform
func (p *PowerTransformer) InverseTransform(transformed []float64) ([]float64, error) {
	if !p.fitted {
		return nil, core.NewInvalidInputError("power transformer is not fitted")
	}
	return InverseBoxCox(transformed, p.Lambda)
}

// Normalize fits a lambda to sample and returns the transformed sample
func Normalize(sample []float64) (NormalizedSample, error) {
	return NewPowerTransformer().FitTransform(sample)
}

// BoxCox applies (x^λ − 1)/λ, or ln x when λ is 0. Every input must be strictly
// positive.
func BoxCox(sample []float64, lambda float64) ([]float64, error) {
	logs, err := positiveLogs(sample)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(logs))
	for i, lx := range logs {
		out[i] = boxCoxFromLog(lx, lambda)
	}
	return out, nil
}

// InverseBoxCox maps transformed values back: (λy + 1)^(1/λ), or e^y when λ is 0
func InverseBoxCox(transformed []float64, lambda float64) ([]float64, error) {
	if err := checkFinite(transformed); err != nil {
		return nil, err
	}
	out := make([]float64, len(transformed))
	for i, y := range transformed {
		if math.Abs(lambda) < lambdaEpsilon {
			out[i] = math.Exp(y)
			continue
		}
		base := lambda*y + 1
		if base <= 0 {
			return nil, core.NewInvalidInputError("value %g at index %d is outside the range of a lambda=%g transform", y, i, lambda)
		}
		out[i] = math.Exp(math.Log(base) / lambda)
	}
	return out, nil
}

// boxCoxLogLikelihood evaluates llf(λ) from precomputed logs; it returns a
// large negative number where the transform overflows.
func boxCoxLogLikelihood(logs []float64, sumLog, lambda float64) float64 {
	if math.IsNaN(lambda) || math.Abs(lambda) > maxAbsLambda {
		return -outOfBounds
	}

	y := make([]float64, len(logs))
	for i, lx := range logs {
		y[i] = boxCoxFromLog(lx, lambda)
	}

	_, variance := stat.PopMeanVariance(y, nil)
	if variance <= 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
		return -outOfBounds
	}

	n := float64(len(logs))
	return (lambda-1)*sumLog - n/2*math.Log(variance)
}

func boxCoxFromLog(lx, lambda float64) float64 {
	if math.Abs(lambda) < lambdaEpsilon {
		return lx
	}
	return math.Expm1(lambda*lx) / lambda
}

func positiveLogs(sample []float64) ([]float64, error) {
	if len(sample) == 0 {
		return nil, core.NewInvalidInputError("power transform needs at least one value")
	}
	if err := checkFinite(sample); err != nil {
		return nil, err
	}
	logs := make([]float64, len(sample))
	for i, x := range sample {
		if x <= 0 {
			return nil, core.NewInvalidInputError("power transform needs strictly positive values, got %g at index %d", x, i)
		}
		logs[i] = math.Log(x)
	}
	return logs, nil
}
