package fit

import (
	"fmt"
	"math"
)

// Log fits T(x) = exp(a + b*x) as a weighted line through ln(y).
type Log struct{}

// Name implements Fitter.
func (Log) Name() string { return "log" }

// Fit implements Fitter. Every y must be positive.
func (Log) Fit(x, y, variances []float64) (Result, error) {
	if err := checkInput(x, y, variances, 2); err != nil {
		return Result{}, err
	}

	ly := make([]float64, len(y))
	lv := make([]float64, len(y))
	for i, v := range y {
		if !(v > 0) {
			return Result{}, fmt.Errorf("%w: non-positive ratio %g at point %d", ErrDegenerate, v, i)
		}

		ly[i] = math.Log(v)
		lv[i] = variances[i] / (v * v)
	}

	lin, err := leastSquares(x, ly, lv, 1)
	if err != nil {
		return Result{}, err
	}

	out := Result{
		Values:    make([]float64, len(y)),
		Variances: make([]float64, len(y)),
	}

	for i, l := range lin.Values {
		t := math.Exp(l)
		out.Values[i] = t
		out.Variances[i] = t * t * lin.Variances[i]
	}

	return out, nil
}
