package fit

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/stat"
)

// Spectral smooths y with an FFT low-pass filter. The line through the two
// end points is removed first so the zero padding does not introduce a step,
// and added back afterwards.
type Spectral struct {
	// Cutoff is the retained fraction of the Nyquist band, in (0, 1].
	Cutoff float64
}

// NewSpectral validates cutoff and returns a spectral smoother.
func NewSpectral(cutoff float64) (Spectral, error) {
	if !(cutoff > 0 && cutoff <= 1) {
		return Spectral{}, fmt.Errorf("%w: got %g", ErrInvalidCutoff, cutoff)
	}

	return Spectral{Cutoff: cutoff}, nil
}

// Name implements Fitter.
func (s Spectral) Name() string { return fmt.Sprintf("spectral(%g)", s.Cutoff) }

// Fit implements Fitter. The variance of every fitted point is the variance
// of the residuals.
func (s Spectral) Fit(x, y, variances []float64) (Result, error) {
	if err := checkInput(x, y, variances, 2); err != nil {
		return Result{}, err
	}

	n := len(y)
	fftSize := nextPowerOf2(2 * n)

	slope := (y[n-1] - y[0]) / float64(n-1)
	trend := func(i int) float64 { return y[0] + slope*float64(i) }

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("fit: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, fftSize)
	for i := 0; i < n; i++ {
		in[i] = complex(y[i]-trend(i), 0)
	}

	freq := make([]complex128, fftSize)
	if err := plan.Forward(freq, in); err != nil {
		return Result{}, fmt.Errorf("fit: forward FFT failed: %w", err)
	}

	keep := int(s.Cutoff * float64(fftSize/2))
	for k := keep + 1; k < fftSize-keep; k++ {
		freq[k] = 0
	}

	out := make([]complex128, fftSize)
	if err := plan.Inverse(out, freq); err != nil {
		return Result{}, fmt.Errorf("fit: inverse FFT failed: %w", err)
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = real(out[i]) + trend(i)
	}

	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - values[i]
	}

	_, v := stat.PopMeanVariance(resid, nil)

	vars := make([]float64, n)
	for i := range vars {
		vars[i] = v
	}

	return Result{Values: values, Variances: vars}, nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
