package transmission

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/geometry"
	"github.com/cwbudde/algo-sans/sans/workspace"
)

// Apply divides the detector pixels of sample by the transmission curve
// stored under curveName. The curve is rebinned onto the sample binning
// under the transient name curveName+"_rebin", which is removed before
// returning. With a non-nil angle correction each pixel is divided by the
// effective transmission at its scattering angle. Monitor spectra are left
// unchanged. sample is modified in place.
func Apply(s workspace.Store, sample *frame.Frame, curveName string, angle geometry.AngleCorrection) error {
	curve, err := workspace.Curve(s, curveName)
	if err != nil {
		return err
	}

	if !curve.Binning.Covers(sample.Binning) {
		return &Error{Kind: ErrAlignment, Err: fmt.Errorf("transmission %s spans [%g, %g], sample spans [%g, %g]",
			curveName, curve.Binning.Min(), curve.Binning.Max(), sample.Binning.Min(), sample.Binning.Max())}
	}

	aligned, err := curve.RebinTo(sample.Binning)
	if err != nil {
		return classify(fmt.Errorf("transmission: rebin %s: %w", curveName, err))
	}

	scope := workspace.NewScope(s)
	defer scope.Close()

	if err := scope.Put(curveName+"_rebin", aligned); err != nil {
		return err
	}

	for j, t := range aligned.Values {
		if !(t > 0) {
			b := aligned.Binning
			return &Error{Kind: ErrNumeric, Err: fmt.Errorf("%w: T=%g in bin [%g, %g)", ErrNonPositive, t, b.Edge(j), b.Edge(j+1))}
		}
	}

	if angle == nil {
		for i, p := range sample.Pixels {
			if !p.Monitor {
				divideRow(sample.Counts[i], sample.Variances[i], aligned.Values, aligned.Variances)
			}
		}

		return nil
	}

	return divideByAngle(sample, aligned, angle)
}

// divideRow divides counts by t in place, propagating the variance of both
// operands into vars.
func divideRow(counts, vars, t, vt []float64) {
	inv := make([]float64, len(t))
	inv2 := make([]float64, len(t))
	for j, v := range t {
		inv[j] = 1 / v
		inv2[j] = inv[j] * inv[j]
	}

	vecmath.MulBlockInPlace(counts, inv)
	vecmath.MulBlockInPlace(vars, inv2)

	for j, c := range counts {
		vars[j] += c * c * vt[j] * inv2[j]
	}
}

// divideByAngle computes the effective transmission of every pixel before
// touching f, so a failure leaves the sample unchanged.
func divideByAngle(f *frame.Frame, aligned *frame.Curve, angle geometry.AngleCorrection) error {
	type row struct {
		i     int
		t, vt []float64
	}

	rows := make([]row, 0, len(f.Pixels))

	for i, p := range f.Pixels {
		if p.Monitor {
			continue
		}

		a, err := geometry.ScatteringAngle(p)
		if err != nil {
			return &Error{Kind: ErrGeometry, Err: err}
		}

		r := row{i: i, t: make([]float64, aligned.Binning.Len()), vt: make([]float64, aligned.Binning.Len())}
		for j, t := range aligned.Values {
			te := angle.Transmission(t, a)
			if !(te > 0) {
				return &Error{Kind: ErrNumeric, Err: fmt.Errorf("%w: effective T=%g for pixel %d", ErrNonPositive, te, p.ID)}
			}

			d := derivative(angle, t, a)
			r.t[j] = te
			r.vt[j] = d * d * aligned.Variances[j]
		}

		rows = append(rows, r)
	}

	for _, r := range rows {
		divideRow(f.Counts[r.i], f.Variances[r.i], r.t, r.vt)
	}

	return nil
}

// derivative estimates dT_eff/dT by a central difference.
func derivative(angle geometry.AngleCorrection, t, twoTheta float64) float64 {
	h := 1e-6 * t
	return (angle.Transmission(t+h, twoTheta) - angle.Transmission(t-h, twoTheta)) / (2 * h)
}
