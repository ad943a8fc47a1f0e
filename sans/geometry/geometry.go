// Package geometry computes scattering angles of detector pixels and the
// angle dependence of a zero-angle transmission.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-sans/sans/frame"
)

// ErrBehindSample is returned for a pixel that is not downstream of the sample.
var ErrBehindSample = errors.New("geometry: pixel is not downstream of the sample")

// ScatteringAngle returns 2θ in radians for a pixel whose position is given
// relative to the sample, with the beam along +Z.
func ScatteringAngle(p frame.Pixel) (float64, error) {
	if !(p.Z > 0) {
		return 0, fmt.Errorf("%w: pixel %d at z=%g", ErrBehindSample, p.ID, p.Z)
	}

	return math.Atan2(math.Hypot(p.X, p.Y), p.Z), nil
}

// AngleCorrection maps a zero-angle transmission to the effective
// transmission seen at scattering angle twoTheta.
type AngleCorrection interface {
	Transmission(t, twoTheta float64) float64
}

// AngleCorrectionFunc adapts a function to AngleCorrection.
type AngleCorrectionFunc func(t, twoTheta float64) float64

// Transmission implements AngleCorrection.
func (f AngleCorrectionFunc) Transmission(t, twoTheta float64) float64 { return f(t, twoTheta) }

// PathLength averages the path through a flat sample: the incident path has
// length 1 and the scattered path 1/cos(2θ), so T_eff = T^((1 + 1/cos 2θ)/2).
type PathLength struct{}

// Transmission implements AngleCorrection.
func (PathLength) Transmission(t, twoTheta float64) float64 {
	if twoTheta == 0 {
		return t
	}

	return pow(t, Exponent(twoTheta))
}

// Exponent returns the path-length exponent (1 + 1/cos 2θ)/2.
func Exponent(twoTheta float64) float64 {
	return 0.5 * (1 + 1/math.Cos(twoTheta))
}
