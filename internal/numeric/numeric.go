// Package numeric holds small floating-point helpers shared by the reduction packages.
package numeric

import "math"

const defaultEpsilon = 1e-12

// NearlyEqual reports whether a and b are equal within eps.
// The comparison is relative for large magnitudes and absolute near zero.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// Ratio returns a/b and the propagated variance of the quotient given the
// variances va and vb of the operands. The caller guarantees b != 0.
func Ratio(a, va, b, vb float64) (float64, float64) {
	r := a / b
	if a == 0 {
		return 0, va / (b * b)
	}

	return r, r * r * (va/(a*a) + vb/(b*b))
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
