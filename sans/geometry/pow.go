//go:build !fastmath

package geometry

import "math"

// pow computes t^e.
func pow(t, e float64) float64 {
	return math.Pow(t, e)
}
