//go:build fastmath

package geometry

import "github.com/meko-christian/algo-approx"

// pow computes t^e as exp(e*ln t) using fast approximations.
func pow(t, e float64) float64 {
	return approx.FastExp(e * approx.FastLog(t))
}
