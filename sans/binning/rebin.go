package binning

import (
	"fmt"
	"math"
)

// Mode selects how values are redistributed by Rebin.
type Mode int

const (
	// Counts treats values as bin-integrated; each source bin contributes
	// in proportion to the fraction of its width overlapping the target bin.
	Counts Mode = iota

	// Distribution treats values as densities; each target bin is the
	// overlap-weighted mean of the source bins it intersects.
	Distribution
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Counts:
		return "counts"
	case Distribution:
		return "distribution"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Rebin moves values and their variances from src onto dst.
// dst must lie inside src (ErrNotCovered otherwise). Rebinning onto equal
// edges returns copies of the inputs unchanged.
func Rebin(src Binning, values, variances []float64, dst Binning, mode Mode) ([]float64, []float64, error) {
	if len(values) != src.Len() || len(variances) != src.Len() {
		return nil, nil, fmt.Errorf("%w: %d values, %d variances for %d bins",
			ErrLengthMismatch, len(values), len(variances), src.Len())
	}

	if src.Equal(dst) {
		outY := make([]float64, len(values))
		outV := make([]float64, len(variances))
		copy(outY, values)
		copy(outV, variances)

		return outY, outV, nil
	}

	if !src.Covers(dst) {
		return nil, nil, fmt.Errorf("%w: %v onto %v", ErrNotCovered, src, dst)
	}

	outY := make([]float64, dst.Len())
	outV := make([]float64, dst.Len())

	i := 0
	for j := 0; j < dst.Len(); j++ {
		lo, hi := dst.edges[j], dst.edges[j+1]

		for i < src.Len() && src.edges[i+1] <= lo {
			i++
		}

		var sumW, sumY, sumV float64
		for k := i; k < src.Len() && src.edges[k] < hi; k++ {
			overlap := math.Min(hi, src.edges[k+1]) - math.Max(lo, src.edges[k])
			if overlap <= 0 {
				continue
			}

			w := overlap
			if mode == Counts {
				w = overlap / src.Width(k)
			}

			sumW += w
			sumY += w * values[k]
			sumV += w * w * variances[k]
		}

		switch mode {
		case Counts:
			outY[j] = sumY
			outV[j] = sumV
		case Distribution:
			if sumW > 0 {
				outY[j] = sumY / sumW
				outV[j] = sumV / (sumW * sumW)
			}
		}
	}

	return outY, outV, nil
}
