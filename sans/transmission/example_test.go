package transmission_test

import (
	"fmt"

	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/transmission"
)

func ExampleMergeCurves() {
	frame1 := &frame.Curve{
		Binning:   binning.MustNew(2, 3, 4),
		Values:    []float64{0.80, 0.78},
		Variances: []float64{1e-4, 1e-4},
	}
	frame2 := &frame.Curve{
		Binning:   binning.MustNew(5, 6, 7),
		Values:    []float64{0.74, 0.72},
		Variances: []float64{2e-4, 2e-4},
	}

	merged, err := transmission.MergeCurves(frame1, frame2)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(merged.Binning.Edges())
	fmt.Println(merged.Values)
	// Output:
	// [2 3 4 5 6 7]
	// [0.8 0.78 0.76 0.74 0.72]
}
