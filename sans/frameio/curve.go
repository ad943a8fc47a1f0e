package frameio

import (
	"fmt"
	"path/filepath"

	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/frame"
)

// WriteCurve writes c to a curve table at path.
func WriteCurve(path string, c *frame.Curve) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("frameio: %w", err)
	}

	rows := make([]CurveRecord, len(c.Values))
	for i := range rows {
		rows[i] = CurveRecord{
			Low:      c.Binning.Edge(i),
			High:     c.Binning.Edge(i + 1),
			Value:    c.Values[i],
			Variance: c.Variances[i],
		}
	}

	return writeTable(path, rows)
}

// ReadCurve reads a curve table written by WriteCurve. Bins must be
// contiguous.
func ReadCurve(path string) (*frame.Curve, error) {
	rows, err := readTable[CurveRecord](path)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("frameio: %s: %w", filepath.Base(path), binning.ErrTooFewEdges)
	}

	edges := make([]float64, 0, len(rows)+1)
	c := &frame.Curve{
		Values:    make([]float64, len(rows)),
		Variances: make([]float64, len(rows)),
	}

	for i, r := range rows {
		if i > 0 && r.Low != rows[i-1].High {
			return nil, fmt.Errorf("frameio: %s: bin %d starts at %g, previous ends at %g",
				filepath.Base(path), i, r.Low, rows[i-1].High)
		}

		edges = append(edges, r.Low)
		c.Values[i] = r.Value
		c.Variances[i] = r.Variance
	}
	edges = append(edges, rows[len(rows)-1].High)

	c.Binning, err = binning.New(edges)
	if err != nil {
		return nil, fmt.Errorf("frameio: %s: %w", filepath.Base(path), err)
	}

	return c, nil
}
