package transmission

import (
	"fmt"

	"github.com/cwbudde/algo-sans/internal/numeric"
	"github.com/cwbudde/algo-sans/sans/fit"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/signal"
)

// Calculate returns the fitted and unfitted transmission from a pair of
// reduced monitor frames. The unfitted curve is the raw per-bin ratio of the
// direct-beam channels. Only a non-positive empty-beam bin is fatal here; a
// negative sample bin is left for the fitter to accept or reject.
func Calculate(m signal.Monitors, f fit.Fitter, prov frame.Provenance) (fitted, unfitted *frame.Curve, err error) {
	s := m.Sample.IndexOf(m.PrimaryID)
	e := m.Empty.IndexOf(m.PrimaryID)
	if s < 0 || e < 0 {
		return nil, nil, &Error{Kind: ErrAlignment, Err: fmt.Errorf("direct-beam channel %d missing from monitors", m.PrimaryID)}
	}

	if !m.Sample.Binning.Equal(m.Empty.Binning) {
		return nil, nil, &Error{Kind: ErrAlignment, Err: fmt.Errorf("monitor binnings differ: %s vs %s", m.Sample.Binning, m.Empty.Binning)}
	}

	b := m.Sample.Binning
	n := b.Len()

	unfitted = &frame.Curve{
		Binning:    b,
		Values:     make([]float64, n),
		Variances:  make([]float64, n),
		Provenance: prov,
	}
	unfitted.Provenance.Fitted = false
	unfitted.Provenance.Method = ""

	for j := 0; j < n; j++ {
		num, den := m.Sample.Counts[s][j], m.Empty.Counts[e][j]
		if !(den > 0) {
			return nil, nil, &Error{
				Kind: ErrNumeric,
				Err:  fmt.Errorf("%w: sample %g / empty %g in bin %d [%g, %g)", fit.ErrDegenerate, num, den, j, b.Edge(j), b.Edge(j+1)),
			}
		}

		unfitted.Values[j], unfitted.Variances[j] = numeric.Ratio(num, m.Sample.Variances[s][j], den, m.Empty.Variances[e][j])
	}

	res, err := f.Fit(b.Centers(), unfitted.Values, unfitted.Variances)
	if err != nil {
		return nil, nil, &Error{Kind: ErrNumeric, Err: fmt.Errorf("%s fit failed: %w", f.Name(), err)}
	}

	for j, v := range res.Values {
		if !numeric.IsFinite(v) {
			return nil, nil, &Error{Kind: ErrNumeric, Err: fmt.Errorf("%w: %s fit is not finite in bin %d", fit.ErrDegenerate, f.Name(), j)}
		}
	}

	fitted = &frame.Curve{
		Binning:    b,
		Values:     res.Values,
		Variances:  res.Variances,
		Provenance: prov,
	}
	fitted.Provenance.Fitted = true
	fitted.Provenance.Method = f.Name()

	return fitted, unfitted, nil
}
