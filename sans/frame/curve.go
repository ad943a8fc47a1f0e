package frame

import (
	"fmt"

	"github.com/cwbudde/algo-sans/sans/binning"
)

// Provenance records where a transmission curve came from.
type Provenance struct {
	SampleFile string
	EmptyFile  string
	Fitted     bool
	Method     string
}

// Curve is a transmission ratio per wavelength bin with its variance.
type Curve struct {
	Binning    binning.Binning
	Values     []float64
	Variances  []float64
	Provenance Provenance
}

// Validate checks value and variance lengths against the binning.
func (c *Curve) Validate() error {
	if len(c.Values) != c.Binning.Len() || len(c.Variances) != c.Binning.Len() {
		return fmt.Errorf("%w: curve has %d values, %d variances for %d bins",
			ErrShape, len(c.Values), len(c.Variances), c.Binning.Len())
	}

	return nil
}

// Clone returns a deep copy of c.
func (c *Curve) Clone() *Curve {
	return &Curve{
		Binning:    c.Binning,
		Values:     append([]float64(nil), c.Values...),
		Variances:  append([]float64(nil), c.Variances...),
		Provenance: c.Provenance,
	}
}

// RebinTo returns a copy of c on b. Transmission is a ratio, so values are
// averaged over overlaps rather than summed.
func (c *Curve) RebinTo(b binning.Binning) (*Curve, error) {
	y, v, err := binning.Rebin(c.Binning, c.Values, c.Variances, b, binning.Distribution)
	if err != nil {
		return nil, err
	}

	return &Curve{Binning: b, Values: y, Variances: v, Provenance: c.Provenance}, nil
}

// Loader resolves a data file to a frame. Implementations apply the beam
// centre so that the direct beam sits at the origin.
type Loader interface {
	Load(filename string, opts LoadOptions) (*Frame, string, error)
}

// LoadOptions carries per-call loader settings.
type LoadOptions struct {
	// BeamCenter, when set, overrides the centre recorded in the file.
	BeamCenter *Point
}

// Point is a position on the detector plane in metres.
type Point struct {
	X, Y float64
}
