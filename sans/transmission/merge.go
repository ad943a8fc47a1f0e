package transmission

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/frame"
)

// Band is a wavelength interval [Min, Max] in Angstrom.
type Band struct {
	Min, Max float64
}

func (b Band) valid() bool { return b.Min < b.Max }

// frameBand names the run properties holding one frame's band and the store
// suffix of its intermediate results.
type frameBand struct {
	minKey, maxKey string
	suffix         string
}

var frameBands = [2]frameBand{
	{minKey: "wavelength_min", maxKey: "wavelength_max", suffix: "_frame1"},
	{minKey: "wavelength_min_frame2", maxKey: "wavelength_max_frame2", suffix: "_frame2"},
}

// resolveBands returns the two frame bands, either from the request or from
// the run properties of sample. Frame 2 must start at or after the end of
// frame 1.
func resolveBands(requested []Band, sample *frame.Frame) ([2]Band, error) {
	var bands [2]Band

	if len(requested) > 0 {
		if len(requested) != len(bands) {
			return bands, configError("Bands", fmt.Errorf("frame skipping needs 2 bands, got %d", len(requested)))
		}

		copy(bands[:], requested)
	} else {
		for i, fb := range frameBands {
			lo, err := sample.RunProperty(fb.minKey)
			if err != nil {
				return bands, configError(fb.minKey, err)
			}

			hi, err := sample.RunProperty(fb.maxKey)
			if err != nil {
				return bands, configError(fb.maxKey, err)
			}

			bands[i] = Band{Min: lo, Max: hi}
		}
	}

	for i, b := range bands {
		if !b.valid() {
			return bands, configError(frameBands[i].minKey, fmt.Errorf("%w: [%g, %g]", binning.ErrInvalidRange, b.Min, b.Max))
		}
	}

	if bands[0].Max > bands[1].Min {
		return bands, configError(frameBands[1].minKey, fmt.Errorf("%w: frame 1 ends at %g, frame 2 starts at %g",
			binning.ErrOverlap, bands[0].Max, bands[1].Min))
	}

	return bands, nil
}

type mergeState int

const (
	frame1Pending mergeState = iota
	frame2Pending
	merged
)

var errMergeOrder = errors.New("transmission: frame merge out of order")

// frameMerger collects the per-frame curve pairs and concatenates them once
// both are present.
type frameMerger struct {
	state              mergeState
	fitted, unfitted   *frame.Curve
	pendingF, pendingU *frame.Curve
}

func (m *frameMerger) add(fitted, unfitted *frame.Curve) error {
	switch m.state {
	case frame1Pending:
		m.pendingF, m.pendingU = fitted, unfitted
		m.state = frame2Pending

		return nil
	case frame2Pending:
		f, err := MergeCurves(m.pendingF, fitted)
		if err != nil {
			return err
		}

		u, err := MergeCurves(m.pendingU, unfitted)
		if err != nil {
			return err
		}

		m.fitted, m.unfitted = f, u
		m.pendingF, m.pendingU = nil, nil
		m.state = merged

		return nil
	default:
		return errMergeOrder
	}
}

func (m *frameMerger) result() (fitted, unfitted *frame.Curve, err error) {
	if m.state != merged {
		return nil, nil, errMergeOrder
	}

	return m.fitted, m.unfitted, nil
}

// MergeCurves concatenates two curves with disjoint wavelength domains, a
// before b. A gap between them is filled by one bin holding the mean of the
// neighbouring values and the larger of their variances.
func MergeCurves(a, b *frame.Curve) (*frame.Curve, error) {
	edges, bridged, err := binning.Concat(a.Binning, b.Binning)
	if err != nil {
		return nil, &Error{Kind: ErrAlignment, Err: err}
	}

	n := edges.Len()
	out := &frame.Curve{
		Binning:    edges,
		Values:     make([]float64, 0, n),
		Variances:  make([]float64, 0, n),
		Provenance: a.Provenance,
	}

	out.Values = append(out.Values, a.Values...)
	out.Variances = append(out.Variances, a.Variances...)

	if bridged {
		la, fb := len(a.Values)-1, 0
		out.Values = append(out.Values, 0.5*(a.Values[la]+b.Values[fb]))
		out.Variances = append(out.Variances, math.Max(a.Variances[la], b.Variances[fb]))
	}

	out.Values = append(out.Values, b.Values...)
	out.Variances = append(out.Variances, b.Variances...)

	if err := out.Validate(); err != nil {
		return nil, &Error{Kind: ErrAlignment, Err: err}
	}

	return out, nil
}

// FrameSkippingProperty is the run property recording the acquisition mode.
const FrameSkippingProperty = "is_frame_skipping"

// FrameSkipping reports whether f was recorded in frame-skipping mode. known
// is false when the run does not record the mode.
func FrameSkipping(f *frame.Frame) (skipping, known bool) {
	v, ok := f.Run[FrameSkippingProperty]
	if !ok {
		return false, false
	}

	return v != 0, true
}
