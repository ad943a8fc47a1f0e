// Package frame defines the detector frame and transmission curve types that
// flow between reduction stages.
package frame

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sans/sans/binning"
)

// Errors returned by frame operations.
var (
	ErrShape           = errors.New("frame: counts/variances do not match pixels and binning")
	ErrLayoutMismatch  = errors.New("frame: pixel layouts differ")
	ErrMissingProperty = errors.New("frame: missing run property")
	ErrMissingParam    = errors.New("frame: missing instrument parameter")
)

// Pixel is one detector spectrum. Positions are in metres, relative to the
// beam centre once the loader has applied it.
type Pixel struct {
	ID      int
	X, Y, Z float64
	Masked  bool
	Monitor bool
}

// Instrument carries the instrument name and its numeric parameters
// (pixel size, monitor spectrum IDs).
type Instrument struct {
	Name       string
	Parameters map[string]float64
}

// Param returns the named instrument parameter.
func (in Instrument) Param(key string) (float64, error) {
	v, ok := in.Parameters[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}

	return v, nil
}

// Frame is a histogram of intensity against wavelength, one row per pixel.
type Frame struct {
	Pixels       []Pixel
	Binning      binning.Binning
	Counts       [][]float64
	Variances    [][]float64
	Distribution bool
	Run          map[string]float64
	Instrument   Instrument
}

// New allocates a zero-filled frame for pixels over b.
func New(pixels []Pixel, b binning.Binning) *Frame {
	f := &Frame{
		Pixels:    append([]Pixel(nil), pixels...),
		Binning:   b,
		Counts:    make([][]float64, len(pixels)),
		Variances: make([][]float64, len(pixels)),
		Run:       map[string]float64{},
		Instrument: Instrument{
			Parameters: map[string]float64{},
		},
	}

	for i := range pixels {
		f.Counts[i] = make([]float64, b.Len())
		f.Variances[i] = make([]float64, b.Len())
	}

	return f
}

// Validate checks that the counts and variances match the pixel list and binning.
func (f *Frame) Validate() error {
	n := f.Binning.Len()
	if len(f.Counts) != len(f.Pixels) || len(f.Variances) != len(f.Pixels) {
		return fmt.Errorf("%w: %d pixels, %d count rows, %d variance rows",
			ErrShape, len(f.Pixels), len(f.Counts), len(f.Variances))
	}

	for i := range f.Pixels {
		if len(f.Counts[i]) != n || len(f.Variances[i]) != n {
			return fmt.Errorf("%w: pixel %d has %d/%d values for %d bins",
				ErrShape, f.Pixels[i].ID, len(f.Counts[i]), len(f.Variances[i]), n)
		}
	}

	return nil
}

// Len returns the number of pixels.
func (f *Frame) Len() int { return len(f.Pixels) }

// IndexOf returns the row index of the pixel with the given ID, or -1.
func (f *Frame) IndexOf(id int) int {
	for i, p := range f.Pixels {
		if p.ID == id {
			return i
		}
	}

	return -1
}

// RunProperty returns the named run property.
func (f *Frame) RunProperty(key string) (float64, error) {
	v, ok := f.Run[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}

	return v, nil
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Pixels:       append([]Pixel(nil), f.Pixels...),
		Binning:      f.Binning,
		Counts:       cloneRows(f.Counts),
		Variances:    cloneRows(f.Variances),
		Distribution: f.Distribution,
		Run:          make(map[string]float64, len(f.Run)),
		Instrument: Instrument{
			Name:       f.Instrument.Name,
			Parameters: make(map[string]float64, len(f.Instrument.Parameters)),
		},
	}

	for k, v := range f.Run {
		out.Run[k] = v
	}

	for k, v := range f.Instrument.Parameters {
		out.Instrument.Parameters[k] = v
	}

	return out
}

// RebinTo returns a new frame with the same pixel layout moved onto b.
func (f *Frame) RebinTo(b binning.Binning) (*Frame, error) {
	mode := binning.Counts
	if f.Distribution {
		mode = binning.Distribution
	}

	out := f.Clone()
	out.Binning = b

	for i := range f.Pixels {
		y, v, err := binning.Rebin(f.Binning, f.Counts[i], f.Variances[i], b, mode)
		if err != nil {
			return nil, fmt.Errorf("frame: rebin pixel %d: %w", f.Pixels[i].ID, err)
		}

		out.Counts[i] = y
		out.Variances[i] = v
	}

	return out, nil
}

// SameLayout reports whether f and o have identical pixel ID sequences.
func (f *Frame) SameLayout(o *Frame) bool {
	if len(f.Pixels) != len(o.Pixels) {
		return false
	}

	for i := range f.Pixels {
		if f.Pixels[i].ID != o.Pixels[i].ID {
			return false
		}
	}

	return true
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}

	return out
}
