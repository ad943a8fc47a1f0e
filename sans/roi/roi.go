// Package roi selects the detector pixels that see the direct beam.
package roi

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sans/sans/frame"
)

// PixelSizeParam is the instrument parameter holding the pixel pitch in millimetres.
const PixelSizeParam = "x-pixel-size"

// Errors returned by region selection.
var (
	ErrInvalidRadius    = errors.New("roi: beam radius must be positive")
	ErrInvalidPixelSize = errors.New("roi: pixel size must be positive")
	ErrNoPixels         = errors.New("roi: no pixels inside the beam region; check the beam center values")
)

// Region is the set of pixels treated as the direct beam.
type Region struct {
	// Indices are frame row indices in ascending order.
	Indices []int
	// IDs are the pixel IDs matching Indices.
	IDs []int
	// Primary is the first selected row, used as the transmission monitor channel.
	Primary int
	// PrimaryID is the pixel ID of Primary.
	PrimaryID int
}

// Len returns the number of selected pixels.
func (r Region) Len() int { return len(r.Indices) }

// Contains reports whether row index i is part of the region.
func (r Region) Contains(i int) bool {
	for _, idx := range r.Indices {
		if idx == i {
			return true
		}
		if idx > i {
			return false
		}
	}

	return false
}

// SelectDisk returns the unmasked detector pixels within radiusPixels of the
// beam axis. The frame must already be centred so that the beam sits at the
// origin. pixelSize is in millimetres; positions are in metres. The query is
// an infinite cylinder along the beam, so Z is ignored.
func SelectDisk(f *frame.Frame, radiusPixels, pixelSize float64) (Region, error) {
	if !(radiusPixels > 0) {
		return Region{}, fmt.Errorf("%w: %g", ErrInvalidRadius, radiusPixels)
	}

	if !(pixelSize > 0) {
		return Region{}, fmt.Errorf("%w: %g", ErrInvalidPixelSize, pixelSize)
	}

	r := radiusPixels * pixelSize / 1000
	limit := r * r * (1 + 1e-12)

	var region Region
	for i, p := range f.Pixels {
		if p.Masked || p.Monitor {
			continue
		}

		if p.X*p.X+p.Y*p.Y <= limit {
			region.Indices = append(region.Indices, i)
			region.IDs = append(region.IDs, p.ID)
		}
	}

	if len(region.Indices) == 0 {
		return Region{}, fmt.Errorf("%w (radius %g pixels = %g m)", ErrNoPixels, radiusPixels, r)
	}

	region.Primary = region.Indices[0]
	region.PrimaryID = region.IDs[0]

	return region, nil
}

// Select reads the pixel size from the frame's instrument and calls SelectDisk.
func Select(f *frame.Frame, radiusPixels float64) (Region, error) {
	size, err := f.Instrument.Param(PixelSizeParam)
	if err != nil {
		return Region{}, err
	}

	return SelectDisk(f, radiusPixels, size)
}
