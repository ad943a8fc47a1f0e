package signal

import (
	"fmt"
	"maps"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/roi"
)

// ComplementID is the pixel ID of the channel summing every unmasked
// detector pixel outside the region.
const ComplementID = -1

// Group collapses f into the region channel (ID = region.PrimaryID), the
// complement channel (ID = ComplementID) and every monitor spectrum kept
// ungrouped, in that order. Masked pixels contribute to neither sum.
func Group(f *frame.Frame, region roi.Region) (*frame.Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	for _, idx := range region.Indices {
		if idx < 0 || idx >= f.Len() {
			return nil, fmt.Errorf("signal: region index %d outside frame of %d pixels", idx, f.Len())
		}
	}

	primary := f.Pixels[region.Primary]
	pixels := []frame.Pixel{
		{ID: region.PrimaryID, X: primary.X, Y: primary.Y, Z: primary.Z},
		{ID: ComplementID},
	}

	var monitors []int
	for i, p := range f.Pixels {
		if p.Monitor {
			pixels = append(pixels, p)
			monitors = append(monitors, i)
		}
	}

	out := frame.New(pixels, f.Binning)
	out.Distribution = f.Distribution
	out.Instrument.Name = f.Instrument.Name
	maps.Copy(out.Run, f.Run)
	maps.Copy(out.Instrument.Parameters, f.Instrument.Parameters)

	for i, p := range f.Pixels {
		if p.Monitor || p.Masked {
			continue
		}

		ch := 1
		if region.Contains(i) {
			ch = 0
		}

		vecmath.AddBlockInPlace(out.Counts[ch], f.Counts[i])
		vecmath.AddBlockInPlace(out.Variances[ch], f.Variances[i])
	}

	for k, i := range monitors {
		copy(out.Counts[2+k], f.Counts[i])
		copy(out.Variances[2+k], f.Variances[i])
	}

	return out, nil
}
