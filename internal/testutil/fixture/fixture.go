// Package fixture builds synthetic detector frames for tests.
package fixture

import (
	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/frame"
)

// Pixel IDs of the two monitor spectra every fixture carries.
const (
	MonitorID = 0
	TimerID   = 1
	firstID   = 2
)

// Detector describes a square detector centred on the beam.
type Detector struct {
	Size      int     // pixels per side; odd sizes put a pixel on the beam axis
	PixelSize float64 // millimetres
	Distance  float64 // sample-to-detector distance in metres
	Binning   binning.Binning
}

// Default returns a 5x5 detector with 5.5 mm pixels at 4 m over [1, 9) in unit bins.
func Default() Detector {
	return Detector{
		Size:      5,
		PixelSize: 5.5,
		Distance:  4,
		Binning:   binning.MustNew(1, 2, 3, 4, 5, 6, 7, 8, 9),
	}
}

// Frame builds a frame whose detector counts come from det(p, bin) and whose
// monitor and timer counts are constant. Variances equal counts.
func (d Detector) Frame(det func(p frame.Pixel, bin int) float64, monitor, timer float64) *frame.Frame {
	pitch := d.PixelSize / 1000
	half := float64(d.Size-1) / 2

	pixels := []frame.Pixel{
		{ID: MonitorID, Monitor: true},
		{ID: TimerID, Monitor: true},
	}

	id := firstID
	for row := 0; row < d.Size; row++ {
		for col := 0; col < d.Size; col++ {
			pixels = append(pixels, frame.Pixel{
				ID: id,
				X:  (float64(col) - half) * pitch,
				Y:  (float64(row) - half) * pitch,
				Z:  d.Distance,
			})
			id++
		}
	}

	f := frame.New(pixels, d.Binning)
	for i, p := range f.Pixels {
		for j := range f.Counts[i] {
			var v float64
			switch p.ID {
			case MonitorID:
				v = monitor
			case TimerID:
				v = timer
			default:
				v = det(p, j)
			}
			f.Counts[i][j] = v
			f.Variances[i][j] = v
		}
	}

	f.Instrument.Name = "EQSANS"
	f.Instrument.Parameters["x-pixel-size"] = d.PixelSize
	f.Instrument.Parameters["default-incident-monitor-spectrum"] = MonitorID
	f.Instrument.Parameters["default-incident-timer-spectrum"] = TimerID
	f.Run["duration"] = 100
	f.Run["proton_charge"] = 10

	return f
}

// Uniform builds a frame with the same count in every detector bin.
func (d Detector) Uniform(counts, monitor float64) *frame.Frame {
	return d.Frame(func(frame.Pixel, int) float64 { return counts }, monitor, monitor)
}

// Beam builds a frame with beam counts inside radius pixels of the centre
// and background counts elsewhere.
func (d Detector) Beam(radius, beam, background, monitor float64) *frame.Frame {
	r := radius * d.PixelSize / 1000
	return d.Frame(func(p frame.Pixel, _ int) float64 {
		if p.X*p.X+p.Y*p.Y <= r*r*(1+1e-9) {
			return beam
		}
		return background
	}, monitor, monitor)
}

// CentreID returns the pixel ID on the beam axis for odd sizes.
func (d Detector) CentreID() int {
	return firstID + (d.Size/2)*d.Size + d.Size/2
}
