package frameio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/frame"
)

// ErrNoSidecar is returned when a frame table has no metadata file.
var ErrNoSidecar = errors.New("frameio: missing sidecar")

// SidecarPath returns the metadata path belonging to a frame table.
func SidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".yaml"
}

// ReadFrame reads the frame table at path and its sidecar. Pixel positions
// are returned as stored; the sidecar beam centre is returned separately.
func ReadFrame(path string) (*frame.Frame, *Point, error) {
	meta, err := readSidecar(SidecarPath(path))
	if err != nil {
		return nil, nil, err
	}

	b, err := binning.New(meta.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("frameio: %s edges: %w", filepath.Base(path), err)
	}

	rows, err := readTable[PixelRecord](path)
	if err != nil {
		return nil, nil, err
	}

	f := &frame.Frame{
		Pixels:       make([]frame.Pixel, len(rows)),
		Binning:      b,
		Counts:       make([][]float64, len(rows)),
		Variances:    make([][]float64, len(rows)),
		Distribution: meta.Distribution,
		Run:          map[string]float64{},
		Instrument: frame.Instrument{
			Name:       meta.Instrument,
			Parameters: map[string]float64{},
		},
	}

	for k, v := range meta.Run {
		f.Run[k] = v
	}

	for k, v := range meta.Parameters {
		f.Instrument.Parameters[k] = v
	}

	for i, r := range rows {
		f.Pixels[i] = frame.Pixel{
			ID:      int(r.ID),
			X:       r.X,
			Y:       r.Y,
			Z:       r.Z,
			Masked:  r.Masked,
			Monitor: r.Monitor,
		}
		f.Counts[i] = r.Counts
		f.Variances[i] = r.Variances

		// Rows written without variances are Poisson counts.
		if len(r.Variances) == 0 && len(r.Counts) > 0 {
			f.Variances[i] = append([]float64(nil), r.Counts...)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, nil, fmt.Errorf("frameio: %s: %w", filepath.Base(path), err)
	}

	return f, meta.BeamCenter, nil
}

// WriteFrame writes f to a frame table at path and its sidecar.
func WriteFrame(path string, f *frame.Frame) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("frameio: %w", err)
	}

	rows := make([]PixelRecord, len(f.Pixels))
	for i, p := range f.Pixels {
		rows[i] = PixelRecord{
			ID:        int64(p.ID),
			X:         p.X,
			Y:         p.Y,
			Z:         p.Z,
			Masked:    p.Masked,
			Monitor:   p.Monitor,
			Counts:    f.Counts[i],
			Variances: f.Variances[i],
		}
	}

	if err := writeTable(path, rows); err != nil {
		return err
	}

	return writeSidecar(SidecarPath(path), Sidecar{
		Instrument:   f.Instrument.Name,
		Parameters:   f.Instrument.Parameters,
		Edges:        f.Binning.Edges(),
		Distribution: f.Distribution,
		Run:          f.Run,
	})
}

func readSidecar(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Sidecar{}, fmt.Errorf("%w: %s", ErrNoSidecar, path)
	}
	if err != nil {
		return Sidecar{}, fmt.Errorf("frameio: read %s: %w", path, err)
	}

	var meta Sidecar
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Sidecar{}, fmt.Errorf("frameio: parse %s: %w", path, err)
	}

	return meta, nil
}

func writeSidecar(path string, meta Sidecar) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("frameio: encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("frameio: write %s: %w", path, err)
	}

	return nil
}
