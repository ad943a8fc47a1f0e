package frameio

import (
	"fmt"
	"path/filepath"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/frame"
)

// Extension is the file extension of frame tables.
const Extension = ".parquet"

// Loader reads frame tables and moves the beam centre to the origin.
// Relative filenames are resolved against Dir; a missing extension
// defaults to Extension.
type Loader struct {
	Dir string
}

// Path resolves filename the way Load does.
func (l Loader) Path(filename string) string {
	path := filename
	if filepath.Ext(path) == "" {
		path += Extension
	}

	if l.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Dir, path)
	}

	return path
}

// Load implements frame.Loader. The beam centre comes from opts when set,
// otherwise from the sidecar; without either the positions are kept.
func (l Loader) Load(filename string, opts frame.LoadOptions) (*frame.Frame, string, error) {
	path := l.Path(filename)

	f, stored, err := ReadFrame(path)
	if err != nil {
		return nil, "", err
	}

	var center *frame.Point
	switch {
	case opts.BeamCenter != nil:
		center = opts.BeamCenter
	case stored != nil:
		center = &frame.Point{X: stored.X, Y: stored.Y}
	}

	msg := fmt.Sprintf("Loaded %s: %d pixels, %d bins [%g, %g]",
		filepath.Base(path), f.Len(), f.Binning.Len(), f.Binning.Min(), f.Binning.Max())

	if center != nil {
		Recenter(f, *center)
		msg += fmt.Sprintf(", beam center (%g, %g)", center.X, center.Y)
	}

	return f, msg, nil
}

// Recenter shifts every detector pixel so that c is at the origin.
// Monitor positions are left alone.
func Recenter(f *frame.Frame, c frame.Point) {
	for i := range f.Pixels {
		if f.Pixels[i].Monitor {
			continue
		}

		f.Pixels[i].X -= c.X
		f.Pixels[i].Y -= c.Y
	}
}

// Loaders returns a loader registry holding the parquet loader under "parquet".
func Loaders(dir string) *registry.Registry[frame.Loader] {
	r := registry.New[frame.Loader]("load algorithm")
	r.MustRegister("parquet", Loader{Dir: dir})

	return r
}
