package transmission

import (
	"fmt"
	"testing"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/fit"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/reduction"
)

// memLoader serves clones of in-memory frames by filename.
type memLoader struct {
	frames map[string]*frame.Frame
	calls  int
	opts   []frame.LoadOptions
}

func (l *memLoader) Load(name string, opts frame.LoadOptions) (*frame.Frame, string, error) {
	l.calls++
	l.opts = append(l.opts, opts)

	f, ok := l.frames[name]
	if !ok {
		return nil, "", fmt.Errorf("no such file %s", name)
	}

	return f.Clone(), "Loaded " + name, nil
}

func loaders(l frame.Loader) *registry.Registry[frame.Loader] {
	r := registry.New[frame.Loader]("loader")
	r.MustRegister(DefaultLoader, l)
	return r
}

type countingFitter struct {
	fit.Fitter
	calls int
}

func (c *countingFitter) Fit(x, y, v []float64) (fit.Result, error) {
	c.calls++
	return c.Fitter.Fit(x, y, v)
}

func newConfig(t *testing.T, props map[string]any) *reduction.Config {
	t.Helper()

	cfg := reduction.NewConfig()
	for k, v := range props {
		if err := cfg.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}

	return cfg
}

func constantCurve(t *testing.T, edges []float64, value float64) *frame.Curve {
	t.Helper()

	b := mustBinning(t, edges...)
	c := &frame.Curve{
		Binning:   b,
		Values:    make([]float64, b.Len()),
		Variances: make([]float64, b.Len()),
	}
	for i := range c.Values {
		c.Values[i] = value
	}

	return c
}
