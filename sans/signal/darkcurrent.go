package signal

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/frame"
)

// DurationProperty is the run property holding the acquisition time in seconds.
const DurationProperty = "duration"

// DarkCurrentCorrector subtracts a dark-current measurement from a frame.
// It returns a new frame and a status message.
type DarkCurrentCorrector interface {
	Subtract(data *frame.Frame, darkFile string) (*frame.Frame, string, error)
}

// DarkCurrentFactory builds a corrector that loads dark files with loader.
type DarkCurrentFactory func(loader frame.Loader) DarkCurrentCorrector

// DarkCurrentCorrectors returns a registry holding the built-in correctors:
// "time-scaled" and "unscaled".
func DarkCurrentCorrectors() *registry.Registry[DarkCurrentFactory] {
	r := registry.New[DarkCurrentFactory]("dark current algorithm")
	r.MustRegister("time-scaled", func(l frame.Loader) DarkCurrentCorrector {
		return &Subtractor{Loader: l, ScaleByDuration: true}
	})
	r.MustRegister("unscaled", func(l frame.Loader) DarkCurrentCorrector {
		return &Subtractor{Loader: l}
	})

	return r
}

// Subtractor subtracts a dark frame pixel by pixel from detector spectra.
// Monitor spectra are left untouched. With ScaleByDuration the dark frame is
// scaled by the ratio of the two acquisition times first.
//
// Loaded dark frames are memoised by filename until Forget is called.
type Subtractor struct {
	Loader          frame.Loader
	ScaleByDuration bool

	mu    sync.Mutex
	darks map[string]*frame.Frame
}

// Forget drops every memoised dark frame.
func (s *Subtractor) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.darks = nil
}

// Subtract implements DarkCurrentCorrector.
func (s *Subtractor) Subtract(data *frame.Frame, darkFile string) (*frame.Frame, string, error) {
	dark, err := s.load(darkFile)
	if err != nil {
		return nil, "", err
	}

	if !dark.SameLayout(data) {
		return nil, "", fmt.Errorf("signal: dark current %s: %w", filepath.Base(darkFile), frame.ErrLayoutMismatch)
	}

	if !dark.Binning.Equal(data.Binning) {
		dark, err = dark.RebinTo(data.Binning)
		if err != nil {
			return nil, "", fmt.Errorf("signal: align dark current: %w", err)
		}
	}

	scale := 1.0
	if s.ScaleByDuration {
		scale, err = durationRatio(data, dark)
		if err != nil {
			return nil, "", err
		}
	}

	out := data.Clone()
	for i, p := range out.Pixels {
		if p.Monitor {
			continue
		}

		for j := range out.Counts[i] {
			out.Counts[i][j] -= scale * dark.Counts[i][j]
			out.Variances[i][j] += scale * scale * dark.Variances[i][j]
		}
	}

	msg := fmt.Sprintf("Dark current subtracted: %s (scale %.4g)", filepath.Base(darkFile), scale)

	return out, msg, nil
}

func (s *Subtractor) load(darkFile string) (*frame.Frame, error) {
	if strings.TrimSpace(darkFile) == "" {
		return nil, fmt.Errorf("%w: empty dark current filename", ErrMissingAlgorithm)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.darks[darkFile]; ok {
		return d, nil
	}

	if s.Loader == nil {
		return nil, fmt.Errorf("%w: no loader for dark current", ErrMissingAlgorithm)
	}

	d, _, err := s.Loader.Load(darkFile, frame.LoadOptions{})
	if err != nil {
		return nil, fmt.Errorf("signal: load dark current %s: %w", filepath.Base(darkFile), err)
	}

	if s.darks == nil {
		s.darks = map[string]*frame.Frame{}
	}
	s.darks[darkFile] = d

	return d, nil
}

func durationRatio(data, dark *frame.Frame) (float64, error) {
	td, err := data.RunProperty(DurationProperty)
	if err != nil {
		return 0, fmt.Errorf("%w: data %s", ErrMissingRunProperty, DurationProperty)
	}

	tk, err := dark.RunProperty(DurationProperty)
	if err != nil {
		return 0, fmt.Errorf("%w: dark current %s", ErrMissingRunProperty, DurationProperty)
	}

	if tk <= 0 {
		return 0, fmt.Errorf("%w: dark current %s is %g", ErrZeroNormalisation, DurationProperty, tk)
	}

	return td / tk, nil
}
