package signal

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/reduction"
	"github.com/cwbudde/algo-sans/sans/roi"
)

// DarkCurrent selects which dark-current subtraction to run.
type DarkCurrent struct {
	// Filename is the dark-current data file.
	Filename string
	// UseSampleDarkCurrent selects the DarkCurrentAlgorithm corrector
	// instead of DefaultDarkCurrentAlgorithm.
	UseSampleDarkCurrent bool
}

// Requested reports whether any subtraction will run.
func (dc DarkCurrent) Requested() bool {
	return dc.UseSampleDarkCurrent || strings.TrimSpace(dc.Filename) != ""
}

// Monitors is the reducer output: two binning-aligned grouped frames.
type Monitors struct {
	Sample *frame.Frame
	Empty  *frame.Frame
	// PrimaryID is the channel ID of the direct-beam sum.
	PrimaryID int
	// NormalisationID is the monitor or timer channel ID, or NoChannel for
	// run-property normalisation.
	NormalisationID int
}

// Reducer runs dark-current subtraction, grouping and normalisation.
type Reducer struct {
	SampleDark  DarkCurrentCorrector
	DefaultDark DarkCurrentCorrector
	Normalizer  Normalizer
}

// NewReducer resolves the correctors and normaliser named in cfg. Dark
// correctors are optional; a missing normaliser is an error.
func NewReducer(cfg *reduction.Config, loader frame.Loader,
	darks *registry.Registry[DarkCurrentFactory], norms *registry.Registry[Normalizer],
) (*Reducer, error) {
	n, err := ResolveNormalizer(cfg, norms)
	if err != nil {
		return nil, err
	}

	r := &Reducer{Normalizer: n}

	r.SampleDark, err = resolveDark(cfg, reduction.KeyDarkCurrentAlgorithm, loader, darks)
	if err != nil {
		return nil, err
	}

	r.DefaultDark, err = resolveDark(cfg, reduction.KeyDefaultDarkCurrentAlgorithm, loader, darks)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func resolveDark(cfg *reduction.Config, key string, loader frame.Loader, darks *registry.Registry[DarkCurrentFactory]) (DarkCurrentCorrector, error) {
	if !cfg.Has(key) {
		return nil, nil
	}

	name, err := cfg.String(key)
	if err != nil {
		return nil, err
	}

	factory, err := darks.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownAlgorithm, key, err)
	}

	return factory(loader), nil
}

// ForgetDarkCurrent drops dark frames memoised by the correctors, so the
// next subtraction reads the dark files again.
func (r *Reducer) ForgetDarkCurrent() {
	for _, c := range []DarkCurrentCorrector{r.SampleDark, r.DefaultDark} {
		if f, ok := c.(interface{ Forget() }); ok {
			f.Forget()
		}
	}
}

// CheckDarkCurrent reports a configuration error when dc requests a
// corrector that was not configured.
func (r *Reducer) CheckDarkCurrent(dc DarkCurrent) error {
	switch {
	case dc.UseSampleDarkCurrent && r.SampleDark == nil:
		return fmt.Errorf("%w: %s", ErrMissingAlgorithm, reduction.KeyDarkCurrentAlgorithm)
	case !dc.UseSampleDarkCurrent && dc.Requested() && r.DefaultDark == nil:
		return fmt.Errorf("%w: %s", ErrMissingAlgorithm, reduction.KeyDefaultDarkCurrentAlgorithm)
	default:
		return nil
	}
}

// SubtractDarkCurrent applies the corrector selected by dc. Without a
// filename or the sample flag it returns f unchanged.
func (r *Reducer) SubtractDarkCurrent(f *frame.Frame, dc DarkCurrent) (*frame.Frame, string, error) {
	if !dc.Requested() {
		return f, "", nil
	}

	if err := r.CheckDarkCurrent(dc); err != nil {
		return nil, "", err
	}

	c := r.DefaultDark
	if dc.UseSampleDarkCurrent {
		c = r.SampleDark
	}

	return c.Subtract(f, dc.Filename)
}

// Reduce turns the sample and empty frames into aligned monitor frames.
// The empty pair is rebinned onto the sample binning, never the reverse.
func (r *Reducer) Reduce(sample, empty *frame.Frame, region roi.Region, dc DarkCurrent) (Monitors, string, error) {
	if r.Normalizer == nil {
		return Monitors{}, "", ErrMissingNormalisation
	}

	if !sample.SameLayout(empty) {
		return Monitors{}, "", fmt.Errorf("signal: sample and empty: %w", frame.ErrLayoutMismatch)
	}

	var msgs []string

	s, msg, err := r.SubtractDarkCurrent(sample, dc)
	if err != nil {
		return Monitors{}, "", fmt.Errorf("signal: sample: %w", err)
	}
	if msg != "" {
		msgs = append(msgs, "Sample: "+msg)
	}

	e, msg, err := r.SubtractDarkCurrent(empty, dc)
	if err != nil {
		return Monitors{}, "", fmt.Errorf("signal: empty: %w", err)
	}
	if msg != "" {
		msgs = append(msgs, "Empty: "+msg)
	}

	sg, err := Group(s, region)
	if err != nil {
		return Monitors{}, "", err
	}

	eg, err := Group(e, region)
	if err != nil {
		return Monitors{}, "", err
	}

	sn, normID, err := r.Normalizer.Normalize(sg)
	if err != nil {
		return Monitors{}, "", fmt.Errorf("signal: normalise sample: %w", err)
	}

	en, _, err := r.Normalizer.Normalize(eg)
	if err != nil {
		return Monitors{}, "", fmt.Errorf("signal: normalise empty: %w", err)
	}

	if !en.Binning.Equal(sn.Binning) {
		en, err = en.RebinTo(sn.Binning)
		if err != nil {
			return Monitors{}, "", fmt.Errorf("signal: align empty to sample: %w", err)
		}
	}

	return Monitors{
		Sample:          sn,
		Empty:           en,
		PrimaryID:       region.PrimaryID,
		NormalisationID: normID,
	}, strings.Join(msgs, "\n"), nil
}
