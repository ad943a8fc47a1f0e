package transmission

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cwbudde/algo-sans/internal/testutil"
	"github.com/cwbudde/algo-sans/internal/testutil/fixture"
	"github.com/cwbudde/algo-sans/sans/fit"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/reduction"
	"github.com/cwbudde/algo-sans/sans/signal"
	"github.com/cwbudde/algo-sans/sans/workspace"
)

const (
	sampleFile = "/data/EQSANS_1001.parquet"
	emptyFile  = "/data/EQSANS_1002.parquet"
	otherEmpty = "/data/EQSANS_2002.parquet"
	darkFile   = "/data/EQSANS_dark.parquet"
)

type harness struct {
	det    fixture.Detector
	loader *memLoader
	fitter *countingFitter
	store  *workspace.MemoryStore
	cfg    *reduction.Config
}

// newHarness serves a sample run with half the direct-beam counts of the
// empty run, so the transmission is 0.5 in every bin.
func newHarness(t *testing.T, props map[string]any) *harness {
	t.Helper()

	det := fixture.Default()
	if props == nil {
		props = map[string]any{reduction.KeyTransmissionNormalisation: "Monitor"}
	}

	return &harness{
		det: det,
		loader: &memLoader{frames: map[string]*frame.Frame{
			sampleFile: det.Beam(1, 50, 5, 1000),
			emptyFile:  det.Beam(1, 100, 5, 1000),
			otherEmpty: det.Beam(1, 200, 5, 1000),
			darkFile:   det.Uniform(1, 0),
		}},
		fitter: &countingFitter{Fitter: fit.Log{}},
		store:  workspace.NewMemoryStore(),
		cfg:    newConfig(t, props),
	}
}

func (h *harness) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()

	opts = append([]Option{
		WithFitter(h.fitter),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	p, err := NewPipeline(h.cfg, h.store, nil, loaders(h.loader), opts...)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	return p
}

func (h *harness) request() Request {
	return Request{
		Sample:     h.det.Uniform(100, 1000),
		SampleFile: sampleFile,
		EmptyFile:  emptyFile,
		BeamRadius: 1,
	}
}

func requireDetector(t *testing.T, f *frame.Frame, want, eps float64) {
	t.Helper()

	for i, p := range f.Pixels {
		if !p.Monitor {
			testutil.RequireAllNearly(t, f.Counts[i], want, eps)
		}
	}
}

func requireStore(t *testing.T, s workspace.Store, want ...string) {
	t.Helper()

	got := s.Names()
	if len(got) != len(want) {
		t.Fatalf("store = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("store = %v, want %v", got, want)
		}
	}
}

func TestComputeAndApply(t *testing.T) {
	h := newHarness(t, nil)
	p := h.pipeline(t)

	res, err := p.ComputeAndApply(h.request())
	if err != nil {
		t.Fatalf("ComputeAndApply: %v", err)
	}

	requireDetector(t, res.Frame, 200, 1e-9)

	name := reduction.ResultName(sampleFile)
	if res.TransmissionName != name || res.CacheHit {
		t.Fatalf("result = %+v", res)
	}

	requireStore(t, h.store, name, name+"_unfitted")

	if got, ok := h.cfg.Cache().Lookup(reduction.Key(sampleFile, emptyFile)); !ok || got != name {
		t.Fatalf("cache entry = %q, %v", got, ok)
	}

	for _, want := range []string{"EQSANS_1001.parquet", "EQSANS_1002.parquet", "Loaded"} {
		if !strings.Contains(res.Message, want) {
			t.Fatalf("message %q lacks %q", res.Message, want)
		}
	}

	c, err := workspace.Curve(h.store, name+"_unfitted")
	if err != nil {
		t.Fatalf("unfitted curve: %v", err)
	}
	testutil.RequireAllNearly(t, c.Values, 0.5, 1e-12)
}

func TestComputeAndApplyCacheHitSkipsFitter(t *testing.T) {
	h := newHarness(t, nil)
	p := h.pipeline(t)

	first, err := p.ComputeAndApply(h.request())
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	second, err := p.ComputeAndApply(h.request())
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if h.fitter.calls != 1 {
		t.Fatalf("fitter calls = %d, want 1", h.fitter.calls)
	}
	if h.loader.calls != 2 {
		t.Fatalf("loader calls = %d, want 2", h.loader.calls)
	}
	if !second.CacheHit || second.TransmissionName != first.TransmissionName {
		t.Fatalf("second = %+v, first name %q", second, first.TransmissionName)
	}

	requireDetector(t, second.Frame, 200, 1e-9)
}

func TestComputeAndApplyCacheKeepsEmptyRunsApart(t *testing.T) {
	h := newHarness(t, nil)
	p := h.pipeline(t)

	steps := []struct {
		empty string
		want  float64
	}{
		{emptyFile, 200},
		{otherEmpty, 400},
		{emptyFile, 200},
	}

	for i, step := range steps {
		req := h.request()
		req.EmptyFile = step.empty

		res, err := p.ComputeAndApply(req)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.CacheHit {
			t.Fatalf("step %d: unexpected cache hit on %s", i, res.TransmissionName)
		}

		requireDetector(t, res.Frame, step.want, 1e-9)

		c, err := workspace.Curve(h.store, res.TransmissionName)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if c.Provenance.EmptyFile != step.empty {
			t.Fatalf("step %d: curve from %s, want %s", i, c.Provenance.EmptyFile, step.empty)
		}
	}

	if h.fitter.calls != len(steps) {
		t.Fatalf("fitter calls = %d, want %d", h.fitter.calls, len(steps))
	}

	req := h.request()
	res, err := p.ComputeAndApply(req)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if !res.CacheHit {
		t.Fatal("repeat of the last pair missed the cache")
	}
	requireDetector(t, res.Frame, 200, 1e-9)
}

func TestComputeAndApplyStaleCacheRecomputes(t *testing.T) {
	h := newHarness(t, nil)
	p := h.pipeline(t)

	first, err := p.ComputeAndApply(h.request())
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	h.store.Remove(first.TransmissionName)

	second, err := p.ComputeAndApply(h.request())
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if second.CacheHit || h.fitter.calls != 2 {
		t.Fatalf("cache hit = %v, fitter calls = %d", second.CacheHit, h.fitter.calls)
	}
}

// setBands records the frame-skipping bands on the frame being corrected.
func setBands(f *frame.Frame, props map[string]float64) {
	for k, v := range props {
		f.Run[k] = v
	}
}

func TestComputeAndApplyFrameSkipping(t *testing.T) {
	h := newHarness(t, nil)

	req := h.request()
	req.FrameSkipping = true
	setBands(req.Sample, map[string]float64{
		"wavelength_min": 1, "wavelength_max": 5,
		"wavelength_min_frame2": 5, "wavelength_max_frame2": 9,
	})

	res, err := h.pipeline(t).ComputeAndApply(req)
	if err != nil {
		t.Fatalf("ComputeAndApply: %v", err)
	}

	name := reduction.ResultName(sampleFile)
	requireStore(t, h.store, name, name+"_unfitted")

	c, err := workspace.Curve(h.store, name)
	if err != nil {
		t.Fatalf("fitted curve: %v", err)
	}

	if got := c.Binning.Len(); got != 80 {
		t.Fatalf("merged bins = %d, want 80", got)
	}
	testutil.RequireStrictlyIncreasing(t, c.Binning.Edges())
	testutil.RequireAllNearly(t, c.Values, 0.5, 1e-9)

	if h.fitter.calls != 2 {
		t.Fatalf("fitter calls = %d, want 2", h.fitter.calls)
	}

	requireDetector(t, res.Frame, 200, 1e-9)
}

func TestComputeAndApplyRequestedBands(t *testing.T) {
	h := newHarness(t, nil)

	req := h.request()
	req.FrameSkipping = true
	req.Bands = []Band{{Min: 1, Max: 4}, {Min: 5, Max: 9}}

	if _, err := h.pipeline(t).ComputeAndApply(req); err != nil {
		t.Fatalf("ComputeAndApply: %v", err)
	}

	c, err := workspace.Curve(h.store, reduction.ResultName(sampleFile))
	if err != nil {
		t.Fatalf("fitted curve: %v", err)
	}

	// 30 + 40 band bins plus the bridge over [4, 5).
	if got := c.Binning.Len(); got != 71 {
		t.Fatalf("merged bins = %d, want 71", got)
	}
}

func TestComputeAndApplyMissingFrame2Bound(t *testing.T) {
	h := newHarness(t, nil)

	req := h.request()
	req.FrameSkipping = true
	setBands(req.Sample, map[string]float64{
		"wavelength_min": 1, "wavelength_max": 5,
		"wavelength_min_frame2": 5,
	})

	// The transmission runs carry every bound; only the corrected frame counts.
	for _, name := range []string{sampleFile, emptyFile} {
		setBands(h.loader.frames[name], map[string]float64{
			"wavelength_min": 1, "wavelength_max": 5,
			"wavelength_min_frame2": 5, "wavelength_max_frame2": 9,
		})
	}

	_, err := h.pipeline(t).ComputeAndApply(req)

	var te *Error
	if !errors.As(err, &te) || te.Kind != ErrConfiguration || te.Key != "wavelength_max_frame2" {
		t.Fatalf("got %v, want configuration error for wavelength_max_frame2", err)
	}

	requireStore(t, h.store)
	if h.loader.calls != 0 {
		t.Fatalf("loader calls = %d, want 0", h.loader.calls)
	}
	if h.fitter.calls != 0 {
		t.Fatalf("fitter calls = %d, want 0", h.fitter.calls)
	}
	if h.cfg.Cache().Len() != 0 {
		t.Fatal("cache written on failure")
	}
	requireDetector(t, req.Sample, 100, 0)
}

func TestComputeAndApplyOverlappingBands(t *testing.T) {
	h := newHarness(t, nil)

	req := h.request()
	req.FrameSkipping = true
	setBands(req.Sample, map[string]float64{
		"wavelength_min": 1, "wavelength_max": 6,
		"wavelength_min_frame2": 5, "wavelength_max_frame2": 9,
	})

	_, err := h.pipeline(t).ComputeAndApply(req)

	var te *Error
	if !errors.As(err, &te) || te.Kind != ErrConfiguration || te.Key != "wavelength_min_frame2" {
		t.Fatalf("got %v, want configuration error for wavelength_min_frame2", err)
	}
	if errors.Is(err, ErrAlignment) {
		t.Fatalf("overlap reported as alignment error: %v", err)
	}

	if h.loader.calls != 0 || h.fitter.calls != 0 {
		t.Fatalf("loader calls = %d, fitter calls = %d, want 0 and 0", h.loader.calls, h.fitter.calls)
	}
	requireStore(t, h.store)
	requireDetector(t, req.Sample, 100, 0)
}

func TestComputeAndApplyFitFramesTogether(t *testing.T) {
	h := newHarness(t, nil)

	req := h.request()
	req.FrameSkipping = true
	req.FitFramesTogether = true

	if _, err := h.pipeline(t).ComputeAndApply(req); err != nil {
		t.Fatalf("ComputeAndApply: %v", err)
	}

	c, err := workspace.Curve(h.store, reduction.ResultName(sampleFile))
	if err != nil {
		t.Fatalf("fitted curve: %v", err)
	}
	if c.Binning.Len() != 8 {
		t.Fatalf("bins = %d, want 8", c.Binning.Len())
	}
}

func TestComputeAndApplyZeroPixelRegion(t *testing.T) {
	h := newHarness(t, nil)

	// An even detector has no pixel on the axis; half a pixel catches none.
	h.det = fixture.Detector{Size: 4, PixelSize: 5.5, Distance: 4, Binning: h.det.Binning}
	h.loader.frames[sampleFile] = h.det.Uniform(50, 1000)
	h.loader.frames[emptyFile] = h.det.Uniform(100, 1000)

	req := h.request()
	req.BeamRadius = 0.5

	_, err := h.pipeline(t).ComputeAndApply(req)
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("got %v, want ErrGeometry", err)
	}
	if !strings.Contains(err.Error(), "beam center") {
		t.Fatalf("message lacks hint: %q", err.Error())
	}

	requireStore(t, h.store)
	requireDetector(t, req.Sample, 100, 0)
}

func TestComputeAndApplyDegenerateRatio(t *testing.T) {
	h := newHarness(t, nil)
	h.loader.frames[emptyFile] = h.det.Beam(1, 0, 5, 1000)

	_, err := h.pipeline(t).ComputeAndApply(h.request())
	if !errors.Is(err, ErrNumeric) {
		t.Fatalf("got %v, want ErrNumeric", err)
	}
	if !strings.Contains(err.Error(), "Is the beam center in the right place?") {
		t.Fatalf("message lacks hint: %q", err.Error())
	}

	requireStore(t, h.store)
}

func TestComputeAndApplyValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero radius", func(r *Request) { r.BeamRadius = 0 }},
		{"negative radius", func(r *Request) { r.BeamRadius = -2 }},
		{"no sample", func(r *Request) { r.Sample = nil }},
		{"dark not configured", func(r *Request) { r.DarkCurrent = signal.DarkCurrent{Filename: darkFile} }},
		{"sample dark not configured", func(r *Request) { r.DarkCurrent = signal.DarkCurrent{UseSampleDarkCurrent: true} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			req := h.request()
			tt.mutate(&req)

			_, err := h.pipeline(t).ComputeAndApply(req)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("got %v, want ErrConfiguration", err)
			}
			if h.loader.calls != 0 {
				t.Fatalf("loader called %d times before validation failed", h.loader.calls)
			}
			requireStore(t, h.store)
		})
	}
}

func TestComputeAndApplyDarkCurrent(t *testing.T) {
	h := newHarness(t, map[string]any{
		reduction.KeyTransmissionNormalisation:   "Monitor",
		reduction.KeyDefaultDarkCurrentAlgorithm: "unscaled",
	})

	req := h.request()
	req.DarkCurrent = signal.DarkCurrent{Filename: darkFile}

	res, err := h.pipeline(t).ComputeAndApply(req)
	if err != nil {
		t.Fatalf("ComputeAndApply: %v", err)
	}

	// ROI sums (50-1)*5 and (100-1)*5.
	requireDetector(t, res.Frame, 100*495.0/245.0, 1e-9)

	if !strings.Contains(res.Message, "Dark current subtracted") {
		t.Fatalf("message %q lacks dark-current line", res.Message)
	}
}

func TestComputeAndApplyRereadsDarkCurrent(t *testing.T) {
	h := newHarness(t, map[string]any{
		reduction.KeyTransmissionNormalisation:   "Monitor",
		reduction.KeyDefaultDarkCurrentAlgorithm: "unscaled",
	})
	p := h.pipeline(t)

	req := h.request()
	req.DarkCurrent = signal.DarkCurrent{Filename: darkFile}

	first, err := p.ComputeAndApply(req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	h.store.Remove(first.TransmissionName)
	h.loader.frames[darkFile] = h.det.Uniform(2, 0)

	req = h.request()
	req.DarkCurrent = signal.DarkCurrent{Filename: darkFile}

	second, err := p.ComputeAndApply(req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	// ROI sums (50-2)*5 and (100-2)*5 with the rewritten dark file.
	requireDetector(t, second.Frame, 100*490.0/240.0, 1e-9)
}

func TestComputeAndApplyBeamCenterOverride(t *testing.T) {
	tests := []struct {
		name   string
		center frame.Point
		set    bool
	}{
		{"both positive", frame.Point{X: 0.12, Y: 0.08}, true},
		{"x zero", frame.Point{X: 0, Y: 0.08}, false},
		{"y negative", frame.Point{X: 0.12, Y: -0.01}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			req := h.request()
			req.BeamCenter = tt.center

			if _, err := h.pipeline(t).ComputeAndApply(req); err != nil {
				t.Fatalf("ComputeAndApply: %v", err)
			}

			for _, o := range h.loader.opts {
				if (o.BeamCenter != nil) != tt.set {
					t.Fatalf("BeamCenter passed = %v, want %v", o.BeamCenter != nil, tt.set)
				}
				if tt.set && *o.BeamCenter != tt.center {
					t.Fatalf("BeamCenter = %+v, want %+v", *o.BeamCenter, tt.center)
				}
			}
		})
	}
}

func TestNewPipelineConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
	}{
		{"no normalisation", map[string]any{}},
		{"unknown normaliser", map[string]any{reduction.KeyNormaliseAlgorithm: "beam-current"}},
		{"unknown loader", map[string]any{reduction.KeyTransmissionNormalisation: "Monitor", reduction.KeyLoadAlgorithm: "LoadNexus"}},
		{"unknown dark", map[string]any{reduction.KeyTransmissionNormalisation: "Monitor", reduction.KeyDarkCurrentAlgorithm: "magic"}},
		{"unknown fit", map[string]any{reduction.KeyTransmissionNormalisation: "Monitor", reduction.KeyFitMethod: "spline"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, tt.props)
			_, err := NewPipeline(cfg, workspace.NewMemoryStore(), nil, loaders(&memLoader{}))
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("got %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNewPipelineResolvesFitMethod(t *testing.T) {
	cfg := newConfig(t, map[string]any{
		reduction.KeyTransmissionNormalisation: "Timer",
		reduction.KeyFitMethod:                 "polynomial",
		reduction.KeyPolynomialOrder:           1,
	})

	p, err := NewPipeline(cfg, workspace.NewMemoryStore(), reduction.NewCache(), loaders(&memLoader{}))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	if p.fitter.Name() != "linear" {
		t.Fatalf("fitter = %s, want linear", p.fitter.Name())
	}
	if p.reducer.Normalizer.Mode() != signal.ModeTimer {
		t.Fatalf("normaliser mode = %s", p.reducer.Normalizer.Mode())
	}
}
