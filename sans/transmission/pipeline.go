package transmission

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/fit"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/geometry"
	"github.com/cwbudde/algo-sans/sans/reduction"
	"github.com/cwbudde/algo-sans/sans/roi"
	"github.com/cwbudde/algo-sans/sans/signal"
	"github.com/cwbudde/algo-sans/sans/workspace"
)

// Store names of the transient entries created while computing a transmission.
const (
	SampleName        = "__transmission_sample"
	EmptyName         = "__transmission_empty"
	SampleMonitorName = "__sample_mon"
	EmptyMonitorName  = "__empty_mon"
)

// DefaultLoader is the loader used when LoadAlgorithm is not configured.
const DefaultLoader = "parquet"

// Request describes one transmission correction.
type Request struct {
	// Sample is the frame to correct. It is modified in place.
	Sample *frame.Frame
	// SampleFile and EmptyFile are the direct-beam runs with and without sample.
	SampleFile, EmptyFile string
	// BeamRadius is the direct-beam radius in pixels.
	BeamRadius     float64
	ThetaDependent bool
	DarkCurrent    signal.DarkCurrent
	// FrameSkipping processes two wavelength bands separately and merges them.
	FrameSkipping bool
	// FitFramesTogether forces the single-band path even with FrameSkipping.
	FitFramesTogether bool
	// Bands overrides the bands read from the run properties.
	Bands []Band
	// BeamCenter is passed to the loader only when both coordinates are positive.
	BeamCenter frame.Point
}

// Result reports the outcome of ComputeAndApply.
type Result struct {
	Frame *frame.Frame
	// TransmissionName is the store name of the fitted curve. The unfitted
	// curve is stored under TransmissionName + "_unfitted".
	TransmissionName string
	Message          string
	CacheHit         bool
}

// Pipeline computes and applies zero-angle transmission corrections. The
// configuration is resolved once, in NewPipeline.
type Pipeline struct {
	cfg   *reduction.Config
	store workspace.Store
	cache *reduction.Cache

	loader  frame.Loader
	reducer *signal.Reducer
	fitter  fit.Fitter
	angle   geometry.AngleCorrection

	fitMethods *registry.Registry[fit.Factory]
	darks      *registry.Registry[signal.DarkCurrentFactory]
	norms      *registry.Registry[signal.Normalizer]

	bandStep float64
	logger   *slog.Logger
}

// NewPipeline resolves the loader, dark-current correctors, normaliser and
// fitter named in cfg. cache may be nil, in which case cfg.Cache() is used.
func NewPipeline(cfg *reduction.Config, store workspace.Store, cache *reduction.Cache,
	loaders *registry.Registry[frame.Loader], opts ...Option,
) (*Pipeline, error) {
	p := &Pipeline{
		cfg:        cfg,
		store:      store,
		cache:      cache,
		angle:      geometry.PathLength{},
		fitMethods: fit.Methods(),
		darks:      signal.DarkCurrentCorrectors(),
		norms:      signal.Normalizers(),
		bandStep:   DefaultBandStep,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if p.cache == nil {
		p.cache = cfg.Cache()
	}

	loaderName, err := cfg.StringOr(reduction.KeyLoadAlgorithm, DefaultLoader)
	if err != nil {
		return nil, configError(reduction.KeyLoadAlgorithm, err)
	}

	p.loader, err = loaders.Resolve(loaderName)
	if err != nil {
		return nil, configError(reduction.KeyLoadAlgorithm, err)
	}

	p.reducer, err = signal.NewReducer(cfg, p.loader, p.darks, p.norms)
	if err != nil {
		return nil, classify(err)
	}

	if p.fitter == nil {
		p.fitter, err = fit.Resolve(cfg, p.fitMethods)
		if err != nil {
			return nil, configError(reduction.KeyFitMethod, err)
		}
	}

	p.logger.Debug("transmission pipeline ready",
		"loader", loaderName,
		"normalisation", p.reducer.Normalizer.Mode().String(),
		"fit", p.fitter.Name())

	return p, nil
}

// ComputeAndApply computes the transmission for the request's file pair, or
// reuses a cached one, and divides it out of req.Sample.
func (p *Pipeline) ComputeAndApply(req Request) (Result, error) {
	bands, err := p.validate(req)
	if err != nil {
		return Result{}, err
	}

	key := reduction.Key(req.SampleFile, req.EmptyFile)

	var msgs []string
	name, hit := p.lookup(key)
	if hit {
		p.logger.Info("using cached transmission", "key", key, "name", name)
		msgs = append(msgs, "Using cached transmission "+name)
	} else {
		var msg string

		name, msg, err = p.compute(req, bands)
		if err != nil {
			return Result{}, classify(err)
		}

		p.cache.Store(key, name)
		msgs = append(msgs, msg)
	}

	var angle geometry.AngleCorrection
	if req.ThetaDependent {
		angle = p.angle
	}

	if err := Apply(p.store, req.Sample, name, angle); err != nil {
		return Result{}, classify(err)
	}

	msgs = append(msgs, fmt.Sprintf("Transmission correction applied (theta dependent: %t)", req.ThetaDependent))

	return Result{
		Frame:            req.Sample,
		TransmissionName: name,
		Message:          strings.Join(msgs, "\n"),
		CacheHit:         hit,
	}, nil
}

// validate checks everything that does not need the input files, before any
// store entry is created. When the request runs two frames it also returns
// their bands, read from the frame being corrected.
func (p *Pipeline) validate(req Request) ([]Band, error) {
	if req.Sample == nil {
		return nil, configError("Sample", fmt.Errorf("no sample frame"))
	}

	if err := req.Sample.Validate(); err != nil {
		return nil, classify(err)
	}

	if !(req.BeamRadius > 0) {
		return nil, configError("BeamRadius", fmt.Errorf("%w: %g", roi.ErrInvalidRadius, req.BeamRadius))
	}

	if err := p.reducer.CheckDarkCurrent(req.DarkCurrent); err != nil {
		return nil, classify(err)
	}

	if !req.FrameSkipping || req.FitFramesTogether {
		return nil, nil
	}

	bands, err := resolveBands(req.Bands, req.Sample)
	if err != nil {
		return nil, err
	}

	return bands[:], nil
}

// lookup honours a cache entry only if the store still holds its curve and
// that curve was computed from the file pair behind key. Result names depend
// on the sample file alone, so another empty run may have replaced it.
func (p *Pipeline) lookup(key string) (string, bool) {
	name, ok := p.cache.Lookup(key)
	if !ok {
		return "", false
	}

	c, err := workspace.Curve(p.store, name)
	if err != nil {
		p.logger.Debug("cached transmission is gone, recomputing", "key", key, "name", name)
		return "", false
	}

	if got := reduction.Key(c.Provenance.SampleFile, c.Provenance.EmptyFile); got != key {
		p.logger.Debug("cached transmission was replaced, recomputing", "key", key, "name", name, "found", got)
		return "", false
	}

	return name, true
}

// compute loads the file pair and fits the transmission. bands is nil for
// the single-band path. Dark frames are read at most once per call.
func (p *Pipeline) compute(req Request, bands []Band) (string, string, error) {
	defer p.reducer.ForgetDarkCurrent()

	var opts frame.LoadOptions
	if req.BeamCenter.X > 0 && req.BeamCenter.Y > 0 {
		c := req.BeamCenter
		opts.BeamCenter = &c
	}

	sample, sampleMsg, err := p.loader.Load(req.SampleFile, opts)
	if err != nil {
		return "", "", fmt.Errorf("transmission: load sample %s: %w", filepath.Base(req.SampleFile), err)
	}

	empty, emptyMsg, err := p.loader.Load(req.EmptyFile, opts)
	if err != nil {
		return "", "", fmt.Errorf("transmission: load empty %s: %w", filepath.Base(req.EmptyFile), err)
	}

	scope := workspace.NewScope(p.store)
	defer scope.Close()

	if err := scope.Put(SampleName, sample); err != nil {
		return "", "", err
	}

	if err := scope.Put(EmptyName, empty); err != nil {
		return "", "", err
	}

	name := reduction.ResultName(req.SampleFile)
	prov := frame.Provenance{SampleFile: req.SampleFile, EmptyFile: req.EmptyFile}

	msgs := []string{
		"Sample: " + filepath.Base(req.SampleFile),
		"Empty: " + filepath.Base(req.EmptyFile),
	}
	for _, m := range []string{sampleMsg, emptyMsg} {
		if m != "" {
			msgs = append(msgs, m)
		}
	}

	var fitted, unfitted *frame.Curve

	if bands == nil {
		var msg string

		fitted, unfitted, msg, err = p.processBand(scope, sample, empty, req, prov, "", nil)
		if err != nil {
			return "", "", err
		}

		if msg != "" {
			msgs = append(msgs, msg)
		}
	} else {
		var m frameMerger

		for i, fb := range frameBands {
			p.logger.Debug("processing frame", "suffix", fb.suffix, "min", bands[i].Min, "max", bands[i].Max)

			f, u, msg, err := p.processBand(scope, sample, empty, req, prov, fb.suffix, &bands[i])
			if err != nil {
				return "", "", err
			}

			if msg != "" {
				msgs = append(msgs, msg)
			}

			if err := scope.Put(name+fb.suffix, f); err != nil {
				return "", "", err
			}

			if err := scope.Put(name+fb.suffix+"_unfitted", u); err != nil {
				return "", "", err
			}

			if err := m.add(f, u); err != nil {
				return "", "", err
			}
		}

		fitted, unfitted, err = m.result()
		if err != nil {
			return "", "", err
		}

		for _, fb := range frameBands {
			scope.Release(name + fb.suffix)
			scope.Release(name + fb.suffix + "_unfitted")
		}
	}

	if err := p.store.Put(name, fitted); err != nil {
		return "", "", err
	}

	if err := p.store.Put(name+"_unfitted", unfitted); err != nil {
		p.store.Remove(name)
		return "", "", err
	}

	p.logger.Info("transmission computed",
		"sample", filepath.Base(req.SampleFile),
		"empty", filepath.Base(req.EmptyFile),
		"name", name,
		"bins", fitted.Binning.Len(),
		"fit", p.fitter.Name())

	return name, strings.Join(msgs, "\n"), nil
}

// processBand runs region selection, reduction and the ratio fit for one band.
// A nil band uses the full loaded binning. The monitor frames are stored
// under the monitor names plus suffix for the lifetime of scope.
func (p *Pipeline) processBand(scope *workspace.Scope, sample, empty *frame.Frame, req Request,
	prov frame.Provenance, suffix string, band *Band,
) (fitted, unfitted *frame.Curve, msg string, err error) {
	if band != nil {
		b, err := binning.Regular(band.Min, p.bandStep, band.Max)
		if err != nil {
			return nil, nil, "", err
		}

		if sample, err = sample.RebinTo(b); err != nil {
			return nil, nil, "", fmt.Errorf("transmission: crop sample to %s: %w", b, err)
		}

		if empty, err = empty.RebinTo(b); err != nil {
			return nil, nil, "", fmt.Errorf("transmission: crop empty to %s: %w", b, err)
		}
	}

	region, err := roi.Select(sample, req.BeamRadius)
	if err != nil {
		return nil, nil, "", err
	}

	p.logger.Debug("direct-beam region selected", "pixels", region.Len(), "primary", region.PrimaryID)

	mons, msg, err := p.reducer.Reduce(sample, empty, region, req.DarkCurrent)
	if err != nil {
		return nil, nil, "", err
	}

	if err := scope.Put(SampleMonitorName+suffix, mons.Sample); err != nil {
		return nil, nil, "", err
	}

	if err := scope.Put(EmptyMonitorName+suffix, mons.Empty); err != nil {
		return nil, nil, "", err
	}

	fitted, unfitted, err = Calculate(mons, p.fitter, prov)
	if err != nil {
		return nil, nil, "", err
	}

	return fitted, unfitted, msg, nil
}
