package transmission

import (
	"log/slog"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/fit"
	"github.com/cwbudde/algo-sans/sans/geometry"
	"github.com/cwbudde/algo-sans/sans/signal"
)

// DefaultBandStep is the wavelength step of the per-frame binning in
// frame-skipping mode, in Angstrom.
const DefaultBandStep = 0.1

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFitter replaces the fitter otherwise resolved from TransmissionFitMethod.
func WithFitter(f fit.Fitter) Option {
	return func(p *Pipeline) {
		p.fitter = f
	}
}

// WithFitMethods sets the registry TransmissionFitMethod is resolved in.
func WithFitMethods(r *registry.Registry[fit.Factory]) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.fitMethods = r
		}
	}
}

// WithDarkCurrentCorrectors sets the registry the dark-current algorithm keys are resolved in.
func WithDarkCurrentCorrectors(r *registry.Registry[signal.DarkCurrentFactory]) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.darks = r
		}
	}
}

// WithNormalizers sets the registry NormaliseAlgorithm is resolved in.
func WithNormalizers(r *registry.Registry[signal.Normalizer]) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.norms = r
		}
	}
}

// WithAngleCorrection sets the theta dependence used when a request asks
// for it. The default is geometry.PathLength.
func WithAngleCorrection(c geometry.AngleCorrection) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.angle = c
		}
	}
}

// WithBandStep sets the per-frame wavelength step in frame-skipping mode.
func WithBandStep(step float64) Option {
	return func(p *Pipeline) {
		if step > 0 {
			p.bandStep = step
		}
	}
}
