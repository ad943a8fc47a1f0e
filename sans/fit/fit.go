package fit

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/reduction"
)

// Errors returned by fitters.
var (
	ErrDegenerate    = errors.New("fit: degenerate input")
	ErrSingular      = errors.New("fit: normal equations are singular")
	ErrInvalidOrder  = errors.New("fit: polynomial order must be >= 0")
	ErrInvalidCutoff = errors.New("fit: spectral cutoff must be in (0, 1]")
	ErrInvalidInput  = errors.New("fit: x, y and variances must have equal length")
)

// Result holds fitted values and their variances, one per input point.
type Result struct {
	Values    []float64
	Variances []float64
}

// Fitter smooths y(x). Variances may be zero, in which case the fit is unweighted.
type Fitter interface {
	Name() string
	Fit(x, y, variances []float64) (Result, error)
}

// Options configures fitters built from the registry.
type Options struct {
	Order  int
	Cutoff float64
}

// Factory builds a fitter from options.
type Factory func(opts Options) (Fitter, error)

// Default option values used by Resolve.
const (
	DefaultMethod = "log"
	DefaultOrder  = 2
	DefaultCutoff = 0.1
)

// Methods returns the registry of built-in fit methods.
func Methods() *registry.Registry[Factory] {
	r := registry.New[Factory]("fit method")
	r.MustRegister("log", func(Options) (Fitter, error) { return Log{}, nil })
	r.MustRegister("linear", func(Options) (Fitter, error) { return Linear(), nil })
	r.MustRegister("polynomial", func(o Options) (Fitter, error) {
		if o.Order < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, o.Order)
		}
		return Polynomial{Order: o.Order}, nil
	})
	r.MustRegister("spectral", func(o Options) (Fitter, error) {
		return NewSpectral(o.Cutoff)
	})

	return r
}

// Resolve builds the fitter named by the TransmissionFitMethod key, reading
// TransmissionPolynomialOrder and TransmissionSmoothingCutoff for options.
func Resolve(cfg *reduction.Config, methods *registry.Registry[Factory]) (Fitter, error) {
	name, err := cfg.StringOr(reduction.KeyFitMethod, DefaultMethod)
	if err != nil {
		return nil, err
	}

	order, err := cfg.FloatOr(reduction.KeyPolynomialOrder, DefaultOrder)
	if err != nil {
		return nil, err
	}

	cutoff, err := cfg.FloatOr(reduction.KeySmoothingCutoff, DefaultCutoff)
	if err != nil {
		return nil, err
	}

	factory, err := methods.Resolve(name)
	if err != nil {
		return nil, err
	}

	return factory(Options{Order: int(order), Cutoff: cutoff})
}

func checkInput(x, y, variances []float64, minPoints int) error {
	if len(x) != len(y) || len(x) != len(variances) {
		return fmt.Errorf("%w: %d, %d, %d", ErrInvalidInput, len(x), len(y), len(variances))
	}

	if len(x) < minPoints {
		return fmt.Errorf("%w: %d points, need %d", ErrDegenerate, len(x), minPoints)
	}

	return nil
}
