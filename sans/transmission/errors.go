package transmission

import (
	"errors"
	"strings"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/sans/binning"
	"github.com/cwbudde/algo-sans/sans/fit"
	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/geometry"
	"github.com/cwbudde/algo-sans/sans/reduction"
	"github.com/cwbudde/algo-sans/sans/roi"
	"github.com/cwbudde/algo-sans/sans/signal"
)

// Error kinds. Match them with errors.Is on any error returned by the pipeline.
var (
	ErrConfiguration = errors.New("transmission: configuration error")
	ErrGeometry      = errors.New("transmission: geometry error")
	ErrNumeric       = errors.New("transmission: numeric error")
	ErrAlignment     = errors.New("transmission: wavelength alignment error")
)

// ErrNonPositive is returned when the transmission is zero or negative in a bin.
var ErrNonPositive = errors.New("transmission: non-positive transmission")

const (
	beamCenterHint = "Is the beam center in the right place?"
	geometryHint   = "check the beam center values"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind error
	// Key names the missing or invalid configuration key, if any.
	Key string
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.Error())
	if e.Key != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Key)
		sb.WriteString("]")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	msg := sb.String()

	switch {
	case e.Kind == ErrNumeric && !strings.Contains(msg, beamCenterHint):
		msg += ". " + beamCenterHint
	case e.Kind == ErrGeometry && !strings.Contains(msg, geometryHint):
		msg += "; " + geometryHint
	}

	return msg
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func configError(key string, err error) *Error {
	return &Error{Kind: ErrConfiguration, Key: key, Err: err}
}

var kinds = []struct {
	kind   error
	causes []error
}{
	{ErrGeometry, []error{roi.ErrNoPixels, geometry.ErrBehindSample}},
	{ErrNumeric, []error{
		fit.ErrDegenerate, fit.ErrSingular, signal.ErrZeroNormalisation, ErrNonPositive,
	}},
	{ErrAlignment, []error{
		binning.ErrNotCovered, binning.ErrOverlap, binning.ErrLengthMismatch,
		frame.ErrLayoutMismatch, frame.ErrShape,
	}},
	{ErrConfiguration, []error{
		reduction.ErrMissingKey, reduction.ErrKeyType,
		registry.ErrUnknown,
		signal.ErrMissingAlgorithm, signal.ErrUnknownAlgorithm,
		signal.ErrMissingNormalisation, signal.ErrMissingRunProperty,
		frame.ErrMissingParam, frame.ErrMissingProperty,
		roi.ErrInvalidRadius, roi.ErrInvalidPixelSize,
		fit.ErrInvalidOrder, fit.ErrInvalidCutoff,
		binning.ErrInvalidRange, binning.ErrInvalidStep,
	}},
}

// classify wraps err in an *Error of the matching kind. Errors that are
// already classified, or match no kind, are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		return err
	}

	for _, k := range kinds {
		for _, cause := range k.causes {
			if errors.Is(err, cause) {
				return &Error{Kind: k.kind, Err: err}
			}
		}
	}

	return err
}
