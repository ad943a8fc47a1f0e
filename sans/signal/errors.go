package signal

import "errors"

// Errors returned by the signal reducer.
var (
	ErrMissingAlgorithm     = errors.New("signal: algorithm not configured")
	ErrUnknownAlgorithm     = errors.New("signal: unknown algorithm")
	ErrMissingNormalisation = errors.New("signal: normalisation is not defined")
	ErrZeroNormalisation    = errors.New("signal: normalisation denominator is zero")
	ErrMissingRunProperty   = errors.New("signal: missing run property")
)
