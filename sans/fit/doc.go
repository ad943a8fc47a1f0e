// Package fit provides the smoothing fits applied to raw transmission ratios.
//
// Every method implements [Fitter] and returns the fitted values together
// with a per-bin variance:
//
//   - [Log]:        exponential in wavelength, fitted as a line in log space (default)
//   - [Polynomial]: weighted least-squares polynomial of a given order ([Linear] is order 1)
//   - [Spectral]:   FFT low-pass smoothing of the detrended ratio
//
// Methods are selected by name through [Methods] and [Resolve].
package fit
