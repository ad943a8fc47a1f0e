// Package binning implements wavelength bin-edge sequences and the rebinning
// operations used to align histograms before any bin-by-bin arithmetic.
//
// A [Binning] is an immutable, strictly increasing sequence of edges. Two
// histograms may only be combined when their binnings are [Binning.Equal];
// otherwise one must first be moved onto the other's edges with [Rebin]:
//
//   - [Counts]:       integrated quantities; each source bin is split by overlap fraction
//   - [Distribution]: per-unit quantities such as ratios; target bins take the overlap-weighted mean
//
// Rebinning onto identical edges is an identity operation.
package binning
