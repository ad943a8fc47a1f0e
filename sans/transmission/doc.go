// Package transmission computes the zero-angle transmission of a sample from
// its direct-beam and empty-beam runs and divides it out of the sample frame.
//
// [Pipeline.ComputeAndApply] runs the whole correction:
//
//   - look up a previous result in the [reduction.Cache]
//   - otherwise load both runs, select the direct-beam region, reduce,
//     take the ratio and fit it ([Calculate]), once per wavelength band
//     in frame-skipping mode, and concatenate the bands ([MergeCurves])
//   - rebin the fitted curve onto the sample and divide ([Apply])
//
// Every failure is returned as an [*Error] carrying one of the kinds
// [ErrConfiguration], [ErrGeometry], [ErrNumeric] or [ErrAlignment].
// Transient store entries are removed before returning, on both paths.
package transmission
