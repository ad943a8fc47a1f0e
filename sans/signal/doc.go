// Package signal turns loaded sample and empty-beam frames into the pair of
// aligned monitor frames the transmission calculation consumes.
//
// The reduction runs four steps:
//
//  1. dark-current subtraction through a [DarkCurrentCorrector]
//  2. grouping into a beam channel, a complement channel, and the monitor spectra ([Group])
//  3. normalisation through a [Normalizer]
//  4. rebinning of the empty pair onto the sample binning
//
// Correctors and normalisers are resolved by name once, from the reduction
// configuration, via [ResolveNormalizer] and the registries returned by
// [DarkCurrentCorrectors] and [Normalizers].
package signal
