// Package frameio reads and writes detector frames and transmission curves.
//
// A frame is stored as two files: a parquet table with one row per pixel
// (position, flags, counts and variances) and a YAML sidecar with the
// wavelength edges, run properties and instrument parameters. The sidecar
// shares the table's path with a .yaml extension.
//
// Curves are a single parquet table with one row per wavelength bin.
package frameio
