// Package grid provides an in-memory, multi-band raster abstraction used as
// the read-only input and output surface of the imputation pipeline.
//
// A Grid stores named float64 bands in row-major order with NaN as the
// no-data marker. Cell validity (all bands populated) and per-stratum cell
// pools are tracked as roaring bitmaps over cell ordinals, which keeps the
// candidate bookkeeping of the sampler cheap even on large rasters.
package grid
