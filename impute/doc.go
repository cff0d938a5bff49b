// Package impute drives a fitted nearness model across a predictor grid in
// bounded-memory row bands, optionally in parallel.
//
// Bands are spatially disjoint and independent: no state crosses a band
// boundary, so chunk size and worker count affect memory and wall time but
// never the per-cell results. Each worker owns exclusive write access to its
// own row range of the output grid, so no locking is needed.
package impute
