// Package cluster implements k-means stratification of a predictor grid.
//
// Clustering groups cells with similar predictor profiles into strata, which
// the sampler then uses to balance sample placement across feature space. Any
// external classifier can be substituted; this package is the batteries-included
// default.
package cluster
