// Package knn implements the nearness model used for imputation: a
// brute-force k-nearest-neighbor regressor over standardized features that
// reports, for every prediction, the training-row identifiers of its donors.
//
// The model is pluggable: anything satisfying Fitted (for example an
// external proximity model) can drive the imputation engine.
package knn
