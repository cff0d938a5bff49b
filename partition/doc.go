// Package partition splits a reference sample set into training and testing
// subsets, or into k cross-validation folds.
//
// Indices returned by this package reference the ordering of the sample set
// they were derived from; that ordering is the only join key the pipeline
// uses.
package partition
