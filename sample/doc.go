// Package sample selects training and validation cells from a classified
// grid by constrained stratified random sampling.
//
// Samples are allocated to strata proportionally to stratum frequency and
// placed by bounded rejection sampling under a minimum pairwise distance.
// Runs are deterministic for a fixed seed: the residual-allocation draws and
// the per-stratum draw sequences always consume the generator in the same
// order.
package sample
