// Package rng provides the seeded random source shared by the sampling and
// partitioning code. A fixed seed makes every draw sequence reproducible.
package rng

import "math/rand"

// RNG encapsulates the random number generator and seed.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// New creates an RNG with the given seed.
func New(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// IntN returns a uniform int in [0, n).
func (r *RNG) IntN(n int) int { return r.rand.Intn(n) }

// Uint32N returns a uniform uint32 in [0, n).
func (r *RNG) Uint32N(n uint32) uint32 { return uint32(r.rand.Intn(int(n))) }

// Perm returns a random permutation of [0, n).
func (r *RNG) Perm(n int) []int { return r.rand.Perm(n) }

// Shuffle shuffles n elements using the provided swap function.
func (r *RNG) Shuffle(n int, swap func(i, j int)) { r.rand.Shuffle(n, swap) }

// Float64 returns a uniform float64 in [0, 1).
func (r *RNG) Float64() float64 { return r.rand.Float64() }
