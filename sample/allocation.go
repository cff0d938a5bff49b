package sample

import (
	"math"
	"sort"

	"github.com/samherniman/foster/grid"
	"github.com/samherniman/foster/internal/rng"
)

// Allocation is the per-stratum sample target derived from stratum frequency.
type Allocation struct {
	Stratum int
	Target  int
}

// Allocate computes proportional sample targets for every stratum:
// floor(fraction*n) each, with the rounding residual handed out one unit at
// a time to uniformly drawn strata. The residual draws are independent, so a
// stratum may receive more than one extra unit.
//
// The result is ordered by descending target, ties broken by ascending
// stratum id, which is also the order the sampler processes strata in.
func Allocate(idx *grid.StrataIndex, n int, r *rng.RNG) []Allocation {
	ids := idx.Strata()

	targets := make(map[int]int, len(ids))
	allocated := 0
	for _, id := range ids {
		t := int(math.Floor(idx.Fraction(id) * float64(n)))
		targets[id] = t
		allocated += t
	}

	for residual := n - allocated; residual > 0; residual-- {
		targets[ids[r.IntN(len(ids))]]++
	}

	out := make([]Allocation, 0, len(ids))
	for _, id := range ids {
		out = append(out, Allocation{Stratum: id, Target: targets[id]})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target > out[j].Target
		}
		return out[i].Stratum < out[j].Stratum
	})

	return out
}
