package grid

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// InvalidStratum marks cells excluded from every candidate pool.
const InvalidStratum = -1

// StrataIndex is a read-only view of a classified grid: for each stratum it
// holds the pool of valid cell ordinals and its frequency over all valid
// cells. It is built once and shared read-only by the sampler.
type StrataIndex struct {
	grid   *Grid
	labels []int
	pools  map[int]*roaring.Bitmap
	ids    []int // distinct stratum ids, ascending
	total  uint64
}

// BuildStrataIndex indexes a label layer aligned with g. Labels must have one
// entry per cell; InvalidStratum entries are excluded from all pools.
func BuildStrataIndex(g *Grid, labels []int) (*StrataIndex, error) {
	if len(labels) != g.Size() {
		return nil, fmt.Errorf("grid: %d labels for %d cells", len(labels), g.Size())
	}

	pools := make(map[int]*roaring.Bitmap)
	var total uint64

	for ord, label := range labels {
		if label == InvalidStratum {
			continue
		}
		if label < 0 {
			return nil, fmt.Errorf("grid: negative stratum id %d at cell %d", label, ord)
		}
		pool, ok := pools[label]
		if !ok {
			pool = roaring.New()
			pools[label] = pool
		}
		pool.Add(uint32(ord))
		total++
	}

	ids := make([]int, 0, len(pools))
	for id := range pools {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return &StrataIndex{
		grid:   g,
		labels: labels,
		pools:  pools,
		ids:    ids,
		total:  total,
	}, nil
}

// Grid returns the grid the index was built over.
func (s *StrataIndex) Grid() *Grid { return s.grid }

// Strata returns the distinct stratum ids in ascending order.
func (s *StrataIndex) Strata() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

// ValidCells returns the total number of cells assigned to any stratum.
func (s *StrataIndex) ValidCells() uint64 { return s.total }

// Count returns the number of valid cells in a stratum.
func (s *StrataIndex) Count(stratum int) uint64 {
	pool, ok := s.pools[stratum]
	if !ok {
		return 0
	}
	return pool.GetCardinality()
}

// Fraction returns a stratum's share of all valid cells.
func (s *StrataIndex) Fraction(stratum int) float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.Count(stratum)) / float64(s.total)
}

// Pool returns a mutable copy of a stratum's candidate pool. The index
// itself is never mutated by drawing.
func (s *StrataIndex) Pool(stratum int) *roaring.Bitmap {
	pool, ok := s.pools[stratum]
	if !ok {
		return roaring.New()
	}
	return pool.Clone()
}

// Stratum returns the stratum id of a cell ordinal, or InvalidStratum.
func (s *StrataIndex) Stratum(ord int) int {
	if ord < 0 || ord >= len(s.labels) {
		return InvalidStratum
	}
	return s.labels[ord]
}
