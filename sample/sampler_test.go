package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samherniman/foster/grid"
	"github.com/samherniman/foster/internal/rng"
)

// evenGrid builds a rows x cols grid whose cells alternate between strata
// column-wise, giving k equally frequent strata.
func evenGrid(t *testing.T, rows, cols, k int) *grid.StrataIndex {
	t.Helper()

	g, err := grid.New(rows, cols)
	require.NoError(t, err)

	labels := make([]int, rows*cols)
	for i := range labels {
		labels[i] = i % k
	}

	idx, err := grid.BuildStrataIndex(g, labels)
	require.NoError(t, err)
	return idx
}

func TestAllocate(t *testing.T) {
	t.Run("sums to n", func(t *testing.T) {
		idx := evenGrid(t, 10, 10, 3)

		for _, n := range []int{1, 7, 10, 33, 100} {
			allocs := Allocate(idx, n, rng.New(42))
			total := 0
			for _, a := range allocs {
				total += a.Target
			}
			assert.Equal(t, n, total, "n=%d", n)
		}
	})

	t.Run("proportional floor plus residual", func(t *testing.T) {
		// 40/60 split of 5 cells over a 10-cell grid.
		g, err := grid.New(2, 5)
		require.NoError(t, err)
		idx, err := grid.BuildStrataIndex(g, []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1})
		require.NoError(t, err)

		allocs := Allocate(idx, 5, rng.New(1))

		targets := map[int]int{}
		total := 0
		for _, a := range allocs {
			targets[a.Stratum] = a.Target
			total += a.Target
		}
		assert.Equal(t, 5, total)
		// Floors are 2 and 3; the single residual unit may land anywhere.
		assert.GreaterOrEqual(t, targets[0], 2)
		assert.GreaterOrEqual(t, targets[1], 3)
	})

	t.Run("descending target order with id tiebreak", func(t *testing.T) {
		idx := evenGrid(t, 10, 10, 4)

		allocs := Allocate(idx, 8, rng.New(7))
		for i := 1; i < len(allocs); i++ {
			if allocs[i-1].Target == allocs[i].Target {
				assert.Less(t, allocs[i-1].Stratum, allocs[i].Stratum)
			} else {
				assert.Greater(t, allocs[i-1].Target, allocs[i].Target)
			}
		}
	})
}

func TestStratified(t *testing.T) {
	t.Run("invalid sample size", func(t *testing.T) {
		idx := evenGrid(t, 10, 10, 2)

		_, err := Stratified(idx, 0)
		assert.ErrorIs(t, err, ErrInvalidSampleSize)
	})

	t.Run("two equal strata split evenly", func(t *testing.T) {
		// 100 valid cells, 2 equally frequent strata, n=10, mindist=0.
		idx := evenGrid(t, 10, 10, 2)

		set, err := Stratified(idx, 10)
		require.NoError(t, err)
		require.Equal(t, 10, set.Len())
		assert.Empty(t, set.Warnings)

		perStratum := map[int]int{}
		for _, s := range set.Samples {
			perStratum[s.Stratum]++
		}
		assert.Equal(t, 5, perStratum[0])
		assert.Equal(t, 5, perStratum[1])
	})

	t.Run("never exceeds n", func(t *testing.T) {
		idx := evenGrid(t, 6, 6, 3)

		for seed := int64(0); seed < 20; seed++ {
			set, err := Stratified(idx, 12, func(o *Options) {
				o.Seed = seed
				o.MinDist = 2
			})
			require.NoError(t, err)
			assert.LessOrEqual(t, set.Len(), 12)
		}
	})

	t.Run("pairwise distance holds across strata", func(t *testing.T) {
		idx := evenGrid(t, 20, 20, 3)

		for seed := int64(1); seed <= 25; seed++ {
			set, err := Stratified(idx, 30, func(o *Options) {
				o.Seed = seed
				o.MinDist = 2.5
			})
			require.NoError(t, err)

			for i := 0; i < set.Len(); i++ {
				for j := i + 1; j < set.Len(); j++ {
					dx := set.Samples[i].X - set.Samples[j].X
					dy := set.Samples[i].Y - set.Samples[j].Y
					assert.GreaterOrEqual(t, dx*dx+dy*dy, 2.5*2.5,
						"seed %d: samples %d and %d too close", seed, i, j)
				}
			}
		}
	})

	t.Run("samples are distinct cells", func(t *testing.T) {
		idx := evenGrid(t, 8, 8, 2)

		set, err := Stratified(idx, 30, func(o *Options) { o.Seed = 3 })
		require.NoError(t, err)

		seen := map[int]bool{}
		for _, s := range set.Samples {
			assert.False(t, seen[s.Cell], "cell %d drawn twice", s.Cell)
			seen[s.Cell] = true
		}
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		idx := evenGrid(t, 15, 15, 4)

		a, err := Stratified(idx, 40, func(o *Options) {
			o.Seed = 99
			o.MinDist = 1.5
		})
		require.NoError(t, err)

		b, err := Stratified(idx, 40, func(o *Options) {
			o.Seed = 99
			o.MinDist = 1.5
		})
		require.NoError(t, err)

		assert.Equal(t, a.Samples, b.Samples)
		assert.Equal(t, a.Warnings, b.Warnings)
	})

	t.Run("short grid warns instead of failing", func(t *testing.T) {
		idx := evenGrid(t, 2, 2, 2)

		set, err := Stratified(idx, 10)
		require.NoError(t, err)
		assert.LessOrEqual(t, set.Len(), 4)
		require.NotEmpty(t, set.Warnings)
		assert.Equal(t, ReasonGridShort, set.Warnings[0].Reason)
	})

	t.Run("unsatisfiable mindist terminates with warning", func(t *testing.T) {
		// A 4x4 grid cannot hold 8 samples 10 units apart.
		idx := evenGrid(t, 4, 4, 1)

		set, err := Stratified(idx, 8, func(o *Options) {
			o.MinDist = 10
			o.MaxIterFactor = 5
		})
		require.NoError(t, err)

		assert.Less(t, set.Len(), 8)
		require.NotEmpty(t, set.Warnings)

		found := false
		for _, w := range set.Warnings {
			if w.Reason == ReasonMaxIterExceeded || w.Reason == ReasonPoolExhausted {
				found = true
				assert.Less(t, w.Got, w.Wanted)
			}
		}
		assert.True(t, found)
	})

	t.Run("empty index", func(t *testing.T) {
		g, err := grid.New(2, 2)
		require.NoError(t, err)
		idx, err := grid.BuildStrataIndex(g, []int{
			grid.InvalidStratum, grid.InvalidStratum, grid.InvalidStratum, grid.InvalidStratum,
		})
		require.NoError(t, err)

		set, err := Stratified(idx, 5)
		require.NoError(t, err)
		assert.Zero(t, set.Len())
		require.Len(t, set.Warnings, 1)
		assert.Equal(t, ReasonGridShort, set.Warnings[0].Reason)
	})

	t.Run("zero-allocation strata are skipped", func(t *testing.T) {
		// Stratum 1 holds a single cell out of 101; floor(1/101*2) == 0.
		g, err := grid.New(1, 101)
		require.NoError(t, err)

		labels := make([]int, 101)
		labels[100] = 1
		idx, err := grid.BuildStrataIndex(g, labels)
		require.NoError(t, err)

		set, err := Stratified(idx, 2, func(o *Options) { o.Seed = 5 })
		require.NoError(t, err)
		assert.LessOrEqual(t, set.Len(), 2)
	})
}

func TestWarningString(t *testing.T) {
	w := Warning{Stratum: 3, Reason: ReasonPoolExhausted, Wanted: 10, Got: 7, Attempts: 12}
	assert.Contains(t, w.String(), "stratum 3")
	assert.Contains(t, w.String(), "pool exhausted")

	w = Warning{Stratum: grid.InvalidStratum, Reason: ReasonGridShort, Wanted: 10, Got: 4}
	assert.Contains(t, w.String(), "grid short")
}
