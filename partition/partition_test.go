package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestSplit(t *testing.T) {
	t.Run("unknown strategy", func(t *testing.T) {
		_, _, err := Split(sequence(10), Strategy("bogus"))
		require.Error(t, err)

		var unknown *ErrUnknownStrategy
		assert.ErrorAs(t, err, &unknown)
		assert.Equal(t, Strategy("bogus"), unknown.Strategy)
	})

	t.Run("rejects bad configuration", func(t *testing.T) {
		_, _, err := Split(nil, StrategyRandom)
		assert.Error(t, err)

		_, _, err = Split(sequence(10), StrategyRandom, func(o *Options) { o.TrainFraction = 0 })
		assert.Error(t, err)

		_, _, err = Split(sequence(10), StrategyRandom, func(o *Options) { o.TrainFraction = 1 })
		assert.Error(t, err)
	})

	t.Run("random holdout sizes", func(t *testing.T) {
		folds, warns, err := Split(sequence(100), StrategyRandom, func(o *Options) {
			o.TrainFraction = 0.8
		})
		require.NoError(t, err)
		assert.Empty(t, warns)
		require.Len(t, folds, 1)

		assert.Len(t, folds[0].Train, 80)
		assert.Len(t, folds[0].Test, 20)
		assertDisjointCover(t, folds[0], 100)
	})

	t.Run("random holdout deterministic under seed", func(t *testing.T) {
		a, _, err := Split(sequence(50), StrategyRandom, func(o *Options) { o.Seed = 7 })
		require.NoError(t, err)
		b, _, err := Split(sequence(50), StrategyRandom, func(o *Options) { o.Seed = 7 })
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("group holdout draws within buckets", func(t *testing.T) {
		folds, warns, err := Split(sequence(100), StrategyGroup, func(o *Options) {
			o.TrainFraction = 0.8
			o.NumGroups = 5
		})
		require.NoError(t, err)
		assert.Empty(t, warns)
		require.Len(t, folds, 1)

		assert.Len(t, folds[0].Train, 80)
		assert.Len(t, folds[0].Test, 20)
		assertDisjointCover(t, folds[0], 100)

		// Each quantile bin of 20 consecutive labels contributes 16 train rows.
		for bin := 0; bin < 5; bin++ {
			count := 0
			for _, idx := range folds[0].Train {
				if idx >= bin*20 && idx < (bin+1)*20 {
					count++
				}
			}
			assert.Equal(t, 16, count, "bin %d", bin)
		}
	})

	t.Run("group holdout clamps group count", func(t *testing.T) {
		labels := []float64{1, 1, 1, 2, 2, 2, 2, 2}
		folds, warns, err := Split(labels, StrategyGroup, func(o *Options) {
			o.NumGroups = 5
		})
		require.NoError(t, err)
		require.Len(t, folds, 1)
		require.Len(t, warns, 1)
		assert.Contains(t, warns[0].String(), "clamped")
	})

	t.Run("categorical buckets", func(t *testing.T) {
		labels := []float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}
		folds, _, err := Split(labels, StrategyGroup, func(o *Options) {
			o.TrainFraction = 0.75
			o.Categorical = true
		})
		require.NoError(t, err)
		require.Len(t, folds, 1)
		assert.Len(t, folds[0].Train, 9)
		assert.Len(t, folds[0].Test, 3)
	})

	t.Run("kfold with p=0.8 yields five complementary folds", func(t *testing.T) {
		folds, _, err := Split(sequence(100), StrategyKFold, func(o *Options) {
			o.TrainFraction = 0.8
		})
		require.NoError(t, err)
		require.Len(t, folds, 5)

		testCover := map[int]int{}
		for i, fold := range folds {
			assert.Len(t, fold.Train, 80, "fold %d", i)
			assert.Len(t, fold.Test, 20, "fold %d", i)
			assertDisjointCover(t, fold, 100)
			for _, idx := range fold.Test {
				testCover[idx]++
			}
		}

		// Test sets jointly tile the index range exactly once.
		for i := 0; i < 100; i++ {
			assert.Equal(t, 1, testCover[i], "index %d", i)
		}
	})

	t.Run("kfold never below two folds", func(t *testing.T) {
		folds, _, err := Split(sequence(20), StrategyKFold, func(o *Options) {
			o.TrainFraction = 0.25
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(folds), 2)
	})
}

func assertDisjointCover(t *testing.T, fold Fold, n int) {
	t.Helper()

	seen := map[int]bool{}
	for _, idx := range fold.Train {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
	for _, idx := range fold.Test {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
	assert.Len(t, seen, n)
}
