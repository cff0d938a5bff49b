package knn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samherniman/foster/distance"
)

func testTable(t *testing.T) *Table {
	t.Helper()

	table, err := NewTable(
		[]string{"f1", "f2"},
		[]string{"height", "biomass"},
		[][]float64{
			{0, 0},
			{1, 1},
			{2, 2},
			{10, 10},
		},
		[][]float64{
			{5, 50},
			{6, 60},
			{7, 70},
			{20, 200},
		},
	)
	require.NoError(t, err)
	return table
}

func TestNewTable(t *testing.T) {
	t.Run("validates shapes", func(t *testing.T) {
		_, err := NewTable(nil, []string{"r"}, [][]float64{{1}}, [][]float64{{1}})
		assert.Error(t, err)

		_, err = NewTable([]string{"f"}, nil, [][]float64{{1}}, [][]float64{{1}})
		assert.Error(t, err)

		// Row cardinality must match: rows join by order, never by key.
		_, err = NewTable([]string{"f"}, []string{"r"}, [][]float64{{1}, {2}}, [][]float64{{1}})
		assert.Error(t, err)

		_, err = NewTable([]string{"f"}, []string{"r"}, [][]float64{{1, 2}}, [][]float64{{1}})
		assert.Error(t, err)

		_, err = NewTable([]string{"f"}, []string{"r"}, nil, nil)
		assert.Error(t, err)
	})

	t.Run("subset shares rows", func(t *testing.T) {
		table := testTable(t)

		sub, err := table.Subset([]int{2, 0})
		require.NoError(t, err)
		assert.Equal(t, 2, sub.Len())
		assert.Equal(t, []float64{2, 2}, sub.X[0])
		assert.Equal(t, []float64{5, 50}, sub.Y[1])

		_, err = table.Subset([]int{4})
		assert.Error(t, err)
	})

	t.Run("response column", func(t *testing.T) {
		table := testTable(t)

		col, err := table.ResponseColumn("biomass")
		require.NoError(t, err)
		assert.Equal(t, []float64{50, 60, 70, 200}, col)

		_, err = table.ResponseColumn("nope")
		assert.Error(t, err)
	})
}

func TestModel(t *testing.T) {
	t.Run("k=1 returns the donor value", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		pred, err := model.Predict([]string{"f1", "f2"}, [][]float64{{9.5, 9.5}}, 1)
		require.NoError(t, err)

		assert.Equal(t, []int{3}, pred.Neighbors[0])
		assert.InDelta(t, 20, pred.Estimates[0][0], 1e-9)
		assert.InDelta(t, 200, pred.Estimates[0][1], 1e-9)
	})

	t.Run("one estimate row per input row", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		rows := [][]float64{{0, 0}, {1, 2}, {5, 5}}
		pred, err := model.Predict([]string{"f1", "f2"}, rows, 2)
		require.NoError(t, err)

		assert.Len(t, pred.Estimates, 3)
		assert.Len(t, pred.Neighbors, 3)
		assert.Len(t, pred.Distances, 3)
		for i := range rows {
			assert.Len(t, pred.Estimates[i], 2)
			assert.Len(t, pred.Neighbors[i], 2)
		}
	})

	t.Run("columns are re-mapped by name", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		// Same query expressed in swapped column order.
		a, err := model.Predict([]string{"f1", "f2"}, [][]float64{{0.4, 0.9}}, 2)
		require.NoError(t, err)
		b, err := model.Predict([]string{"f2", "f1"}, [][]float64{{0.9, 0.4}}, 2)
		require.NoError(t, err)

		assert.Equal(t, a.Neighbors, b.Neighbors)
		assert.Equal(t, a.Estimates, b.Estimates)
	})

	t.Run("schema mismatch fails fast", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		_, err = model.Predict([]string{"f1", "other"}, [][]float64{{1, 2}}, 1)
		require.Error(t, err)

		var mismatch *ErrSchemaMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, []string{"f2"}, mismatch.Missing)
		assert.Equal(t, []string{"other"}, mismatch.Extra)
	})

	t.Run("invalid k", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		_, err = model.Predict([]string{"f1", "f2"}, [][]float64{{1, 1}}, 0)
		assert.ErrorIs(t, err, ErrInvalidK)

		_, err = model.Predict([]string{"f1", "f2"}, [][]float64{{1, 1}}, 5)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("incomplete rows are rejected", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		_, err = model.Predict([]string{"f1", "f2"}, [][]float64{nil}, 1)
		assert.Error(t, err)
	})

	t.Run("ties break toward the lower training row", func(t *testing.T) {
		table, err := NewTable(
			[]string{"f"},
			[]string{"r"},
			[][]float64{{1}, {3}, {3}, {1}},
			[][]float64{{10}, {20}, {30}, {40}},
		)
		require.NoError(t, err)

		model, err := Fit(table, func(o *Options) { o.Weighted = false })
		require.NoError(t, err)

		// Query at 2 is equidistant from every training row.
		pred, err := model.Predict([]string{"f"}, [][]float64{{2}}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, pred.Neighbors[0])
	})

	t.Run("uniform weighting averages donors", func(t *testing.T) {
		table, err := NewTable(
			[]string{"f"},
			[]string{"r"},
			[][]float64{{0}, {1}, {10}},
			[][]float64{{2}, {4}, {100}},
		)
		require.NoError(t, err)

		model, err := Fit(table, func(o *Options) { o.Weighted = false })
		require.NoError(t, err)

		pred, err := model.Predict([]string{"f"}, [][]float64{{0.4}}, 2)
		require.NoError(t, err)
		assert.InDelta(t, 3, pred.Estimates[0][0], 1e-9)
	})

	t.Run("manhattan metric", func(t *testing.T) {
		model, err := Fit(testTable(t), func(o *Options) { o.Metric = distance.MetricManhattan })
		require.NoError(t, err)

		pred, err := model.Predict([]string{"f1", "f2"}, [][]float64{{10, 10}}, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, pred.Neighbors[0])
	})

	t.Run("accessors copy", func(t *testing.T) {
		model, err := Fit(testTable(t))
		require.NoError(t, err)

		feats := model.Features()
		feats[0] = "mutated"
		assert.Equal(t, []string{"f1", "f2"}, model.Features())
		assert.Equal(t, []string{"height", "biomass"}, model.Responses())
		assert.Equal(t, 4, model.Len())
	})
}
