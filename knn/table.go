package knn

import "fmt"

// Table is the training table: rows are samples, columns are predictor
// features and response variables. Row order is the join key between the
// response and predictor sources; no key-based join is performed, so the
// sources must agree on cardinality and order.
type Table struct {
	Features  []string
	Responses []string
	X         [][]float64 // len(rows) x len(Features)
	Y         [][]float64 // len(rows) x len(Responses)
}

// NewTable validates and assembles a training table.
func NewTable(features, responses []string, x, y [][]float64) (*Table, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("knn: no features")
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("knn: no responses")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("knn: %d predictor rows vs %d response rows", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("knn: empty training table")
	}

	for i, row := range x {
		if len(row) != len(features) {
			return nil, fmt.Errorf("knn: predictor row %d has %d columns, want %d", i, len(row), len(features))
		}
	}
	for i, row := range y {
		if len(row) != len(responses) {
			return nil, fmt.Errorf("knn: response row %d has %d columns, want %d", i, len(row), len(responses))
		}
	}

	return &Table{Features: features, Responses: responses, X: x, Y: y}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.X) }

// Subset returns a new table holding the given rows, in the given order.
// Row data is shared, not copied.
func (t *Table) Subset(indices []int) (*Table, error) {
	x := make([][]float64, len(indices))
	y := make([][]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= t.Len() {
			return nil, fmt.Errorf("knn: subset index %d out of range [0,%d)", idx, t.Len())
		}
		x[i] = t.X[idx]
		y[i] = t.Y[idx]
	}
	return &Table{Features: t.Features, Responses: t.Responses, X: x, Y: y}, nil
}

// ResponseColumn extracts one response column by name.
func (t *Table) ResponseColumn(name string) ([]float64, error) {
	for j, r := range t.Responses {
		if r == name {
			out := make([]float64, t.Len())
			for i := range t.Y {
				out[i] = t.Y[i][j]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("knn: unknown response %q", name)
}
