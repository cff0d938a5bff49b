package knn

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samherniman/foster/distance"
)

// ErrInvalidK is returned when k is not positive or exceeds the training rows.
var ErrInvalidK = errors.New("knn: k must be positive and at most the number of training rows")

// ErrSchemaMismatch indicates that prediction-time feature columns do not
// match the columns the model was fit on. Columns are always matched by
// name; positional alignment is never assumed.
type ErrSchemaMismatch struct {
	Missing []string // fit-time features absent at prediction time
	Extra   []string // prediction-time features unknown to the model
}

func (e *ErrSchemaMismatch) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing features [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unknown features [%s]", strings.Join(e.Extra, ", ")))
	}
	return "knn: schema mismatch: " + strings.Join(parts, "; ")
}

// Prediction holds one estimate row per input row plus the donor bookkeeping.
// Neighbor ids reference training-table rows, so an imputed cell can always
// be traced back to its donor samples.
type Prediction struct {
	Estimates [][]float64 // rows x responses
	Neighbors [][]int     // rows x k, ascending by nearness
	Distances [][]float64 // rows x k, aligned with Neighbors
}

// Fitted is the read-only contract the imputation engine drives. Predict
// must be a pure function of the fitted state and its inputs, returning
// exactly one estimate row per input row.
type Fitted interface {
	Features() []string
	Responses() []string
	Predict(features []string, rows [][]float64, k int) (*Prediction, error)
}

// Options contains configuration options for the k-NN model.
type Options struct {
	// Metric is the distance used in standardized feature space.
	Metric distance.Metric

	// Weighted enables inverse-distance weighting of donor responses.
	// When disabled, donors contribute equally.
	Weighted bool
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	Metric:   distance.MetricL2,
	Weighted: true,
}

// Model is a fitted k-NN regressor. It is immutable after Fit and safe for
// concurrent use by any number of readers.
type Model struct {
	features  []string
	responses []string
	x         [][]float64 // standardized training features
	y         [][]float64
	mean      []float64
	std       []float64
	distFunc  distance.Func
	weighted  bool
}

var _ Fitted = (*Model)(nil)

// Fit standardizes the training features (zero mean, unit variance per
// column; constant columns are left centered) and captures the table.
func Fit(t *Table, optFns ...func(o *Options)) (*Model, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	distFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	n := t.Len()
	f := len(t.Features)

	mean := make([]float64, f)
	std := make([]float64, f)

	for j := 0; j < f; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += t.X[i][j]
		}
		mean[j] = sum / float64(n)

		var ss float64
		for i := 0; i < n; i++ {
			d := t.X[i][j] - mean[j]
			ss += d * d
		}
		std[j] = math.Sqrt(ss / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}

	x := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, f)
		for j := 0; j < f; j++ {
			row[j] = (t.X[i][j] - mean[j]) / std[j]
		}
		x[i] = row
	}

	return &Model{
		features:  append([]string(nil), t.Features...),
		responses: append([]string(nil), t.Responses...),
		x:         x,
		y:         t.Y,
		mean:      mean,
		std:       std,
		distFunc:  distFunc,
		weighted:  opts.Weighted,
	}, nil
}

// Features returns the fit-time feature names.
func (m *Model) Features() []string { return append([]string(nil), m.features...) }

// Responses returns the response variable names.
func (m *Model) Responses() []string { return append([]string(nil), m.responses...) }

// Len returns the number of training rows.
func (m *Model) Len() int { return len(m.x) }

// Predict estimates every response for each input row from its k nearest
// training rows. Input columns are re-mapped to fit-time order by name;
// any discrepancy is a schema error.
//
// Ties on distance break toward the lower training-row id, making results
// reproducible across runs and implementations.
func (m *Model) Predict(features []string, rows [][]float64, k int) (*Prediction, error) {
	if k <= 0 || k > len(m.x) {
		return nil, ErrInvalidK
	}

	perm, err := m.columnPermutation(features)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{
		Estimates: make([][]float64, len(rows)),
		Neighbors: make([][]int, len(rows)),
		Distances: make([][]float64, len(rows)),
	}

	query := make([]float64, len(m.features))

	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("knn: row %d is incomplete; filter missing cells before prediction", i)
		}
		if len(row) != len(features) {
			return nil, fmt.Errorf("knn: row %d has %d columns, want %d", i, len(row), len(features))
		}

		for j := range m.features {
			query[j] = (row[perm[j]] - m.mean[j]) / m.std[j]
		}

		nn := m.nearest(query, k)

		est := make([]float64, len(m.responses))
		ids := make([]int, k)
		dists := make([]float64, k)

		var wsum float64
		for rank, nb := range nn {
			ids[rank] = nb.id
			dists[rank] = nb.dist

			w := 1.0
			if m.weighted {
				w = 1 / (nb.dist + 1e-9)
			}
			wsum += w
			for c := range est {
				est[c] += w * m.y[nb.id][c]
			}
		}
		for c := range est {
			est[c] /= wsum
		}

		pred.Estimates[i] = est
		pred.Neighbors[i] = ids
		pred.Distances[i] = dists
	}

	return pred, nil
}

// columnPermutation maps fit-time feature positions to input columns.
func (m *Model) columnPermutation(features []string) ([]int, error) {
	pos := make(map[string]int, len(features))
	for i, name := range features {
		pos[name] = i
	}

	mismatch := &ErrSchemaMismatch{}
	perm := make([]int, len(m.features))
	seen := make(map[string]struct{}, len(m.features))

	for j, name := range m.features {
		p, ok := pos[name]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, name)
			continue
		}
		perm[j] = p
		seen[name] = struct{}{}
	}
	for _, name := range features {
		if _, ok := seen[name]; !ok {
			mismatch.Extra = append(mismatch.Extra, name)
		}
	}

	if len(mismatch.Missing) > 0 || len(mismatch.Extra) > 0 {
		return nil, mismatch
	}
	return perm, nil
}

type neighbor struct {
	id   int
	dist float64
}

// neighborHeap is a max-heap on (distance, id): the root is the current
// worst candidate and is evicted first.
type neighborHeap []neighbor

func (h neighborHeap) Len() int { return len(h) }
func (h neighborHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].id > h[j].id
}
func (h neighborHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any) { *h = append(*h, x.(neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// nearest scans all training rows and keeps the k best under the metric.
func (m *Model) nearest(query []float64, k int) []neighbor {
	h := make(neighborHeap, 0, k)

	for id, row := range m.x {
		d := m.distFunc(query, row)

		if len(h) < k {
			heap.Push(&h, neighbor{id: id, dist: d})
			continue
		}

		worst := h[0]
		if d < worst.dist || (d == worst.dist && id < worst.id) {
			h[0] = neighbor{id: id, dist: d}
			heap.Fix(&h, 0)
		}
	}

	out := []neighbor(h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].dist != out[j].dist {
			return out[i].dist < out[j].dist
		}
		return out[i].id < out[j].id
	})

	return out
}
