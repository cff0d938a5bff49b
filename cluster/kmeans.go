package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samherniman/foster/distance"
	"github.com/samherniman/foster/grid"
	"github.com/samherniman/foster/internal/rng"
)

// ErrTooFewPoints is returned when there are fewer points than clusters.
var ErrTooFewPoints = errors.New("cluster: fewer points than clusters")

// Options contains configuration options for k-means stratification.
type Options struct {
	// MaxIter bounds the number of Lloyd iterations.
	MaxIter int

	// Metric is the distance used for assignment.
	Metric distance.Metric

	// Seed makes centroid initialization and therefore the final
	// labeling reproducible.
	Seed int64

	// Workers is the number of goroutines used for the assignment step.
	// Zero means GOMAXPROCS.
	Workers int
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	MaxIter: 100,
	Metric:  distance.MetricSquaredL2,
	Seed:    1,
	Workers: 0,
}

// KMeans clusters points into k groups using Lloyd's algorithm and returns
// one label per point plus the final centroids.
//
// Initialization draws k distinct points as seeds. The assignment step runs
// in parallel over point ranges; the update step is sequential. Iteration
// stops when no assignment changes or MaxIter is reached.
func KMeans(ctx context.Context, points [][]float64, k int, optFns ...func(o *Options)) ([]int, [][]float64, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(points)
	if k <= 0 {
		return nil, nil, fmt.Errorf("cluster: invalid k %d", k)
	}
	if n < k {
		return nil, nil, ErrTooFewPoints
	}

	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, nil, fmt.Errorf("cluster: point %d has %d features, want %d", i, len(p), dim)
		}
	}

	distFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	r := rng.New(opts.Seed)

	centroids := make([][]float64, k)
	for i, pi := range r.Perm(n)[:k] {
		centroids[i] = append([]float64(nil), points[pi]...)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < opts.MaxIter; iter++ {
		changed, err := assign(ctx, points, centroids, labels, distFunc, workers)
		if err != nil {
			return nil, nil, err
		}
		if !changed {
			break
		}

		// Update step: recompute centroids as cluster means. Empty clusters
		// keep their previous centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for j := range sums {
			sums[j] = make([]float64, dim)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[j][d] = sums[j][d] / float64(counts[j])
			}
		}
	}

	return labels, centroids, nil
}

// assign relabels every point to its nearest centroid, in parallel over
// contiguous point ranges. It reports whether any label changed.
func assign(ctx context.Context, points, centroids [][]float64, labels []int, distFunc distance.Func, workers int) (bool, error) {
	n := len(points)
	if workers > n {
		workers = n
	}

	changedBy := make([]bool, workers)
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				best := -1
				minDist := math.MaxFloat64
				for j, c := range centroids {
					if d := distFunc(points[i], c); d < minDist {
						minDist = d
						best = j
					}
				}
				if labels[i] != best {
					labels[i] = best
					changedBy[w] = true
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	for _, c := range changedBy {
		if c {
			return true, nil
		}
	}
	return false, nil
}

// Stratify clusters the listed bands of a grid into k strata and returns one
// label per cell, aligned with cell ordinals. Cells with any missing band
// value get grid.InvalidStratum.
func Stratify(ctx context.Context, g *grid.Grid, bands []string, k int, optFns ...func(o *Options)) ([]int, error) {
	matrix, err := g.RowMatrix(bands, 0, g.Rows())
	if err != nil {
		return nil, err
	}

	points := make([][]float64, 0, len(matrix))
	ords := make([]int, 0, len(matrix))
	for ord, row := range matrix {
		if row == nil {
			continue
		}
		points = append(points, row)
		ords = append(ords, ord)
	}

	clusterLabels, _, err := KMeans(ctx, points, k, optFns...)
	if err != nil {
		return nil, err
	}

	labels := make([]int, g.Size())
	for i := range labels {
		labels[i] = grid.InvalidStratum
	}
	for i, ord := range ords {
		labels[ord] = clusterLabels[i]
	}

	return labels, nil
}
