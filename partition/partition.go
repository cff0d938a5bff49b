package partition

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/samherniman/foster/internal/rng"
)

// Strategy selects how a sample set is split.
type Strategy string

const (
	// StrategyRandom draws round(fraction*N) training indices uniformly
	// without replacement.
	StrategyRandom Strategy = "random"
	// StrategyGroup buckets labels (quantile bins when numeric, categories
	// otherwise) and draws the training fraction within each bucket.
	StrategyGroup Strategy = "group"
	// StrategyKFold builds k = round(1/(1-fraction)) disjoint folds
	// stratified by label.
	StrategyKFold Strategy = "kfold"
)

// ErrUnknownStrategy is returned for a strategy outside the known set.
type ErrUnknownStrategy struct {
	Strategy Strategy
}

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("partition: unknown strategy %q", string(e.Strategy))
}

// Fold is one train/test split. For holdout strategies exactly one fold is
// returned; for k-fold, one per fold, with Test sets jointly covering every
// index exactly once.
type Fold struct {
	Train []int
	Test  []int
}

// Warning reports a clamped or adjusted configuration.
type Warning struct {
	Message string
}

func (w Warning) String() string { return "partition: " + w.Message }

// Options contains configuration options for partitioning.
type Options struct {
	// TrainFraction is the share of samples assigned to training.
	TrainFraction float64

	// NumGroups is the number of quantile bins used by StrategyGroup, and
	// the number of stratification bins used by StrategyKFold on numeric
	// labels. Clamped to the number of distinct label values.
	NumGroups int

	// Categorical treats label values as discrete categories instead of a
	// numeric scale.
	Categorical bool

	// Seed drives all random draws.
	Seed int64
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	TrainFraction: 0.75,
	NumGroups:     5,
	Categorical:   false,
	Seed:          1,
}

// Split partitions indices [0, len(labels)) according to the strategy.
//
// Labels are required by StrategyGroup and StrategyKFold; StrategyRandom
// only uses their count.
func Split(labels []float64, strategy Strategy, optFns ...func(o *Options)) ([]Fold, []Warning, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(labels)
	if n == 0 {
		return nil, nil, fmt.Errorf("partition: empty label vector")
	}
	if opts.TrainFraction <= 0 || opts.TrainFraction >= 1 {
		return nil, nil, fmt.Errorf("partition: train fraction %v outside (0,1)", opts.TrainFraction)
	}

	r := rng.New(opts.Seed)

	switch strategy {
	case StrategyRandom:
		return []Fold{randomHoldout(n, opts.TrainFraction, r)}, nil, nil
	case StrategyGroup:
		buckets, warns, err := bucketize(labels, opts)
		if err != nil {
			return nil, nil, err
		}
		return []Fold{groupHoldout(buckets, n, opts.TrainFraction, r)}, warns, nil
	case StrategyKFold:
		buckets, warns, err := bucketize(labels, opts)
		if err != nil {
			return nil, nil, err
		}
		return kfold(buckets, n, opts.TrainFraction, r), warns, nil
	default:
		return nil, nil, &ErrUnknownStrategy{Strategy: strategy}
	}
}

// randomHoldout draws round(fraction*n) training indices without replacement.
func randomHoldout(n int, fraction float64, r *rng.RNG) Fold {
	nTrain := int(math.Round(fraction * float64(n)))
	perm := r.Perm(n)

	train := append([]int(nil), perm[:nTrain]...)
	test := append([]int(nil), perm[nTrain:]...)
	sort.Ints(train)
	sort.Ints(test)

	return Fold{Train: train, Test: test}
}

// groupHoldout draws the training fraction within each bucket and unions the
// result.
func groupHoldout(buckets [][]int, n int, fraction float64, r *rng.RNG) Fold {
	inTrain := make([]bool, n)

	for _, members := range buckets {
		r.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		nTrain := int(math.Round(fraction * float64(len(members))))
		for _, idx := range members[:nTrain] {
			inTrain[idx] = true
		}
	}

	var fold Fold
	for i := 0; i < n; i++ {
		if inTrain[i] {
			fold.Train = append(fold.Train, i)
		} else {
			fold.Test = append(fold.Test, i)
		}
	}

	return fold
}

// kfold deals bucket members round-robin into k folds, so folds are
// stratified and the test sets tile the index range exactly once.
func kfold(buckets [][]int, n int, fraction float64, r *rng.RNG) []Fold {
	k := int(math.Round(1 / (1 - fraction)))
	if k < 2 {
		k = 2
	}

	foldOf := make([]int, n)
	next := 0
	for _, members := range buckets {
		r.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for _, idx := range members {
			foldOf[idx] = next % k
			next++
		}
	}

	folds := make([]Fold, k)
	for i := 0; i < n; i++ {
		f := foldOf[i]
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}

	return folds
}

// bucketize groups indices by label: one bucket per category, or NumGroups
// quantile bins for numeric labels. NumGroups is clamped to the number of
// distinct values, with a warning.
func bucketize(labels []float64, opts Options) ([][]int, []Warning, error) {
	var warns []Warning

	distinct := make(map[float64]struct{}, len(labels))
	for _, v := range labels {
		distinct[v] = struct{}{}
	}

	if opts.Categorical {
		keys := make([]float64, 0, len(distinct))
		for v := range distinct {
			keys = append(keys, v)
		}
		sort.Float64s(keys)

		pos := make(map[float64]int, len(keys))
		for i, v := range keys {
			pos[v] = i
		}

		buckets := make([][]int, len(keys))
		for i, v := range labels {
			b := pos[v]
			buckets[b] = append(buckets[b], i)
		}
		return buckets, warns, nil
	}

	numGroups := opts.NumGroups
	if numGroups < 1 {
		numGroups = 1
	}
	if len(distinct) < numGroups {
		warns = append(warns, Warning{
			Message: fmt.Sprintf("%d groups requested but only %d distinct label values; clamped", numGroups, len(distinct)),
		})
		numGroups = len(distinct)
	}

	// Quantile bin edges over the observed labels.
	edges := make([]float64, 0, numGroups-1)
	for i := 1; i < numGroups; i++ {
		q, err := stats.Percentile(labels, 100*float64(i)/float64(numGroups))
		if err != nil {
			return nil, nil, fmt.Errorf("partition: quantile bins: %w", err)
		}
		edges = append(edges, q)
	}

	buckets := make([][]int, numGroups)
	for i, v := range labels {
		b := sort.SearchFloat64s(edges, v)
		buckets[b] = append(buckets[b], i)
	}

	return buckets, warns, nil
}
