package accuracy

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/samherniman/foster/grid"
)

// AllGroups is the group label used for ungrouped evaluation.
const AllGroups = "all"

// ErrDegenerate indicates a zero or undefined denominator. It is reported
// distinctly from a valid zero statistic; opt into permissive mode to get
// NaN fields instead.
type ErrDegenerate struct {
	Group  string
	Metric string
}

func (e *ErrDegenerate) Error() string {
	return fmt.Sprintf("accuracy: degenerate %s for group %q", e.Metric, e.Group)
}

// Metrics is one row of the accuracy table.
type Metrics struct {
	Group   string
	Count   int
	R2      float64
	RMSE    float64
	RMSEPct float64
	Bias    float64
	BiasPct float64
}

// Options contains configuration options for evaluation.
type Options struct {
	// Permissive replaces degenerate-denominator errors with NaN fields.
	Permissive bool
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	Permissive: false,
}

// Evaluate computes the accuracy metrics over one reference/estimate pair.
// Pairs with a missing value in either vector are excluded from every
// statistic.
func Evaluate(reference, estimate []float64, optFns ...func(o *Options)) (*Metrics, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return evaluateGroup(AllGroups, reference, estimate, opts)
}

// EvaluateGrouped computes one metrics row per distinct group label, ordered
// lexically.
func EvaluateGrouped(reference, estimate []float64, groups []string, optFns ...func(o *Options)) ([]Metrics, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(groups) != len(reference) {
		return nil, fmt.Errorf("accuracy: %d group labels for %d pairs", len(groups), len(reference))
	}

	byGroup := make(map[string][]int)
	for i, gname := range groups {
		byGroup[gname] = append(byGroup[gname], i)
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Metrics, 0, len(names))
	for _, name := range names {
		idx := byGroup[name]
		ref := make([]float64, len(idx))
		est := make([]float64, len(idx))
		for i, j := range idx {
			ref[i] = reference[j]
			est[i] = estimate[j]
		}

		m, err := evaluateGroup(name, ref, est, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}

	return out, nil
}

func evaluateGroup(group string, reference, estimate []float64, opts Options) (*Metrics, error) {
	if len(reference) != len(estimate) {
		return nil, fmt.Errorf("accuracy: %d reference values vs %d estimates", len(reference), len(estimate))
	}

	// Pairwise exclusion: a pair missing in either vector is dropped from
	// every statistic.
	ref := make([]float64, 0, len(reference))
	est := make([]float64, 0, len(estimate))
	for i := range reference {
		if grid.IsNoData(reference[i]) || grid.IsNoData(estimate[i]) {
			continue
		}
		ref = append(ref, reference[i])
		est = append(est, estimate[i])
	}

	n := len(ref)
	if n == 0 {
		if opts.Permissive {
			return &Metrics{Group: group, Count: 0, R2: math.NaN(), RMSE: math.NaN(), RMSEPct: math.NaN(), Bias: math.NaN(), BiasPct: math.NaN()}, nil
		}
		return nil, &ErrDegenerate{Group: group, Metric: "count"}
	}

	meanRef := stat.Mean(ref, nil)

	var sumDiff, ssRes, ssTot float64
	for i := range ref {
		diff := est[i] - ref[i]
		sumDiff += diff
		ssRes += diff * diff
		d := ref[i] - meanRef
		ssTot += d * d
	}

	bias := sumDiff / float64(n)
	rmse := math.Sqrt(ssRes / float64(n))

	m := &Metrics{
		Group: group,
		Count: n,
		Bias:  bias,
		RMSE:  rmse,
	}

	switch {
	case meanRef != 0:
		m.BiasPct = bias / meanRef * 100
		m.RMSEPct = rmse / math.Abs(meanRef) * 100
	case opts.Permissive:
		m.BiasPct = math.NaN()
		m.RMSEPct = math.NaN()
	default:
		return nil, &ErrDegenerate{Group: group, Metric: "mean(reference)"}
	}

	switch {
	case ssTot != 0:
		m.R2 = 1 - ssRes/ssTot
	case ssRes == 0:
		// Constant reference perfectly reproduced; by convention a perfect fit.
		m.R2 = 1
	case opts.Permissive:
		m.R2 = math.NaN()
	default:
		return nil, &ErrDegenerate{Group: group, Metric: "SS_tot"}
	}

	return m, nil
}
