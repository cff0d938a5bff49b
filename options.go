package foster

import (
	"github.com/samherniman/foster/distance"
	"github.com/samherniman/foster/resource"
)

type options struct {
	logger *Logger
	seed   int64

	// sampling
	minDist       float64
	maxIterFactor int

	// partitioning
	trainFraction float64
	numGroups     int
	categorical   bool

	// model
	metric   distance.Metric
	weighted bool
	k        int

	// imputation
	chunkRows  int
	workers    int
	ranks      int
	failFast   bool
	controller *resource.Controller
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithSeed sets the random seed used by every stochastic stage. A fixed
// seed makes stratification, sampling and partitioning reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMinDist sets the minimum pairwise distance (map units) between
// samples. Zero disables the constraint.
func WithMinDist(d float64) Option {
	return func(o *options) {
		o.minDist = d
	}
}

// WithMaxIterFactor bounds the sampler's rejection loop: a stratum with
// target t gets at most factor*t draws.
func WithMaxIterFactor(factor int) Option {
	return func(o *options) {
		o.maxIterFactor = factor
	}
}

// WithTrainFraction sets the share of samples assigned to training.
func WithTrainFraction(fraction float64) Option {
	return func(o *options) {
		o.trainFraction = fraction
	}
}

// WithNumGroups sets the number of label bins used by the group and kfold
// strategies.
func WithNumGroups(n int) Option {
	return func(o *options) {
		o.numGroups = n
	}
}

// WithCategoricalLabels treats partition labels as discrete categories
// instead of a numeric scale.
func WithCategoricalLabels(categorical bool) Option {
	return func(o *options) {
		o.categorical = categorical
	}
}

// WithMetric sets the distance metric of the nearness model.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithWeighted toggles inverse-distance weighting of donor responses.
func WithWeighted(weighted bool) Option {
	return func(o *options) {
		o.weighted = weighted
	}
}

// WithK sets the number of neighbors consulted per prediction.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithChunkRows sets the row-band height of imputation runs. Zero derives
// the height from the worker count.
func WithChunkRows(rows int) Option {
	return func(o *options) {
		o.chunkRows = rows
	}
}

// WithWorkers sets the number of row bands imputed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRanks sets the number of donor-id output bands (nearest,
// 2nd-nearest, ...).
func WithRanks(ranks int) Option {
	return func(o *options) {
		o.ranks = ranks
	}
}

// WithFailFast aborts imputation on the first band failure instead of
// collecting per-band errors.
func WithFailFast(failFast bool) Option {
	return func(o *options) {
		o.failFast = failFast
	}
}

// WithResourceController bounds memory and IO of imputation runs.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:        NoopLogger(),
		seed:          1,
		minDist:       0,
		maxIterFactor: 20,
		trainFraction: 0.75,
		numGroups:     5,
		metric:        distance.MetricL2,
		weighted:      true,
		k:             1,
		workers:       1,
		ranks:         1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
