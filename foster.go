package foster

import (
	"context"

	"github.com/samherniman/foster/accuracy"
	"github.com/samherniman/foster/cluster"
	"github.com/samherniman/foster/grid"
	"github.com/samherniman/foster/impute"
	"github.com/samherniman/foster/knn"
	"github.com/samherniman/foster/partition"
	"github.com/samherniman/foster/sample"
)

// Pipeline wires the imputation stages together under one configuration.
// It holds no mutable state; every method is safe for concurrent use.
type Pipeline struct {
	opts options
}

// New creates a Pipeline. Options set here apply to every stage; any method
// accepts further options that override them for that call.
func New(optFns ...Option) *Pipeline {
	return &Pipeline{opts: applyOptions(optFns)}
}

func (p *Pipeline) callOpts(optFns []Option) options {
	o := p.opts
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Stratify clusters the listed predictor bands into k strata and returns the
// strata index the sampler draws from. Cells with missing predictors are
// excluded from every pool.
func (p *Pipeline) Stratify(ctx context.Context, g *grid.Grid, bands []string, k int, optFns ...Option) (*grid.StrataIndex, error) {
	o := p.callOpts(optFns)

	labels, err := cluster.Stratify(ctx, g, bands, k, func(co *cluster.Options) {
		co.Seed = o.seed
		co.Workers = o.workers
	})
	if err != nil {
		o.logger.LogStratify(ctx, k, 0, err)
		return nil, err
	}

	idx, err := grid.BuildStrataIndex(g, labels)
	if err != nil {
		o.logger.LogStratify(ctx, k, 0, err)
		return nil, err
	}

	o.logger.LogStratify(ctx, k, int(idx.ValidCells()), nil)
	return idx, nil
}

// Sample draws n cells by constrained stratified sampling. A short result is
// returned with warnings, not an error.
func (p *Pipeline) Sample(ctx context.Context, idx *grid.StrataIndex, n int, optFns ...Option) (*sample.Set, error) {
	o := p.callOpts(optFns)

	set, err := sample.Stratified(idx, n, func(so *sample.Options) {
		so.MinDist = o.minDist
		so.MaxIterFactor = o.maxIterFactor
		so.Seed = o.seed
	})
	if err != nil {
		return nil, err
	}

	for _, w := range set.Warnings {
		o.logger.WithStratum(w.Stratum).WarnContext(ctx, "sampler terminated stratum early",
			"reason", w.Reason.String(),
			"wanted", w.Wanted,
			"got", w.Got,
		)
	}
	o.logger.LogSample(ctx, n, set.Len(), len(set.Warnings))

	return set, nil
}

// BuildTable joins the sampled cells' predictor values with externally
// measured responses into a training table. Responses are matched to samples
// by row order; cardinality must agree exactly.
func BuildTable(g *grid.Grid, set *sample.Set, features, responses []string, y [][]float64) (*knn.Table, error) {
	if set.Len() == 0 {
		return nil, ErrNoSamples
	}
	if len(y) != set.Len() {
		return nil, &ErrRowMismatch{Samples: set.Len(), Responses: len(y)}
	}

	layers := make([][]float64, len(features))
	for i, name := range features {
		data, err := g.Band(name)
		if err != nil {
			return nil, err
		}
		layers[i] = data
	}

	x := make([][]float64, set.Len())
	for i, s := range set.Samples {
		row := make([]float64, len(features))
		for j, layer := range layers {
			v := layer[s.Cell]
			if grid.IsNoData(v) {
				return nil, &ErrIncompleteCell{Cell: s.Cell, Band: features[j]}
			}
			row[j] = v
		}
		x[i] = row
	}

	return knn.NewTable(features, responses, x, y)
}

// Partition splits the table's rows by the given strategy, stratifying on
// the first response variable.
func (p *Pipeline) Partition(t *knn.Table, strategy partition.Strategy, optFns ...Option) ([]partition.Fold, []partition.Warning, error) {
	o := p.callOpts(optFns)

	labels, err := t.ResponseColumn(t.Responses[0])
	if err != nil {
		return nil, nil, err
	}

	return partition.Split(labels, strategy, func(po *partition.Options) {
		po.TrainFraction = o.trainFraction
		po.NumGroups = o.numGroups
		po.Categorical = o.categorical
		po.Seed = o.seed
	})
}

// Fit trains the nearness model on the full table.
func (p *Pipeline) Fit(ctx context.Context, t *knn.Table, optFns ...Option) (*knn.Model, error) {
	o := p.callOpts(optFns)

	model, err := knn.Fit(t, func(ko *knn.Options) {
		ko.Metric = o.metric
		ko.Weighted = o.weighted
	})

	o.logger.LogFit(ctx, t.Len(), len(t.Features), len(t.Responses), err)
	return model, err
}

// Assess fits on each fold's training rows, predicts its held-out rows, and
// pools the predictions into one accuracy row per response variable.
func (p *Pipeline) Assess(ctx context.Context, t *knn.Table, folds []partition.Fold, optFns ...Option) ([]accuracy.Metrics, error) {
	o := p.callOpts(optFns)

	observed := make(map[string][]float64, len(t.Responses))
	estimated := make(map[string][]float64, len(t.Responses))

	for _, fold := range folds {
		train, err := t.Subset(fold.Train)
		if err != nil {
			return nil, err
		}
		test, err := t.Subset(fold.Test)
		if err != nil {
			return nil, err
		}

		model, err := knn.Fit(train, func(ko *knn.Options) {
			ko.Metric = o.metric
			ko.Weighted = o.weighted
		})
		if err != nil {
			return nil, err
		}

		k := o.k
		if k > train.Len() {
			k = train.Len()
		}

		pred, err := model.Predict(t.Features, test.X, k)
		if err != nil {
			return nil, err
		}

		for c, name := range t.Responses {
			for i := range test.X {
				observed[name] = append(observed[name], test.Y[i][c])
				estimated[name] = append(estimated[name], pred.Estimates[i][c])
			}
		}
	}

	out := make([]accuracy.Metrics, 0, len(t.Responses))
	for _, name := range t.Responses {
		m, err := accuracy.Evaluate(observed[name], estimated[name])
		if err != nil {
			return nil, err
		}
		m.Group = name
		out = append(out, *m)
	}

	o.logger.DebugContext(ctx, "assessment completed",
		"folds", len(folds),
		"responses", len(t.Responses),
	)

	return out, nil
}

// Impute drives the fitted model across the predictor grid and returns the
// aligned output grid plus any per-band failures.
func (p *Pipeline) Impute(ctx context.Context, model knn.Fitted, predictors *grid.Grid, optFns ...Option) (*grid.Grid, impute.BandErrors, error) {
	o := p.callOpts(optFns)

	out, bandErrs, err := impute.Impute(ctx, model, predictors, func(io *impute.Options) {
		io.ChunkRows = o.chunkRows
		io.Workers = o.workers
		io.K = o.k
		io.Ranks = o.ranks
		io.FailFast = o.failFast
		io.Controller = o.controller
	})

	bands := 0
	if out != nil {
		bands = len(out.Bands())
	}
	o.logger.WithK(o.k).LogImpute(ctx, bands, len(bandErrs), err)

	return out, bandErrs, err
}
