// Package foster imputes sparsely measured forest-structure variables onto a
// spatially continuous grid with a k-nearest-neighbor model.
//
// The pipeline runs in five stages: stratify a predictor grid into feature
// strata, draw a spatially decorrelated stratified sample, split it into
// training and testing subsets, fit a nearness model on the training table,
// then drive that model across the full grid in bounded-memory row bands.
//
// # Quick Start
//
//	ctx := context.Background()
//	p := foster.New(foster.WithSeed(42), foster.WithK(3))
//
//	idx, _ := p.Stratify(ctx, predictors, []string{"ndvi", "elev"}, 5)
//	set, _ := p.Sample(ctx, idx, 200, foster.WithMinDist(75))
//
//	table, _ := foster.BuildTable(predictors, set, []string{"ndvi", "elev"},
//	    []string{"height", "biomass"}, measured)
//
//	folds, _, _ := p.Partition(table, partition.StrategyKFold)
//	metrics, _ := p.Assess(ctx, table, folds)
//
//	model, _ := p.Fit(ctx, table)
//	imputed, bandErrs, _ := p.Impute(ctx, model, predictors)
//
// The imputed grid carries one band per response plus one donor-id band per
// neighbor rank, aligned cell-for-cell with the input grid.
package foster
