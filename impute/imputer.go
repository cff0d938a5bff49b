package impute

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samherniman/foster/grid"
	"github.com/samherniman/foster/knn"
	"github.com/samherniman/foster/resource"
)

// NeighborBand names the output band carrying donor ids of the given rank
// (1 = nearest).
func NeighborBand(rank int) string { return fmt.Sprintf("nnID%d", rank) }

// BandError reports the failure of a single row band. Sibling bands are
// unaffected; their output remains valid.
type BandError struct {
	Band  int
	Row0  int
	NRows int
	Err   error
}

func (e BandError) Error() string {
	return fmt.Sprintf("band %d (rows %d-%d): %v", e.Band, e.Row0, e.Row0+e.NRows-1, e.Err)
}

func (e BandError) Unwrap() error { return e.Err }

// BandErrors aggregates per-band failures of one imputation run.
type BandErrors []BandError

func (e BandErrors) Error() string {
	msgs := make([]string, len(e))
	for i, be := range e {
		msgs[i] = be.Error()
	}
	return fmt.Sprintf("impute: %d band(s) failed: %s", len(e), strings.Join(msgs, "; "))
}

// Options contains configuration options for an imputation run.
type Options struct {
	// ChunkRows is the row-band height. Zero picks rows/Workers when
	// running parallel, otherwise the whole grid as a single band.
	ChunkRows int

	// Workers is the number of bands processed concurrently. Values below 1
	// mean sequential processing.
	Workers int

	// K is the number of neighbors consulted per cell.
	K int

	// Ranks is the number of neighbor-id output bands (nearest,
	// 2nd-nearest, ...). Clamped to K.
	Ranks int

	// FailFast aborts the run on the first band failure instead of
	// completing sibling bands and reporting failures per band.
	FailFast bool

	// Controller optionally bounds memory and IO. Nil enforces nothing.
	Controller *resource.Controller
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	ChunkRows: 0,
	Workers:   1,
	K:         1,
	Ranks:     1,
	FailFast:  false,
}

// Impute applies the fitted model to every complete cell of the predictor
// grid and returns a spatially aligned output grid with one band per
// response plus one donor-id band per requested rank.
//
// Cells with any missing predictor value keep NoData in every output band.
// When FailFast is off, a band failure is isolated: the run continues and
// the failures come back as BandErrors alongside the partial grid.
func Impute(ctx context.Context, model knn.Fitted, predictors *grid.Grid, optFns ...func(o *Options)) (*grid.Grid, BandErrors, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.K <= 0 {
		opts.K = 1
	}
	if opts.Ranks <= 0 {
		opts.Ranks = 1
	}
	if opts.Ranks > opts.K {
		opts.Ranks = opts.K
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	features := model.Features()
	responses := model.Responses()

	// Every model feature must exist as a predictor band; matching is by
	// name only. Extra predictor bands are ignored.
	var missing []string
	for _, name := range features {
		if !predictors.HasBand(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &knn.ErrSchemaMismatch{Missing: missing}
	}

	chunkRows := opts.ChunkRows
	if chunkRows <= 0 && opts.Workers > 1 {
		chunkRows = (predictors.Rows() + opts.Workers - 1) / opts.Workers
	}
	bands := partitionRows(predictors.Rows(), chunkRows)

	out := predictors.NewAligned()
	outBands := make([][]float64, 0, len(responses)+opts.Ranks)
	for _, name := range responses {
		if err := out.AddEmptyBand(name); err != nil {
			return nil, nil, err
		}
		data, _ := out.Band(name)
		outBands = append(outBands, data)
	}
	for rank := 1; rank <= opts.Ranks; rank++ {
		if err := out.AddEmptyBand(NeighborBand(rank)); err != nil {
			return nil, nil, err
		}
		data, _ := out.Band(NeighborBand(rank))
		outBands = append(outBands, data)
	}

	failures := make([]error, len(bands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, band := range bands {
		g.Go(func() error {
			err := imputeBand(gctx, model, predictors, band, features, outBands, len(responses), opts)
			if err == nil {
				return nil
			}
			if opts.FailFast {
				return BandError{Band: band.Index, Row0: band.Row0, NRows: band.NRows, Err: err}
			}
			failures[band.Index] = err
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var bandErrs BandErrors
	for _, band := range bands {
		if err := failures[band.Index]; err != nil {
			bandErrs = append(bandErrs, BandError{Band: band.Index, Row0: band.Row0, NRows: band.NRows, Err: err})
		}
	}

	return out, bandErrs, nil
}

// imputeBand extracts one band's feature matrix, predicts the valid subset
// and writes results at the band's spatial offset.
func imputeBand(ctx context.Context, model knn.Fitted, predictors *grid.Grid, band Band, features []string, outBands [][]float64, nResponses int, opts Options) error {
	bandBytes := int64(band.NRows) * int64(predictors.Cols()) * int64(len(features)) * 8

	if err := opts.Controller.AcquireMemory(ctx, bandBytes); err != nil {
		return err
	}
	defer opts.Controller.ReleaseMemory(bandBytes)

	if err := opts.Controller.WaitIO(ctx, bandBytes); err != nil {
		return err
	}

	matrix, err := predictors.RowMatrix(features, band.Row0, band.NRows)
	if err != nil {
		return err
	}

	// Missing-feature cells stay NoData in every output band; only complete
	// rows reach the model.
	rows := make([][]float64, 0, len(matrix))
	local := make([]int, 0, len(matrix))
	for i, row := range matrix {
		if row != nil {
			rows = append(rows, row)
			local = append(local, i)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	pred, err := model.Predict(features, rows, opts.K)
	if err != nil {
		return err
	}

	start := band.Row0 * predictors.Cols()
	for i, li := range local {
		ord := start + li
		for c := 0; c < nResponses; c++ {
			outBands[c][ord] = pred.Estimates[i][c]
		}
		for r := 0; r < opts.Ranks; r++ {
			outBands[nResponses+r][ord] = float64(pred.Neighbors[i][r])
		}
	}

	return nil
}
