package foster

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSamples is returned when a training table is requested from an
	// empty sample set.
	ErrNoSamples = errors.New("foster: sample set is empty")
)

// ErrRowMismatch indicates that the response source and the sample set
// disagree on row cardinality. Rows are joined by order, never by key, so
// the counts must match exactly.
type ErrRowMismatch struct {
	Samples   int
	Responses int
}

func (e *ErrRowMismatch) Error() string {
	return fmt.Sprintf("foster: %d response rows for %d samples; rows join by order and must match", e.Responses, e.Samples)
}

// ErrIncompleteCell indicates a sampled cell with a missing predictor value.
// Sampled cells come from the valid pool, so this points at grids that
// drifted between sampling and table construction.
type ErrIncompleteCell struct {
	Cell int
	Band string
}

func (e *ErrIncompleteCell) Error() string {
	return fmt.Sprintf("foster: sampled cell %d has no data in band %q", e.Cell, e.Band)
}
