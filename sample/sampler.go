package sample

import (
	"errors"
	"fmt"

	"github.com/samherniman/foster/grid"
	"github.com/samherniman/foster/internal/rng"
)

// ErrInvalidSampleSize is returned when the requested sample size is not positive.
var ErrInvalidSampleSize = errors.New("sample: sample size must be positive")

// Reason identifies why a stratum terminated before meeting its target.
type Reason int

const (
	// ReasonPoolExhausted means the stratum ran out of unselected cells.
	ReasonPoolExhausted Reason = iota
	// ReasonMaxIterExceeded means the draw budget was spent on rejections.
	ReasonMaxIterExceeded
	// ReasonGridShort means the whole grid holds fewer valid cells than requested.
	ReasonGridShort
)

func (r Reason) String() string {
	switch r {
	case ReasonPoolExhausted:
		return "pool exhausted"
	case ReasonMaxIterExceeded:
		return "max iterations exceeded"
	case ReasonGridShort:
		return "grid short of valid cells"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Warning reports a structurally valid but incomplete outcome: the result is
// usable, the request was not fully satisfied. Stratum is
// grid.InvalidStratum for grid-wide warnings.
type Warning struct {
	Stratum  int
	Reason   Reason
	Wanted   int
	Got      int
	Attempts int
}

func (w Warning) String() string {
	if w.Stratum == grid.InvalidStratum {
		return fmt.Sprintf("sample: %s: wanted %d, got %d", w.Reason, w.Wanted, w.Got)
	}
	return fmt.Sprintf("sample: stratum %d: %s after %d draws: wanted %d, got %d",
		w.Stratum, w.Reason, w.Attempts, w.Wanted, w.Got)
}

// Sample is one selected cell.
type Sample struct {
	Cell    int // cell ordinal in the source grid
	Stratum int
	X, Y    float64 // map coordinates of the cell center
}

// Set is an ordered, immutable collection of selected cells. Order is the
// acceptance order and serves as the join key for response measurements.
type Set struct {
	Samples  []Sample
	Warnings []Warning
}

// Len returns the number of selected cells.
func (s *Set) Len() int { return len(s.Samples) }

// Short reports whether the sampler terminated any stratum early.
func (s *Set) Short() bool { return len(s.Warnings) > 0 }

// Options contains configuration options for stratified sampling.
type Options struct {
	// MinDist is the minimum Euclidean distance (map units) between any two
	// accepted samples, across all strata. Zero or negative disables the
	// constraint.
	MinDist float64

	// MaxIterFactor bounds the rejection loop: a stratum with target t gets
	// at most MaxIterFactor*t draws before terminating early.
	MaxIterFactor int

	// Seed drives all random draws.
	Seed int64
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	MinDist:       0,
	MaxIterFactor: 20,
	Seed:          1,
}

// drawState is the bounded-retry state machine of one stratum.
type drawState int

const (
	stateDrawing drawState = iota
	stateDone
	statePoolExhausted
	stateMaxIterExceeded
)

// Stratified draws n cells from a classified grid, proportionally across
// strata, honoring the minimum-distance constraint by rejection sampling.
//
// Strata are processed in descending order of their allocation, ties by
// ascending stratum id. A rejected draw removes nothing from the candidate
// pool; only acceptance does. Early termination of a stratum is surfaced as
// a Warning on the returned Set, never as an error.
func Stratified(idx *grid.StrataIndex, n int, optFns ...func(o *Options)) (*Set, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if n <= 0 {
		return nil, ErrInvalidSampleSize
	}
	if opts.MaxIterFactor <= 0 {
		opts.MaxIterFactor = DefaultOptions.MaxIterFactor
	}

	set := &Set{}

	if idx.ValidCells() == 0 {
		set.Warnings = append(set.Warnings, Warning{
			Stratum: grid.InvalidStratum,
			Reason:  ReasonGridShort,
			Wanted:  n,
			Got:     0,
		})
		return set, nil
	}

	r := rng.New(opts.Seed)
	g := idx.Grid()
	minDist2 := opts.MinDist * opts.MinDist

	if idx.ValidCells() < uint64(n) {
		set.Warnings = append(set.Warnings, Warning{
			Stratum: grid.InvalidStratum,
			Reason:  ReasonGridShort,
			Wanted:  n,
			Got:     int(idx.ValidCells()),
		})
	}

	for _, alloc := range Allocate(idx, n, r) {
		if alloc.Target == 0 {
			continue
		}

		pool := idx.Pool(alloc.Stratum)
		maxAttempts := opts.MaxIterFactor * alloc.Target

		state := stateDrawing
		accepted := 0
		attempts := 0

		for state == stateDrawing {
			switch {
			case accepted == alloc.Target:
				state = stateDone
			case pool.IsEmpty():
				state = statePoolExhausted
			case attempts >= maxAttempts:
				state = stateMaxIterExceeded
			default:
				attempts++

				ord, err := pool.Select(r.Uint32N(uint32(pool.GetCardinality())))
				if err != nil {
					return nil, fmt.Errorf("sample: candidate draw: %w", err)
				}

				x, y := g.XY(int(ord))
				if minDist2 > 0 && tooClose(set.Samples, x, y, minDist2) {
					continue // rejected; the pool keeps the candidate
				}

				set.Samples = append(set.Samples, Sample{
					Cell:    int(ord),
					Stratum: alloc.Stratum,
					X:       x,
					Y:       y,
				})
				pool.Remove(ord)
				accepted++
			}
		}

		switch state {
		case statePoolExhausted:
			set.Warnings = append(set.Warnings, Warning{
				Stratum:  alloc.Stratum,
				Reason:   ReasonPoolExhausted,
				Wanted:   alloc.Target,
				Got:      accepted,
				Attempts: attempts,
			})
		case stateMaxIterExceeded:
			set.Warnings = append(set.Warnings, Warning{
				Stratum:  alloc.Stratum,
				Reason:   ReasonMaxIterExceeded,
				Wanted:   alloc.Target,
				Got:      accepted,
				Attempts: attempts,
			})
		}
	}

	return set, nil
}

// tooClose reports whether (x, y) violates the distance constraint against
// any accepted sample. The check spans all strata.
func tooClose(accepted []Sample, x, y, minDist2 float64) bool {
	for _, s := range accepted {
		dx := s.X - x
		dy := s.Y - y
		if dx*dx+dy*dy < minDist2 {
			return true
		}
	}
	return false
}
