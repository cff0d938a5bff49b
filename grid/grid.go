package grid

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// NoData is the missing-value marker used in all bands.
// Any NaN payload compares as missing; use IsNoData rather than ==.
var NoData = math.NaN()

// IsNoData reports whether v is the missing-value marker.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// Options contains the spatial reference of a grid.
//
// The origin is the top-left corner of the top-left cell. Resolution is the
// cell edge length in map units; rows grow downward (decreasing y), columns
// grow rightward (increasing x).
type Options struct {
	OriginX    float64
	OriginY    float64
	Resolution float64
}

// DefaultOptions places the origin at (0, rows) with unit resolution, so cell
// centers land on half-integer coordinates in grid units.
var DefaultOptions = Options{
	OriginX:    0,
	OriginY:    0,
	Resolution: 1,
}

// Grid is a multi-band raster held fully in memory.
//
// Bands are named, row-major []float64 slices of identical length. A Grid is
// not safe for concurrent mutation; concurrent reads are fine. The imputation
// engine relies on callers not mutating a Grid while a run is in flight.
type Grid struct {
	rows, cols int
	opts       Options

	names []string             // band order as added
	bands map[string][]float64 // name -> row-major data
}

// New creates an empty grid with the given dimensions.
func New(rows, cols int, optFns ...func(o *Options)) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid: invalid dimensions %dx%d", rows, cols)
	}

	opts := DefaultOptions
	opts.OriginY = float64(rows) // unit-resolution default keeps y >= 0

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Resolution <= 0 {
		return nil, fmt.Errorf("grid: invalid resolution %v", opts.Resolution)
	}

	return &Grid{
		rows:  rows,
		cols:  cols,
		opts:  opts,
		bands: make(map[string][]float64),
	}, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Size returns the number of cells per band.
func (g *Grid) Size() int { return g.rows * g.cols }

// Resolution returns the cell edge length in map units.
func (g *Grid) Resolution() float64 { return g.opts.Resolution }

// Origin returns the map coordinates of the top-left corner.
func (g *Grid) Origin() (x, y float64) { return g.opts.OriginX, g.opts.OriginY }

// Bands returns the band names in insertion order.
func (g *Grid) Bands() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// HasBand reports whether a band with the given name exists.
func (g *Grid) HasBand(name string) bool {
	_, ok := g.bands[name]
	return ok
}

// AddBand attaches a band. The data slice is adopted, not copied, and must
// have exactly Rows*Cols elements. Adding an existing name is an error.
func (g *Grid) AddBand(name string, data []float64) error {
	if name == "" {
		return fmt.Errorf("grid: empty band name")
	}
	if _, ok := g.bands[name]; ok {
		return fmt.Errorf("grid: band %q already exists", name)
	}
	if len(data) != g.Size() {
		return fmt.Errorf("grid: band %q has %d cells, want %d", name, len(data), g.Size())
	}

	g.names = append(g.names, name)
	g.bands[name] = data

	return nil
}

// AddEmptyBand attaches a band initialized to NoData.
func (g *Grid) AddEmptyBand(name string) error {
	data := make([]float64, g.Size())
	for i := range data {
		data[i] = NoData
	}
	return g.AddBand(name, data)
}

// Band returns the raw data of a band. The slice is shared, not copied.
func (g *Grid) Band(name string) ([]float64, error) {
	data, ok := g.bands[name]
	if !ok {
		return nil, fmt.Errorf("grid: unknown band %q", name)
	}
	return data, nil
}

// Ordinal converts (row, col) to a cell ordinal.
func (g *Grid) Ordinal(row, col int) int { return row*g.cols + col }

// RowCol converts a cell ordinal back to (row, col).
func (g *Grid) RowCol(ord int) (row, col int) { return ord / g.cols, ord % g.cols }

// XY returns the map coordinates of the center of the cell at ordinal ord.
func (g *Grid) XY(ord int) (x, y float64) {
	row, col := g.RowCol(ord)
	x = g.opts.OriginX + (float64(col)+0.5)*g.opts.Resolution
	y = g.opts.OriginY - (float64(row)+0.5)*g.opts.Resolution
	return x, y
}

// SameFootprint reports whether other shares dimensions, origin and
// resolution with g. Band sets may differ.
func (g *Grid) SameFootprint(other *Grid) bool {
	return g.rows == other.rows && g.cols == other.cols && g.opts == other.opts
}

// NewAligned creates an empty grid with the same footprint as g.
func (g *Grid) NewAligned() *Grid {
	return &Grid{
		rows:  g.rows,
		cols:  g.cols,
		opts:  g.opts,
		bands: make(map[string][]float64),
	}
}

// ValidMask returns the set of cell ordinals where every listed band is
// populated. With no bands listed, all bands attached to the grid are used.
func (g *Grid) ValidMask(bandNames ...string) (*roaring.Bitmap, error) {
	if len(bandNames) == 0 {
		bandNames = g.names
	}

	layers := make([][]float64, 0, len(bandNames))
	for _, name := range bandNames {
		data, err := g.Band(name)
		if err != nil {
			return nil, err
		}
		layers = append(layers, data)
	}

	mask := roaring.New()

	for ord := 0; ord < g.Size(); ord++ {
		valid := true
		for _, layer := range layers {
			if IsNoData(layer[ord]) {
				valid = false
				break
			}
		}
		if valid {
			mask.Add(uint32(ord))
		}
	}

	return mask, nil
}

// RowMatrix extracts the feature matrix of a contiguous row band in
// raster-scan order. Returned rows correspond to ordinals
// [row0*cols, (row0+nRows)*cols).
//
// Cells with any missing feature get a nil row; they must not be forwarded
// to a model.
func (g *Grid) RowMatrix(bandNames []string, row0, nRows int) ([][]float64, error) {
	if row0 < 0 || nRows <= 0 || row0+nRows > g.rows {
		return nil, fmt.Errorf("grid: row band [%d,%d) out of range [0,%d)", row0, row0+nRows, g.rows)
	}

	layers := make([][]float64, len(bandNames))
	for i, name := range bandNames {
		data, err := g.Band(name)
		if err != nil {
			return nil, err
		}
		layers[i] = data
	}

	start := row0 * g.cols
	n := nRows * g.cols
	out := make([][]float64, n)

	for i := 0; i < n; i++ {
		ord := start + i
		row := make([]float64, len(layers))
		valid := true
		for j, layer := range layers {
			v := layer[ord]
			if IsNoData(v) {
				valid = false
				break
			}
			row[j] = v
		}
		if valid {
			out[i] = row
		}
	}

	return out, nil
}
