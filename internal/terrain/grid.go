// Package terrain stores a digital elevation model for the working field
// and answers point elevation queries by bilinear interpolation. Grids
// are immutable once built; a reload swaps the whole grid atomically so
// interpolation never observes a partially written surface.
package terrain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyGrid indicates a grid load with a zero dimension or
// non-positive cell size.
var ErrEmptyGrid = errors.New("elevation grid is empty")

// Grid is an immutable rectangular elevation grid. Values are meters,
// stored row-major (row = Y axis, column = X axis). OriginX/OriginY are
// the local-frame coordinates of cell (0,0); CellSizeX/CellSizeY are the
// uniform cell extents in meters.
type Grid struct {
	values    []float64
	Width     int
	Height    int
	OriginX   float64
	OriginY   float64
	CellSizeX float64
	CellSizeY float64

	// Computed once at construction by a full scan.
	MinElevation float64
	MaxElevation float64
}

// NewGrid validates and constructs an elevation grid. The values slice
// is row-major with len(values) == width*height and is copied, so the
// caller's slice may be reused after the call.
func NewGrid(values []float64, width, height int, originX, originY, cellSizeX, cellSizeY float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid %dx%d: %w", width, height, ErrEmptyGrid)
	}
	if cellSizeX <= 0 || cellSizeY <= 0 {
		return nil, fmt.Errorf("cell size %gx%g: %w", cellSizeX, cellSizeY, ErrEmptyGrid)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("grid %dx%d: have %d values, want %d", width, height, len(values), width*height)
	}

	copied := make([]float64, len(values))
	copy(copied, values)

	return &Grid{
		values:       copied,
		Width:        width,
		Height:       height,
		OriginX:      originX,
		OriginY:      originY,
		CellSizeX:    cellSizeX,
		CellSizeY:    cellSizeY,
		MinElevation: floats.Min(copied),
		MaxElevation: floats.Max(copied),
	}, nil
}

// At returns the stored elevation at grid cell (col, row). The caller is
// responsible for bounds; this is the raw accessor used by interpolation
// and mesh generation.
func (g *Grid) At(col, row int) float64 {
	return g.values[row*g.Width+col]
}

// Idx returns the row-major index of cell (col, row).
func (g *Grid) Idx(col, row int) int {
	return row*g.Width + col
}

// Values returns a copy of the row-major elevation values.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}
