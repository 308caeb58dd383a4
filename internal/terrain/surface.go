package terrain

import (
	"errors"
	"math"
	"sync/atomic"
)

// ErrNoGrid indicates a query or mesh request before any grid was loaded.
var ErrNoGrid = errors.New("no elevation grid loaded")

// Surface answers elevation queries against the currently loaded grid.
// Load replaces the grid wholesale with a single pointer swap: readers on
// the interpolation path see either the old grid or the new one, never a
// mixture, and take no lock.
type Surface struct {
	grid atomic.Pointer[Grid]
}

// NewSurface returns a surface with no grid loaded.
func NewSurface() *Surface {
	return &Surface{}
}

// Load validates the grid parameters and installs the new grid.
func (s *Surface) Load(values []float64, width, height int, originX, originY, cellSizeX, cellSizeY float64) error {
	g, err := NewGrid(values, width, height, originX, originY, cellSizeX, cellSizeY)
	if err != nil {
		return err
	}
	s.grid.Store(g)
	return nil
}

// LoadGrid installs an already-constructed grid.
func (s *Surface) LoadGrid(g *Grid) error {
	if g == nil {
		return ErrNoGrid
	}
	s.grid.Store(g)
	return nil
}

// Grid returns the currently loaded grid, or nil if none has been loaded.
func (s *Surface) Grid() *Grid {
	return s.grid.Load()
}

// Loaded reports whether a grid is available.
func (s *Surface) Loaded() bool {
	return s.grid.Load() != nil
}

// ElevationAt samples the surface at local-frame point (x, y) by
// bilinear interpolation over the four surrounding cells. ok is false
// when no grid is loaded or the point falls outside the grid extent.
func (s *Surface) ElevationAt(x, y float64) (elevation float64, ok bool) {
	g := s.grid.Load()
	if g == nil {
		return 0, false
	}

	gx := (x - g.OriginX) / g.CellSizeX
	gy := (y - g.OriginY) / g.CellSizeY

	// The valid extent is [0, dim-1): a query exactly on the far edge
	// has no cell beyond it to interpolate into.
	if gx < 0 || gy < 0 || gx >= float64(g.Width-1) || gy >= float64(g.Height-1) {
		return 0, false
	}

	x0 := int(math.Floor(gx))
	y0 := int(math.Floor(gy))
	x1 := x0 + 1
	if x1 > g.Width-1 {
		x1 = g.Width - 1
	}
	y1 := y0 + 1
	if y1 > g.Height-1 {
		y1 = g.Height - 1
	}
	fx := gx - float64(x0)
	fy := gy - float64(y0)

	z00 := g.At(x0, y0)
	z10 := g.At(x1, y0)
	z01 := g.At(x0, y1)
	z11 := g.At(x1, y1)

	elevation = z00*(1-fx)*(1-fy) +
		z10*fx*(1-fy) +
		z01*(1-fx)*fy +
		z11*fx*fy
	return elevation, true
}

// ElevationOrZero is the sentinel form of ElevationAt: out-of-bounds and
// no-grid queries return 0.0. Callers that need to distinguish "no data"
// from sea level should use ElevationAt.
func (s *Surface) ElevationOrZero(x, y float64) float64 {
	z, ok := s.ElevationAt(x, y)
	if !ok {
		return 0
	}
	return z
}
