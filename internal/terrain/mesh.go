package terrain

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// UV is a texture coordinate pair in [0,1].
type UV struct {
	U float64
	V float64
}

// Mesh is a renderable description of the elevation surface: one vertex
// per sampled grid cell at its world-space position, two triangles per
// quad of sampled cells, and a texture coordinate per vertex. Triangle
// indices refer into Vertices and share a consistent winding.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles []int
	UVs       []UV
}

// GenerateMesh samples the grid every max(1, levelOfDetail) cells along
// both axes and builds the triangulated surface. Fails with ErrNoGrid
// when no grid has been loaded.
func (s *Surface) GenerateMesh(levelOfDetail int) (*Mesh, error) {
	g := s.grid.Load()
	if g == nil {
		return nil, ErrNoGrid
	}
	return g.GenerateMesh(levelOfDetail), nil
}

// GenerateMesh builds the triangulated surface for the grid. A stride of
// max(1, levelOfDetail) cells reduces vertex count for large grids.
func (g *Grid) GenerateMesh(levelOfDetail int) *Mesh {
	stride := levelOfDetail
	if stride < 1 {
		stride = 1
	}

	// Sampled grid dimensions: every stride-th row/column starting at 0.
	cols := (g.Width-1)/stride + 1
	rows := (g.Height-1)/stride + 1

	m := &Mesh{
		Vertices: make([]r3.Vec, 0, cols*rows),
		UVs:      make([]UV, 0, cols*rows),
	}

	for r := 0; r < rows; r++ {
		gridRow := r * stride
		for c := 0; c < cols; c++ {
			gridCol := c * stride
			m.Vertices = append(m.Vertices, r3.Vec{
				X: g.OriginX + float64(gridCol)*g.CellSizeX,
				Y: g.OriginY + float64(gridRow)*g.CellSizeY,
				Z: g.At(gridCol, gridRow),
			})
			m.UVs = append(m.UVs, UV{
				U: float64(gridCol) / float64(g.Width),
				V: float64(gridRow) / float64(g.Height),
			})
		}
	}

	// Two triangles per quad. With row-major vertex indexing the quad at
	// sampled (r, c) has corners:
	//   topLeft     = r*cols + c
	//   topRight    = r*cols + c + 1
	//   bottomLeft  = (r+1)*cols + c
	//   bottomRight = (r+1)*cols + c + 1
	m.Triangles = make([]int, 0, (rows-1)*(cols-1)*6)
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			topLeft := r*cols + c
			topRight := topLeft + 1
			bottomLeft := (r+1)*cols + c
			bottomRight := bottomLeft + 1

			m.Triangles = append(m.Triangles,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}

	return m
}
