package terrain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// gridFile is the on-disk JSON form of an elevation grid, as exported by
// the survey import tooling.
type gridFile struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	OriginX   float64   `json:"origin_x"`
	OriginY   float64   `json:"origin_y"`
	CellSizeX float64   `json:"cell_size_x"`
	CellSizeY float64   `json:"cell_size_y"`
	Values    []float64 `json:"values"`
}

// ReadGrid decodes a JSON elevation grid from r.
func ReadGrid(r io.Reader) (*Grid, error) {
	var f gridFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}
	return NewGrid(f.Values, f.Width, f.Height, f.OriginX, f.OriginY, f.CellSizeX, f.CellSizeY)
}

// LoadGridFile reads a JSON elevation grid from disk.
func LoadGridFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ReadGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteGrid encodes g as JSON to w, the inverse of ReadGrid.
func WriteGrid(w io.Writer, g *Grid) error {
	return json.NewEncoder(w).Encode(gridFile{
		Width:     g.Width,
		Height:    g.Height,
		OriginX:   g.OriginX,
		OriginY:   g.OriginY,
		CellSizeX: g.CellSizeX,
		CellSizeY: g.CellSizeY,
		Values:    g.Values(),
	})
}
