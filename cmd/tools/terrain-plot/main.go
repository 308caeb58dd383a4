// terrain-plot renders an elevation grid JSON file as PNG images: a
// heatmap of the whole field and west-east elevation profiles for a
// sample of rows. Useful for sanity-checking survey imports before
// loading them into the guidance server.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldworks-ag/guidance/internal/terrain"
)

var (
	gridPath    = flag.String("grid", "", "Elevation grid JSON file (required)")
	outputDir   = flag.String("out", "plots", "Output directory for PNG files")
	profileRows = flag.Int("profile-rows", 5, "Number of evenly spaced row profiles to plot")
)

// gridXYZ adapts a terrain grid to the plotter.GridXYZ interface.
type gridXYZ struct {
	g *terrain.Grid
}

func (d gridXYZ) Dims() (c, r int)   { return d.g.Width, d.g.Height }
func (d gridXYZ) Z(c, r int) float64 { return d.g.At(c, r) }
func (d gridXYZ) X(c int) float64    { return d.g.OriginX + float64(c)*d.g.CellSizeX }
func (d gridXYZ) Y(r int) float64    { return d.g.OriginY + float64(r)*d.g.CellSizeY }

func plotHeatmap(g *terrain.Grid, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Field Elevation (%.1f..%.1f m)", g.MinElevation, g.MaxElevation)
	p.X.Label.Text = "Easting (m)"
	p.Y.Label.Text = "Northing (m)"

	h := plotter.NewHeatMap(gridXYZ{g}, palette.Heat(16, 1))
	p.Add(h)

	return p.Save(10*vg.Inch, 10*vg.Inch, path)
}

func plotProfiles(g *terrain.Grid, rows int, path string) error {
	p := plot.New()
	p.Title.Text = "West-East Elevation Profiles"
	p.X.Label.Text = "Easting (m)"
	p.Y.Label.Text = "Elevation (m)"

	if rows > g.Height {
		rows = g.Height
	}
	colors := generateColors(rows)

	for i := 0; i < rows; i++ {
		row := i * (g.Height - 1) / max(rows-1, 1)

		pts := make(plotter.XYs, g.Width)
		for col := 0; col < g.Width; col++ {
			pts[col] = plotter.XY{
				X: g.OriginX + float64(col)*g.CellSizeX,
				Y: g.At(col, row),
			}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("y=%.0fm", g.OriginY+float64(row)*g.CellSizeY), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

// generateColors creates a palette of distinct colors for profile lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var fr, fg, fb float64

	if s == 0 {
		fr, fg, fb = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		fr = hueToRGB(p, q, h+1.0/3.0)
		fg = hueToRGB(p, q, h)
		fb = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(math.Round(fr * 255)), uint8(math.Round(fg * 255)), uint8(math.Round(fb * 255))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

func main() {
	flag.Parse()

	if *gridPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	grid, err := terrain.LoadGridFile(*gridPath)
	if err != nil {
		log.Fatalf("failed to load grid: %v", err)
	}
	log.Printf("loaded %dx%d grid, cell %gx%g m, elevation %.1f..%.1f m",
		grid.Width, grid.Height, grid.CellSizeX, grid.CellSizeY,
		grid.MinElevation, grid.MaxElevation)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	heatmapFile := filepath.Join(*outputDir, "elevation_heatmap.png")
	if err := plotHeatmap(grid, heatmapFile); err != nil {
		log.Fatalf("failed to render heatmap: %v", err)
	}
	log.Printf("wrote %s", heatmapFile)

	profileFile := filepath.Join(*outputDir, "elevation_profiles.png")
	if err := plotProfiles(grid, *profileRows, profileFile); err != nil {
		log.Fatalf("failed to render profiles: %v", err)
	}
	log.Printf("wrote %s", profileFile)
}
