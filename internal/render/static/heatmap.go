package static

import (
	"fmt"
	"image/color"
	"math"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// heatGrid adapts a figure.Heatmap to plotter.GridXYZ. Row 0 is drawn at
// the top.
type heatGrid struct {
	h *figure.Heatmap
}

func (g heatGrid) Dims() (c, r int) { return len(g.h.Cols), len(g.h.Rows) }
func (g heatGrid) Z(c, r int) float64 {
	return g.h.Cells[r][c]
}
func (g heatGrid) X(c int) float64 { return float64(c) }
func (g heatGrid) Y(r int) float64 { return float64(len(g.h.Rows) - 1 - r) }

// zRange returns the smallest and largest present cell. Missing (NaN)
// cells are ignored. A flat or empty grid is widened so colour lookups
// never divide by zero.
func (g heatGrid) zRange() (lo, hi float64) {
	cols, rows := g.Dims()
	lo, hi = math.Inf(1), math.Inf(-1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			z := g.Z(c, r)
			if math.IsNaN(z) {
				continue
			}
			lo, hi = math.Min(lo, z), math.Max(hi, z)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// missingCell fills cells with no value.
var missingCell = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}

// heatPalette implements palette.Palette over a named figure palette.
type heatPalette []color.Color

func (p heatPalette) Colors() []color.Color { return p }

func newHeatPalette(name string, n int) heatPalette {
	cols := figure.Palette(name, n)
	out := make(heatPalette, n)
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func (p heatPalette) at(z, lo, hi float64) color.Color {
	if math.IsNaN(z) {
		return missingCell
	}
	i := int(math.Round((z - lo) / (hi - lo) * float64(len(p)-1)))
	return p[max(0, min(i, len(p)-1))]
}

func heatmapPlot(p *plot.Plot, f *figure.Heatmap) error {
	setLabels(p, f.Labels)
	if figure.Empty(f) {
		return nil
	}
	if len(f.Cells) != len(f.Rows) {
		return fmt.Errorf("heatmap has %d rows of cells for %d row labels", len(f.Cells), len(f.Rows))
	}
	for i, row := range f.Cells {
		if len(row) != len(f.Cols) {
			return fmt.Errorf("heatmap row %q has %d cells, want %d", f.Rows[i], len(row), len(f.Cols))
		}
	}

	// Cells are drawn as polygons rather than with plotter.HeatMap, which
	// needs at least two rows and columns to size its cells.
	grid := heatGrid{h: f}
	pal := newHeatPalette("heat", 64)
	lo, hi := grid.zRange()

	var xys plotter.XYs
	var labels []string
	for r := range f.Rows {
		for c := range f.Cols {
			x, y := grid.X(c), grid.Y(r)
			cell, err := plotter.NewPolygon(plotter.XYs{
				{X: x - 0.5, Y: y - 0.5}, {X: x + 0.5, Y: y - 0.5},
				{X: x + 0.5, Y: y + 0.5}, {X: x - 0.5, Y: y + 0.5},
			})
			if err != nil {
				return fmt.Errorf("heatmap cell (%s, %s): %w", f.Rows[r], f.Cols[c], err)
			}
			cell.Color = pal.at(grid.Z(c, r), lo, hi)
			cell.LineStyle.Color = color.White
			cell.LineStyle.Width = 1
			p.Add(cell)
			xys = append(xys, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			label := ""
			if z := f.Cells[r][c]; !math.IsNaN(z) {
				label = fmt.Sprintf("%.0f", z)
			}
			labels = append(labels, label)
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("cell labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = -0.5
		lbl.TextStyle[i].YAlign = -0.5
	}
	p.Add(lbl)

	rows := make([]string, len(f.Rows))
	for i, name := range f.Rows {
		rows[len(f.Rows)-1-i] = name
	}
	p.NominalX(f.Cols...)
	p.NominalY(rows...)
	return nil
}
