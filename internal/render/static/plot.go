// Package static renders figures to raster images. Axis-based figures are
// drawn with gonum/plot; pies and donuts with go-chart.
package static

import (
	"fmt"
	"image/color"
	"math"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Pixels converts a pixel count to a plot length at the default 96 DPI.
func Pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}

// Plot builds a fresh gonum plot for an axis-based figure. Pies and
// composites are not axis-based and are rejected.
func Plot(fig figure.Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fig.Heading()
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)

	var err error
	switch f := fig.(type) {
	case *figure.Box:
		err = boxPlot(p, f)
	case *figure.Bar:
		err = barPlot(p, f)
	case *figure.Line:
		err = linePlot(p, f)
	case *figure.Heatmap:
		err = heatmapPlot(p, f)
	case *figure.Scatter:
		err = scatterPlot(p, f)
	default:
		err = fmt.Errorf("%s figures have no axis plot", fig.Kind())
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func setLabels(p *plot.Plot, l figure.Labels) {
	p.X.Label.Text = l.XLabel
	p.Y.Label.Text = l.YLabel
}

func boxPlot(p *plot.Plot, f *figure.Box) error {
	setLabels(p, f.Labels)
	cols := figure.Palette(f.Palette, len(f.Groups))
	names := make([]string, len(f.Groups))

	for i, g := range f.Groups {
		names[i] = g.Label
		if len(g.Values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(48), float64(i), plotter.Values(g.Values))
		if err != nil {
			return fmt.Errorf("box %q: %w", g.Label, err)
		}
		box.FillColor = cols[i]
		p.Add(box)
	}
	if len(names) > 0 {
		p.NominalX(names...)
	}
	p.Add(plotter.NewGrid())
	return nil
}

func barPlot(p *plot.Plot, f *figure.Bar) error {
	setLabels(p, f.Labels)
	n := len(f.Values)
	if n == 0 {
		return nil
	}
	cols := figure.Palette(f.Palette, n)
	width := vg.Points(18)

	for i, v := range f.Values {
		bar, err := plotter.NewBarChart(plotter.Values{v}, width)
		if err != nil {
			return fmt.Errorf("bar %q: %w", f.Categories[i], err)
		}
		bar.Horizontal = f.Horizontal
		bar.XMin = float64(i)
		bar.Color = cols[i]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	if f.Horizontal {
		p.NominalY(f.Categories...)
	} else {
		p.NominalX(f.Categories...)
	}

	if f.ValueLabels {
		xys := make(plotter.XYs, n)
		labels := make([]string, n)
		for i, v := range f.Values {
			if f.Horizontal {
				xys[i] = plotter.XY{X: v, Y: float64(i)}
			} else {
				xys[i] = plotter.XY{X: float64(i), Y: v}
			}
			labels[i] = figure.SI(v)
		}
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return fmt.Errorf("value labels: %w", err)
		}
		p.Add(lbl)
	}

	for _, ref := range f.RefLines {
		if err := addRefLine(p, ref, n, f.Horizontal); err != nil {
			return err
		}
	}
	return nil
}

// addRefLine draws a dashed line across n categories at value ref.Value.
func addRefLine(p *plot.Plot, ref figure.RefLine, n int, horizontal bool) error {
	lo, hi := -0.5, float64(n)-0.5
	pts := plotter.XYs{{X: lo, Y: ref.Value}, {X: hi, Y: ref.Value}}
	if horizontal {
		pts = plotter.XYs{{X: ref.Value, Y: lo}, {X: ref.Value, Y: hi}}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("reference line: %w", err)
	}
	c := color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	if ref.Color != "" {
		if parsed, err := figure.ParseHex(ref.Color); err == nil {
			c = parsed
		}
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(line)
	if ref.Label != "" {
		p.Legend.Add(ref.Label, line)
		p.Legend.Top = true
	}
	return nil
}

func linePlot(p *plot.Plot, f *figure.Line) error {
	setLabels(p, f.Labels)
	if len(f.Y) == 0 {
		return nil
	}
	if len(f.X) != len(f.Y) {
		return fmt.Errorf("line has %d x values and %d y values", len(f.X), len(f.Y))
	}

	xys := make(plotter.XYs, len(f.X))
	for i := range f.X {
		xys[i] = plotter.XY{X: f.X[i], Y: f.Y[i]}
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}

	c := color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	if f.Color != "" {
		if parsed, err := figure.ParseHex(f.Color); err == nil {
			c = parsed
		}
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(2)
	if f.Fill > 0 {
		line.FillColor = color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(f.Fill * 255))}
	}
	p.Add(plotter.NewGrid(), line)

	if f.Markers {
		points.Shape = draw.CircleGlyph{}
		points.Color = c
		points.Radius = vg.Points(3)
		p.Add(points)
	}

	switch {
	case len(f.XCategories) == len(f.X):
		p.X.Tick.Marker = categoryTicks(f.X, f.XCategories, 12)
	case len(f.Ticks) > 0:
		ticks := make([]plot.Tick, len(f.Ticks))
		for i, v := range f.Ticks {
			ticks[i] = plot.Tick{Value: v, Label: fmt.Sprintf("%g", v)}
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	}
	return nil
}

// categoryTicks labels at most max evenly spaced positions.
func categoryTicks(xs []float64, labels []string, max int) plot.Ticker {
	step := 1
	if len(xs) > max {
		step = int(math.Ceil(float64(len(xs)) / float64(max)))
	}
	var ticks []plot.Tick
	for i := range xs {
		if i%step == 0 {
			ticks = append(ticks, plot.Tick{Value: xs[i], Label: labels[i]})
		} else {
			ticks = append(ticks, plot.Tick{Value: xs[i]})
		}
	}
	return plot.ConstantTicks(ticks)
}

func scatterPlot(p *plot.Plot, f *figure.Scatter) error {
	setLabels(p, f.Labels)
	if len(f.X) == 0 {
		return nil
	}
	if len(f.X) != len(f.Y) {
		return fmt.Errorf("scatter has %d x values and %d y values", len(f.X), len(f.Y))
	}

	xys := make(plotter.XYs, len(f.X))
	for i := range f.X {
		xys[i] = plotter.XY{X: f.X[i], Y: f.Y[i]}
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}

	c := color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	if f.Color != "" {
		if parsed, err := figure.ParseHex(f.Color); err == nil {
			c = parsed
		}
	}
	alpha := f.Opacity
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	size := f.MarkerSize
	if size <= 0 {
		size = 4
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(alpha * 255))}
	sc.GlyphStyle.Radius = vg.Points(size / 2)
	p.Add(plotter.NewGrid(), sc)
	return nil
}
