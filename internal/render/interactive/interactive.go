// Package interactive renders figures as self-contained ECharts HTML
// documents using go-echarts.
package interactive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/artifact"
)

// Renderer writes single figures as HTML documents.
type Renderer struct {
	logger *slog.Logger
}

// New creates an interactive renderer. A nil logger discards output.
func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{logger: logger}
}

// Render writes fig as an HTML document at path.
func (r *Renderer) Render(ctx context.Context, fig figure.Figure, style figure.Style, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chart, err := Chart(fig, style)
	if err != nil {
		return err
	}

	r.logger.Debug("rendering interactive figure",
		slog.String("kind", string(fig.Kind())),
		slog.String("file", filepath.Base(path)))

	return artifact.Write(path, func(w io.Writer) error {
		return chart.Render(w)
	})
}

// Charter is a renderable go-echarts chart.
type Charter interface {
	components.Charter
	Render(w io.Writer) error
}

// Chart builds the go-echarts chart for a single figure.
func Chart(fig figure.Figure, style figure.Style) (Charter, error) {
	return Titled(fig, fig.Heading(), style)
}

// Titled is Chart with the figure's heading replaced by title.
func Titled(fig figure.Figure, title string, style figure.Style) (Charter, error) {
	base := globals(title, style)
	switch f := fig.(type) {
	case *figure.Line:
		return lineChart(f, base), nil
	case *figure.Bar:
		return barChart(f, base), nil
	case *figure.Heatmap:
		return heatmapChart(f, base), nil
	case *figure.Scatter:
		return scatterChart(f, base), nil
	case *figure.Pie:
		return pieChart(f, base), nil
	case *figure.Box:
		return boxChart(f, base)
	}
	return nil, fmt.Errorf("%s figures have no interactive chart", fig.Kind())
}

func globals(title string, style figure.Style) []charts.GlobalOpts {
	theme := style.Theme
	if theme == "" {
		theme = "white"
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     fmt.Sprintf("%dpx", style.Width),
			Height:    fmt.Sprintf("%dpx", style.Height),
			Theme:     theme,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	}
}

func axes(l figure.Labels, xType string, xData any, yType string, yData any) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithXAxisOpts(opts.XAxis{Name: l.XLabel, Type: xType, Data: xData}),
		charts.WithYAxisOpts(opts.YAxis{Name: l.YLabel, Type: yType, Data: yData}),
	}
}

// rgba renders a "#rrggbb" colour with an alpha channel.
func rgba(hex string, alpha float64) string {
	c, err := figure.ParseHex(hex)
	if err != nil {
		c = figure.MustParseHex("#1f77b4")
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", c.R, c.G, c.B, alpha)
}

func lineChart(f *figure.Line, base []charts.GlobalOpts) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(base...)
	line.SetGlobalOptions(axes(f.Labels, "category", nil, "value", nil)...)

	xs := f.XCategories
	if len(xs) != len(f.X) {
		xs = make([]string, len(f.X))
		for i, x := range f.X {
			xs[i] = fmt.Sprintf("%g", x)
		}
	}
	data := make([]opts.LineData, len(f.Y))
	for i, y := range f.Y {
		data[i] = opts.LineData{Value: y}
	}

	color := f.Color
	if color == "" {
		color = "#1f77b4"
	}
	series := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(f.Markers)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
	}
	if f.Fill > 0 {
		series = append(series, charts.WithAreaStyleOpts(opts.AreaStyle{Color: rgba(color, f.Fill)}))
	}
	line.SetXAxis(xs).AddSeries(f.Title, data, series...)
	return line
}

func barChart(f *figure.Bar, base []charts.GlobalOpts) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(base...)
	bar.SetGlobalOptions(axes(f.Labels, "category", nil, "value", nil)...)

	cols := figure.PaletteHex(f.Palette, len(f.Values))
	data := make([]opts.BarData, len(f.Values))
	for i, v := range f.Values {
		d := opts.BarData{Value: v, ItemStyle: &opts.ItemStyle{Color: cols[i]}}
		if f.ValueLabels {
			d.Name = figure.SI(v)
			d.Label = &opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}
		}
		data[i] = d
	}

	var series []charts.SeriesOpts
	for _, ref := range f.RefLines {
		if f.Horizontal {
			series = append(series, charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{Name: ref.Label, XAxis: ref.Value}))
		} else {
			series = append(series, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: ref.Label, YAxis: ref.Value}))
		}
	}
	if len(f.RefLines) > 0 {
		series = append(series, charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Label: &opts.Label{Show: opts.Bool(true), Formatter: "{b}"},
		}))
	}

	bar.SetXAxis(f.Categories).AddSeries(f.Title, data, series...)
	if f.Horizontal {
		bar.XYReversal()
	}
	return bar
}

func heatmapChart(f *figure.Heatmap, base []charts.GlobalOpts) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(base...)
	hm.SetGlobalOptions(axes(f.Labels, "category", f.Cols, "category", f.Rows)...)

	var hi float64
	var data []opts.HeatMapData
	for r := range f.Rows {
		for c := range f.Cols {
			v := f.Cells[r][c]
			hi = max(hi, v)
			data = append(data, opts.HeatMapData{Value: [3]any{c, r, v}})
		}
	}
	hm.SetGlobalOptions(charts.WithVisualMapOpts(opts.VisualMap{
		Calculable: opts.Bool(true),
		Min:        0,
		Max:        float32(hi),
		InRange:    &opts.VisualMapInRange{Color: figure.PaletteHex("heat", 5)},
	}))
	name := f.ValueLabel
	if name == "" {
		name = f.Title
	}
	hm.SetXAxis(f.Cols).AddSeries(name, data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm
}

func scatterChart(f *figure.Scatter, base []charts.GlobalOpts) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(base...)
	sc.SetGlobalOptions(axes(f.Labels, "value", nil, "value", nil)...)

	size := int(f.MarkerSize)
	if size <= 0 {
		size = 4
	}
	data := make([]opts.ScatterData, len(f.X))
	for i := range f.X {
		data[i] = opts.ScatterData{Value: []any{f.X[i], f.Y[i]}, SymbolSize: size}
	}
	alpha := f.Opacity
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	color := f.Color
	if color == "" {
		color = "#1f77b4"
	}
	sc.AddSeries(f.Title, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: rgba(color, alpha)}))
	return sc
}

func pieChart(f *figure.Pie, base []charts.GlobalOpts) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(base...)

	pastel := figure.PaletteHex("pastel", len(f.Slices))
	data := make([]opts.PieData, len(f.Slices))
	for i, s := range f.Slices {
		color := s.Color
		if color == "" {
			color = pastel[i]
		}
		data[i] = opts.PieData{Name: s.Label, Value: s.Value, ItemStyle: &opts.ItemStyle{Color: color}}
	}
	radius := any("75%")
	if f.Hole > 0 {
		radius = []string{fmt.Sprintf("%.0f%%", f.Hole*75), "75%"}
	}
	pie.AddSeries(f.Title, data,
		charts.WithPieChartOpts(opts.PieChart{Radius: radius}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	return pie
}
