package interactive

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/leapstack-labs/leapcharts/internal/figure"
	"gonum.org/v1/plot/plotter"
)

// boxChart reuses gonum's box statistics so the HTML and raster renderings
// of a box figure agree on quartiles and whiskers.
func boxChart(f *figure.Box, base []charts.GlobalOpts) (*charts.BoxPlot, error) {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(base...)
	box.SetGlobalOptions(axes(f.Labels, "category", nil, "value", nil)...)

	names := make([]string, len(f.Groups))
	data := make([]opts.BoxPlotData, len(f.Groups))
	for i, g := range f.Groups {
		names[i] = g.Label
		if len(g.Values) == 0 {
			data[i] = opts.BoxPlotData{Name: g.Label, Value: []float64{}}
			continue
		}
		stats, err := plotter.NewBoxPlot(1, 0, plotter.Values(g.Values))
		if err != nil {
			return nil, fmt.Errorf("box %q: %w", g.Label, err)
		}
		data[i] = opts.BoxPlotData{Name: g.Label, Value: []float64{
			stats.AdjLow, stats.Quartile1, stats.Median, stats.Quartile3, stats.AdjHigh,
		}}
	}
	box.SetXAxis(names).AddSeries(f.Title, data)
	return box, nil
}
