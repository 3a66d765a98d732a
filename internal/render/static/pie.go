package static

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type chartRenderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// pieChart renders a pie or donut. go-chart draws the donut hole at a
// fixed ratio, so Hole only selects the chart type.
func pieChart(f *figure.Pie, style figure.Style) (chartRenderer, error) {
	if len(f.Slices) == 0 {
		return nil, fmt.Errorf("pie has no slices")
	}

	values := make([]chart.Value, 0, len(f.Slices))
	pastel := figure.PaletteHex("pastel", len(f.Slices))
	for i, s := range f.Slices {
		hex := s.Color
		if hex == "" {
			hex = pastel[i]
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, share(f.Slices, i)),
			Value: s.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(hex, "#")),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
				FontSize:    11,
			},
		})
	}

	if f.Hole > 0 {
		return chart.DonutChart{
			Title:  f.Title,
			Width:  style.Width,
			Height: style.Height,
			Values: values,
		}, nil
	}
	return chart.PieChart{
		Title:  f.Title,
		Width:  style.Width,
		Height: style.Height,
		Values: values,
	}, nil
}

// share returns slice i as a percentage of the total.
func share(slices []figure.Slice, i int) float64 {
	var total float64
	for _, s := range slices {
		total += s.Value
	}
	if total == 0 {
		return 0
	}
	return slices[i].Value / total * 100
}

func writePie(w io.Writer, f *figure.Pie, style figure.Style) error {
	r, err := pieChart(f, style)
	if err != nil {
		return err
	}
	return r.Render(chart.PNG, w)
}
