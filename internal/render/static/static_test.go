package static

import (
	"context"
	"image"
	"image/color"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	return cfg.Width, cfg.Height
}

func TestRender_Figures(t *testing.T) {
	labels := figure.Labels{Title: "Title", XLabel: "x", YLabel: "y"}
	tests := []struct {
		name string
		fig  figure.Figure
	}{
		{
			name: "box",
			fig: &figure.Box{Labels: labels, Palette: "coolwarm", Groups: []figure.BoxGroup{
				{Label: "No Prazo", Values: []float64{5, 4, 5, 3}},
				{Label: "Atraso Leve", Values: []float64{3, 2, 4}},
				{Label: "Atraso Grave", Values: nil},
			}},
		},
		{
			name: "vertical bar with reference line",
			fig: &figure.Bar{Labels: labels, Categories: []string{"RR", "PB"}, Values: []float64{24.1, 21.3},
				RefLines: []figure.RefLine{{Value: 20, Label: "Zona de Risco (>20%)", Color: "#d62728"}}},
		},
		{
			name: "horizontal bar with value labels",
			fig: &figure.Bar{Labels: labels, Categories: []string{"a", "b", "c"}, Values: []float64{1200, 15000, 1.3e6},
				Horizontal: true, ValueLabels: true, Palette: "viridis"},
		},
		{
			name: "line with ticks",
			fig: &figure.Line{Labels: labels, X: []float64{1, 2, 3}, Y: []float64{100, 120, 90},
				Ticks: []float64{1, 2, 3}, Markers: true, Fill: 0.1, Color: "#2ca02c"},
		},
		{
			name: "line with categories",
			fig: &figure.Line{Labels: labels, X: []float64{0, 1, 2}, Y: []float64{1, 2, 3},
				XCategories: []string{"2017-01", "2017-02", "2017-03"}},
		},
		{
			name: "heatmap",
			fig: &figure.Heatmap{Labels: labels, Rows: []string{"Sunday", "Monday"}, Cols: []string{"SP", "RJ", "MG"},
				Cells: [][]float64{{1, 2, 3}, {4, 5, 6}}},
		},
		{
			name: "single cell heatmap",
			fig:  &figure.Heatmap{Labels: labels, Rows: []string{"Sunday"}, Cols: []string{"SP"}, Cells: [][]float64{{7}}},
		},
		{
			name: "heatmap with missing cells",
			fig: &figure.Heatmap{Labels: labels, Rows: []string{"Sunday", "Monday"}, Cols: []string{"SP", "RJ"},
				Cells: [][]float64{{math.NaN(), 2}, {4, math.NaN()}}},
		},
		{
			name: "scatter",
			fig:  &figure.Scatter{Labels: labels, X: []float64{10, 20, 30}, Y: []float64{5, 8, 9}, Opacity: 0.5, MarkerSize: 4},
		},
		{
			name: "donut",
			fig: &figure.Pie{Labels: labels, Hole: 0.4, Slices: []figure.Slice{
				{Label: "Compra Única", Value: 90, Color: "#ff9999"},
				{Label: "Recorrente", Value: 10, Color: "#66b3ff"},
			}},
		},
		{
			name: "empty pie",
			fig:  &figure.Pie{Labels: labels, Slices: []figure.Slice{{Label: "a"}, {Label: "b"}}},
		},
		{
			name: "empty scatter",
			fig:  &figure.Scatter{Labels: labels},
		},
	}

	r := New(testutil.NewTestLogger(t))
	dir := t.TempDir()
	style := figure.DefaultStyle().Sized(640, 480)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, filepath.Base(tt.name)+".png")
			require.NoError(t, r.Render(context.Background(), tt.fig, style, path))

			w, h := decodeSize(t, path)
			assert.Equal(t, 640, w)
			assert.Equal(t, 480, h)
		})
	}
}

func TestRender_RejectsComposite(t *testing.T) {
	r := New(nil)
	err := r.Render(context.Background(), &figure.Composite{Title: "x"}, figure.DefaultStyle(), filepath.Join(t.TempDir(), "c.png"))
	require.Error(t, err)
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "x.png")
	err := New(nil).Render(ctx, &figure.Bar{Categories: []string{"a"}, Values: []float64{1}}, figure.DefaultStyle(), path)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestPlot_MismatchedSeries(t *testing.T) {
	_, err := Plot(&figure.Line{X: []float64{1, 2}, Y: []float64{1}})
	require.Error(t, err)

	_, err = Plot(&figure.Heatmap{Rows: []string{"a"}, Cols: []string{"b"}, Cells: [][]float64{{1, 2}}})
	require.Error(t, err)

	_, err = Plot(&figure.Pie{})
	require.Error(t, err)
}

func TestPixels(t *testing.T) {
	assert.InDelta(t, 72.0, float64(Pixels(96)), 1e-9)
}

func TestHeatGrid_MissingCells(t *testing.T) {
	grid := heatGrid{h: &figure.Heatmap{
		Rows:  []string{"Sunday", "Monday"},
		Cols:  []string{"SP", "RJ"},
		Cells: [][]float64{{math.NaN(), 2}, {8, math.NaN()}},
	}}
	lo, hi := grid.zRange()
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 8.0, hi)

	pal := newHeatPalette("heat", 8)
	assert.Equal(t, color.Color(missingCell), pal.at(math.NaN(), lo, hi))
	assert.Equal(t, pal[0], pal.at(2, lo, hi))
	assert.Equal(t, pal[7], pal.at(8, lo, hi))

	empty := heatGrid{h: &figure.Heatmap{Rows: []string{"Sunday"}, Cols: []string{"SP"}, Cells: [][]float64{{math.NaN()}}}}
	lo, hi = empty.zRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}
