// Package figure defines the renderer-neutral chart descriptions produced
// by chart jobs. A Figure is a closed set of variants; renderers switch on
// the concrete type.
package figure

// Kind tags a figure variant.
type Kind string

// Figure kinds.
const (
	KindBox       Kind = "box"
	KindBar       Kind = "bar"
	KindPie       Kind = "pie"
	KindLine      Kind = "line"
	KindHeatmap   Kind = "heatmap"
	KindScatter   Kind = "scatter"
	KindComposite Kind = "composite"
)

// Figure is implemented only by the variants in this package.
type Figure interface {
	Kind() Kind
	Heading() string
	sealed()
}

// Labels holds the texts shared by axis-based figures.
type Labels struct {
	Title  string
	XLabel string
	YLabel string
}

// Heading returns the figure title.
func (l Labels) Heading() string { return l.Title }

// Box is one box plot per group.
type Box struct {
	Labels
	Groups  []BoxGroup
	Palette string
}

// BoxGroup is the sample of one box.
type BoxGroup struct {
	Label  string
	Values []float64
}

// Bar is a bar chart, one bar per label.
type Bar struct {
	Labels
	Categories []string
	Values     []float64
	Horizontal bool
	// ValueLabels prints each bar's value in SI notation next to the bar.
	ValueLabels bool
	Palette     string
	RefLines    []RefLine
}

// RefLine is a dashed reference line across the value axis.
type RefLine struct {
	Value float64
	Label string
	Color string
}

// Pie is a pie chart; Hole > 0 makes it a donut.
type Pie struct {
	Labels
	Slices []Slice
	// Hole is the inner radius as a fraction of the outer radius.
	Hole float64
}

// Slice is one wedge of a Pie.
type Slice struct {
	Label string
	Value float64
	Color string
}

// Line is a single series over an ordered x axis.
type Line struct {
	Labels
	X []float64
	Y []float64
	// XCategories, when set, names each X position (same length as X).
	XCategories []string
	// Ticks, when set, fixes the x-axis ticks.
	Ticks   []float64
	Markers bool
	// Fill shades the area under the line with this opacity (0 disables).
	Fill  float64
	Color string
}

// Heatmap is a matrix of values over two categorical axes.
type Heatmap struct {
	Labels
	ValueLabel string
	Rows       []string
	Cols       []string
	// Cells[r][c] holds the value at row r, column c.
	Cells [][]float64
}

// Scatter is an x/y point cloud.
type Scatter struct {
	Labels
	X, Y       []float64
	MarkerSize float64
	Opacity    float64
	Color      string
}

// Composite arranges up to Rows*Cols panels on a grid under a shared title.
type Composite struct {
	Title      string
	Rows, Cols int
	Panels     []Panel
	ShowLegend bool
}

// Panel is one cell of a Composite.
type Panel struct {
	Title  string
	Figure Figure
}

// Heading returns the shared title.
func (c *Composite) Heading() string { return c.Title }

func (*Box) Kind() Kind       { return KindBox }
func (*Bar) Kind() Kind       { return KindBar }
func (*Pie) Kind() Kind       { return KindPie }
func (*Line) Kind() Kind      { return KindLine }
func (*Heatmap) Kind() Kind   { return KindHeatmap }
func (*Scatter) Kind() Kind   { return KindScatter }
func (*Composite) Kind() Kind { return KindComposite }

func (*Box) sealed()       {}
func (*Bar) sealed()       {}
func (*Pie) sealed()       {}
func (*Line) sealed()      {}
func (*Heatmap) sealed()   {}
func (*Scatter) sealed()   {}
func (*Composite) sealed() {}

// Empty reports whether a figure carries no data points.
func Empty(f Figure) bool {
	switch x := f.(type) {
	case *Box:
		for _, g := range x.Groups {
			if len(g.Values) > 0 {
				return false
			}
		}
		return true
	case *Bar:
		return len(x.Values) == 0
	case *Pie:
		for _, s := range x.Slices {
			if s.Value > 0 {
				return false
			}
		}
		return true
	case *Line:
		return len(x.Y) == 0
	case *Heatmap:
		return len(x.Rows) == 0 || len(x.Cols) == 0
	case *Scatter:
		return len(x.X) == 0
	case *Composite:
		return len(x.Panels) == 0
	}
	return true
}
