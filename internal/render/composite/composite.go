// Package composite renders multi-panel figures: an HTML page of
// interactive panels and a raster grid of static panels under a shared
// title.
package composite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/artifact"
	"github.com/leapstack-labs/leapcharts/internal/render/interactive"
	"github.com/leapstack-labs/leapcharts/internal/render/static"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const titleHeight = 36

// Renderer writes composite figures.
type Renderer struct {
	logger *slog.Logger
}

// New creates a composite renderer. A nil logger discards output.
func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{logger: logger}
}

// Validate checks that the panels fit the grid.
func Validate(c *figure.Composite) error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("invalid grid %dx%d", c.Rows, c.Cols)
	}
	if len(c.Panels) > c.Rows*c.Cols {
		return fmt.Errorf("%d panels do not fit a %dx%d grid", len(c.Panels), c.Rows, c.Cols)
	}
	for i, p := range c.Panels {
		if p.Figure == nil {
			return fmt.Errorf("panel %d has no figure", i+1)
		}
		if p.Figure.Kind() == figure.KindComposite {
			return fmt.Errorf("panel %d: composites cannot be nested", i+1)
		}
	}
	return nil
}

// panelStyle is the share of style given to one grid cell.
func panelStyle(c *figure.Composite, style figure.Style) figure.Style {
	s := style
	s.Width = style.Width / c.Cols
	s.Height = (style.Height - titleHeight) / c.Rows
	return s
}

// HTML writes the composite as one page holding every panel.
func (r *Renderer) HTML(ctx context.Context, c *figure.Composite, style figure.Style, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(c); err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = c.Title
	page.SetLayout(components.PageNoneLayout)

	ps := panelStyle(c, style)
	for i, p := range c.Panels {
		chart, err := interactive.Titled(p.Figure, panelTitle(p), ps)
		if err != nil {
			return fmt.Errorf("panel %d: %w", i+1, err)
		}
		page.AddCharts(chart)
	}

	r.logger.Debug("rendering composite page",
		slog.String("file", filepath.Base(path)),
		slog.Int("panels", len(c.Panels)))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return artifact.Write(path, func(w io.Writer) error {
		return gridLayout(w, &buf, c.Title, c.Cols, ps.Width)
	})
}

const gridCSS = `body { margin: 0; }
.dashboard-title { margin: 0; height: %[1]dpx; line-height: %[1]dpx; text-align: center; font: bold 20px sans-serif; }
.dashboard-grid { display: grid; grid-template-columns: repeat(%[2]d, %[3]dpx); justify-content: center; }
`

// gridLayout rewrites a rendered page so the shared title is a visible
// heading and the panels sit in a grid of cols columns.
func gridLayout(w io.Writer, page io.Reader, title string, cols, cellWidth int) error {
	doc, err := html.Parse(page)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return errors.New("page has no body")
	}

	grid := element(atom.Div, "dashboard-grid")
	for n := body.FirstChild; n != nil; {
		next := n.NextSibling
		body.RemoveChild(n)
		grid.AppendChild(n)
		n = next
	}

	style := element(atom.Style, "")
	style.AppendChild(&html.Node{Type: html.TextNode, Data: fmt.Sprintf(gridCSS, titleHeight, cols, cellWidth)})
	heading := element(atom.H1, "dashboard-title")
	heading.AppendChild(&html.Node{Type: html.TextNode, Data: title})

	body.AppendChild(style)
	body.AppendChild(heading)
	body.AppendChild(grid)
	return html.Render(w, doc)
}

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Raster writes the composite as a PNG grid. Panel legends are dropped.
func (r *Renderer) Raster(ctx context.Context, c *figure.Composite, style figure.Style, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(c); err != nil {
		return err
	}

	plots := make([][]*plot.Plot, c.Rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, c.Cols)
	}
	for i, p := range c.Panels {
		pl, err := static.Plot(p.Figure)
		if err != nil {
			return fmt.Errorf("panel %d: %w", i+1, err)
		}
		pl.Title.Text = panelTitle(p)
		if !c.ShowLegend {
			pl.Legend = plot.NewLegend()
		}
		plots[i/c.Cols][i%c.Cols] = pl
	}

	img := vgimg.New(static.Pixels(style.Width), static.Pixels(style.Height))
	dc := draw.New(img)
	drawTitle(dc, c.Title)

	tiles := draw.Tiles{
		Rows:      c.Rows,
		Cols:      c.Cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	body := draw.Crop(dc, 0, 0, 0, -static.Pixels(titleHeight))
	canvases := plot.Align(plots, tiles, body)
	for i := range plots {
		for j, pl := range plots[i] {
			if pl != nil {
				pl.Draw(canvases[i][j])
			}
		}
	}

	r.logger.Debug("rendering composite raster",
		slog.String("file", filepath.Base(path)),
		slog.Int("panels", len(c.Panels)))

	return artifact.Write(path, func(w io.Writer) error {
		_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
		return err
	})
}

func panelTitle(p figure.Panel) string {
	if p.Title != "" {
		return p.Title
	}
	return p.Figure.Heading()
}

func drawTitle(dc draw.Canvas, title string) {
	sty := plot.New().Title.TextStyle
	sty.Font.Size = vg.Points(16)
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YTop
	dc.FillText(sty, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - vg.Points(6)}, title)
}
