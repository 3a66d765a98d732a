package static

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/artifact"
	"gonum.org/v1/plot"
)

// Renderer writes single figures as PNG files.
type Renderer struct {
	logger *slog.Logger
}

// New creates a static renderer. A nil logger discards output.
func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{logger: logger}
}

// Render draws fig at style's size and writes it to path.
// A figure without data still yields an image carrying its title.
func (r *Renderer) Render(ctx context.Context, fig figure.Figure, style figure.Style, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fig.Kind() == figure.KindComposite {
		return fmt.Errorf("composite figures are rendered by the composite renderer")
	}

	r.logger.Debug("rendering static figure",
		slog.String("kind", string(fig.Kind())),
		slog.String("file", filepath.Base(path)),
		slog.Int("width", style.Width),
		slog.Int("height", style.Height))

	if pie, ok := fig.(*figure.Pie); ok && !figure.Empty(pie) {
		return artifact.Write(path, func(w io.Writer) error {
			return writePie(w, pie, style)
		})
	}

	var p *plot.Plot
	if _, ok := fig.(*figure.Pie); ok {
		p = plot.New()
		p.Title.Text = fig.Heading()
		p.HideAxes()
	} else {
		var err error
		if p, err = Plot(fig); err != nil {
			return err
		}
	}
	return Save(p, style, path)
}

// Save writes p as a PNG of style's pixel size.
func Save(p *plot.Plot, style figure.Style, path string) error {
	wt, err := p.WriterTo(Pixels(style.Width), Pixels(style.Height), "png")
	if err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	return artifact.Write(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
