// Package render routes figures to the renderer that can write each
// requested artifact.
//
// HTML outputs go to the interactive renderer (or the composite page
// renderer). A PNG output requested next to an HTML output is produced by
// the configured snapshotter from that document; a PNG requested alone is
// drawn directly by the static (or composite raster) renderer.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/composite"
	"github.com/leapstack-labs/leapcharts/internal/render/interactive"
	"github.com/leapstack-labs/leapcharts/internal/render/snapshot"
	"github.com/leapstack-labs/leapcharts/internal/render/static"
)

// Renderer is what the engine needs from a dispatcher.
type Renderer interface {
	Render(ctx context.Context, fig figure.Figure, style figure.Style, outputs []string) ([]string, error)
}

// Dispatcher implements Renderer over the concrete renderers.
type Dispatcher struct {
	static      *static.Renderer
	interactive *interactive.Renderer
	composite   *composite.Renderer
	snapshotter snapshot.Snapshotter
	logger      *slog.Logger
}

// New creates a dispatcher. A nil snapshotter selects the native engine.
func New(snap snapshot.Snapshotter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if snap == nil {
		snap = snapshot.NewNative(logger)
	}
	return &Dispatcher{
		static:      static.New(logger),
		interactive: interactive.New(logger),
		composite:   composite.New(logger),
		snapshotter: snap,
		logger:      logger,
	}
}

// Close releases the snapshotter.
func (d *Dispatcher) Close() error {
	return d.snapshotter.Close()
}

// Render writes fig to every path in outputs and returns the paths written,
// in order. HTML outputs are written before PNG outputs so snapshots can
// read them. The first failure stops the call; files already written are
// returned with the error.
func (d *Dispatcher) Render(ctx context.Context, fig figure.Figure, style figure.Style, outputs []string) ([]string, error) {
	type target struct {
		path   string
		format figure.Format
	}
	targets := make([]target, 0, len(outputs))
	var html string
	for _, out := range outputs {
		format, err := figure.FormatOf(out)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{path: out, format: format})
		if format == figure.HTML && html == "" {
			html = out
		}
	}
	slices.SortStableFunc(targets, func(a, b target) int {
		return rank(a.format) - rank(b.format)
	})

	var written []string
	for _, t := range targets {
		var err error
		switch t.format {
		case figure.HTML:
			err = d.html(ctx, fig, style, t.path)
		case figure.PNG:
			err = d.png(ctx, fig, style, html, t.path)
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", filepath.Base(t.path), err)
		}
		written = append(written, t.path)
	}
	return written, nil
}

func rank(f figure.Format) int {
	if f == figure.HTML {
		return 0
	}
	return 1
}

func (d *Dispatcher) html(ctx context.Context, fig figure.Figure, style figure.Style, path string) error {
	if c, ok := fig.(*figure.Composite); ok {
		return d.composite.HTML(ctx, c, style, path)
	}
	return d.interactive.Render(ctx, fig, style, path)
}

func (d *Dispatcher) png(ctx context.Context, fig figure.Figure, style figure.Style, html, path string) error {
	if html != "" {
		d.logger.Debug("snapshotting html artifact",
			slog.String("engine", d.snapshotter.Name()),
			slog.String("html", filepath.Base(html)))
		return d.snapshotter.Snapshot(ctx, fig, style, html, path)
	}
	if c, ok := fig.(*figure.Composite); ok {
		return d.composite.Raster(ctx, c, style, path)
	}
	return d.static.Render(ctx, fig, style, path)
}
