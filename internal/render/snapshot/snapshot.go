// Package snapshot produces the raster companion of an HTML artifact.
//
// Two engines exist. The native engine redraws the figure with the static
// and composite renderers and never looks at the HTML. The chromium engine
// loads the HTML document in headless Chrome and screenshots it, so the
// raster matches what a browser shows.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/composite"
	"github.com/leapstack-labs/leapcharts/internal/render/static"
)

// Engine names.
const (
	EngineNative   = "native"
	EngineChromium = "chromium"
)

// Engines lists the valid engine names.
var Engines = []string{EngineNative, EngineChromium}

// Snapshotter writes pngPath as the raster form of fig, whose HTML
// rendering already exists at htmlPath.
type Snapshotter interface {
	Snapshot(ctx context.Context, fig figure.Figure, style figure.Style, htmlPath, pngPath string) error
	Name() string
	Close() error
}

// Options configures New.
type Options struct {
	Engine string
	// ChromeBin overrides browser discovery for the chromium engine.
	ChromeBin string
	// Settle is the wait between page load and capture.
	Settle time.Duration
	Logger *slog.Logger
}

// New returns the snapshotter for opts.Engine. An empty engine selects
// the native one.
func New(opts Options) (Snapshotter, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	switch opts.Engine {
	case "", EngineNative:
		return NewNative(opts.Logger), nil
	case EngineChromium:
		return NewChromium(opts.ChromeBin, opts.Settle, opts.Logger), nil
	}
	return nil, fmt.Errorf("unknown snapshot engine %q (valid: native, chromium)", opts.Engine)
}

// Native redraws figures with the raster renderers.
type Native struct {
	static    *static.Renderer
	composite *composite.Renderer
}

// NewNative creates the native snapshotter.
func NewNative(logger *slog.Logger) *Native {
	return &Native{static: static.New(logger), composite: composite.New(logger)}
}

// Snapshot implements Snapshotter. htmlPath is ignored.
func (n *Native) Snapshot(ctx context.Context, fig figure.Figure, style figure.Style, _, pngPath string) error {
	if c, ok := fig.(*figure.Composite); ok {
		return n.composite.Raster(ctx, c, style, pngPath)
	}
	return n.static.Render(ctx, fig, style, pngPath)
}

// Name implements Snapshotter.
func (*Native) Name() string { return EngineNative }

// Close implements Snapshotter.
func (*Native) Close() error { return nil }
