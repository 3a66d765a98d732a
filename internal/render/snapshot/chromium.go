package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/artifact"
)

// Chromium screenshots HTML artifacts in a headless browser. The browser
// starts on the first Snapshot and lives until Close.
type Chromium struct {
	bin    string
	settle time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewChromium creates a chromium snapshotter. An empty bin lets go-rod
// find or download a browser.
func NewChromium(bin string, settle time.Duration, logger *slog.Logger) *Chromium {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chromium{bin: bin, settle: settle, logger: logger}
}

// Name implements Snapshotter.
func (*Chromium) Name() string { return EngineChromium }

func (c *Chromium) start(ctx context.Context) (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	l := launcher.New().Headless(true)
	if c.bin != "" {
		l = l.Bin(c.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	c.logger.Debug("chrome started", slog.String("control_url", controlURL))
	c.launcher = l
	c.browser = browser
	return browser, nil
}

// Snapshot implements Snapshotter.
func (c *Chromium) Snapshot(ctx context.Context, _ figure.Figure, style figure.Style, htmlPath, pngPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", htmlPath, err)
	}

	browser, err := c.start(ctx)
	if err != nil {
		return err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filepath.ToSlash(abs)})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             style.Width,
		Height:            style.Height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(htmlPath), err)
	}

	// ECharts animates its first paint.
	if c.settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.settle):
		}
	}

	png, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	c.logger.Debug("captured snapshot",
		slog.String("html", filepath.Base(htmlPath)),
		slog.String("png", filepath.Base(pngPath)),
		slog.Int("bytes", len(png)))

	return artifact.Write(pngPath, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(png))
		return err
	})
}

// Close shuts the browser down. It is safe to call more than once.
func (c *Chromium) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launcher != nil {
		c.launcher.Cleanup()
		c.launcher = nil
	}
	return err
}
