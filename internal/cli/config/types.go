// Package config provides configuration management for the leapcharts CLI.
//
// Values are layered: built-in defaults, then leapcharts.yaml, then
// LEAPCHARTS_* environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapcharts/internal/environ"
	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/render/snapshot"
)

// Config holds all CLI configuration options.
type Config struct {
	Database     string         `koanf:"database"`
	OutputDir    string         `koanf:"output_dir"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"format"`
	Run          RunConfig      `koanf:"run"`
	Sampling     SamplingConfig `koanf:"sampling"`
	Snapshot     SnapshotConfig `koanf:"snapshot"`
	Style        StyleConfig    `koanf:"style"`
	Serve        ServeConfig    `koanf:"serve"`
	Store        StoreConfig    `koanf:"store"`
}

// RunConfig controls run-level behaviour.
type RunConfig struct {
	// FailOnError makes a run with failed jobs exit non-zero.
	FailOnError bool `koanf:"fail_on_error"`
}

// SamplingConfig bounds the dashboard scatter sample.
type SamplingConfig struct {
	Size int `koanf:"size"`
	// Seed fixes the sample. Zero means a fresh sample per run.
	Seed uint64 `koanf:"seed"`
}

// SnapshotConfig selects how raster copies of HTML charts are produced.
type SnapshotConfig struct {
	Engine    string `koanf:"engine"`
	ChromeBin string `koanf:"chrome_bin"`
	SettleMS  int    `koanf:"settle_ms"`
}

// Settle returns the settle delay as a duration.
func (s SnapshotConfig) Settle() time.Duration {
	return time.Duration(s.SettleMS) * time.Millisecond
}

// StyleConfig is the default artifact presentation.
type StyleConfig struct {
	Width  int    `koanf:"width"`
	Height int    `koanf:"height"`
	Theme  string `koanf:"theme"`
}

// Figure converts the style to a figure.Style.
func (s StyleConfig) Figure() figure.Style {
	return figure.Style{Width: s.Width, Height: s.Height, Theme: s.Theme}
}

// ServeConfig holds configuration for the gallery server.
type ServeConfig struct {
	Port int `koanf:"port"`
}

// StoreConfig selects and tunes the store adapter.
type StoreConfig struct {
	Type   string         `koanf:"type"`
	Params map[string]any `koanf:"params"`
}

// Default configuration values.
const (
	DefaultDatabase   = environ.DefaultDatabase
	DefaultOutputDir  = environ.DefaultOutputDir
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultSampleSize = 1000
	DefaultSettleMS   = 500
	DefaultPort       = 8787
	DefaultStoreType  = "duckdb"
	DefaultWidth      = 1200
	DefaultHeight     = 600
	DefaultTheme      = "white"
	DefaultSnapshot   = snapshot.EngineNative
)
