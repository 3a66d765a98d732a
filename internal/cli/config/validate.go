package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapcharts/internal/render/snapshot"
	"github.com/leapstack-labs/leapcharts/pkg/adapter"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Output formats accepted by --format.
var formats = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.OutputFormat != "" && !slices.Contains(formats, c.OutputFormat) {
		return fmt.Errorf("unknown format %q (valid: %v)", c.OutputFormat, formats)
	}
	if !slices.Contains(snapshot.Engines, c.Snapshot.Engine) {
		return fmt.Errorf("unknown snapshot engine %q (valid: %v)", c.Snapshot.Engine, snapshot.Engines)
	}
	if c.Snapshot.SettleMS < 0 {
		return fmt.Errorf("snapshot.settle_ms must not be negative, got %d", c.Snapshot.SettleMS)
	}
	if c.Style.Width <= 0 || c.Style.Height <= 0 {
		return fmt.Errorf("style size must be positive, got %dx%d", c.Style.Width, c.Style.Height)
	}
	if c.Sampling.Size <= 0 {
		return fmt.Errorf("sampling.size must be positive, got %d", c.Sampling.Size)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port out of range: %d", c.Serve.Port)
	}
	return nil
}

// ValidateStore checks that the configured store adapter is registered.
// It is separate from Validate because adapters register themselves on
// import.
func (c *Config) ValidateStore() error {
	if !adapter.IsRegistered(c.Store.Type) {
		return &core.Error{
			Kind: core.KindEnvironment,
			Op:   "store",
			Err:  fmt.Errorf("unknown adapter type %q (available: %v)", c.Store.Type, adapter.Registered()),
		}
	}
	return nil
}

// AdapterConfig builds the store connection for a resolved database path.
// The store is always opened read-only.
func (c *Config) AdapterConfig(path string) core.AdapterConfig {
	return core.AdapterConfig{
		Type:     c.Store.Type,
		Path:     path,
		ReadOnly: true,
		Params:   c.Store.Params,
	}
}
