// Package adapter provides the store adapter contract for leapcharts.
//
// Chart jobs only read from the analytical store, so the contract is a
// connection lifecycle plus query execution. Concrete adapters live in
// pkg/adapters/ subdirectories and register themselves by name.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all store adapters must implement.
type Adapter interface {
	// Connect opens the store described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection. Safe to call when never connected.
	Close() error

	// Exec runs a statement that returns no rows (session settings, fixtures).
	Exec(ctx context.Context, sql string) error

	// Query runs a statement that returns rows. The caller closes the rows.
	Query(ctx context.Context, sql string) (*Rows, error)
}
