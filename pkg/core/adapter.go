package core

import "database/sql"

// AdapterConfig holds configuration for connecting to an analytical store.
type AdapterConfig struct {
	// Type selects the registered adapter (e.g. "duckdb").
	Type string
	// Path is the store file. Empty means an in-memory store.
	Path string
	// ReadOnly opens the store without write access.
	ReadOnly bool
	// Params carries adapter-specific settings, decoded by the adapter.
	Params map[string]any
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
