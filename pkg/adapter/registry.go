package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Factory builds an unconnected adapter.
type Factory func(*slog.Logger) Adapter

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a store type available to Open. Adapters call it from
// init. Registering a name again replaces the earlier factory.
func Register(name string, factory Factory) {
	if name == "" || factory == nil {
		panic("adapter: Register needs a name and a factory")
	}
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// IsRegistered reports whether a store type can be opened.
func IsRegistered(name string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Registered returns the registered store types, sorted.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds an unconnected adapter for cfg.Type. A nil logger discards
// output.
func New(cfg Config, logger *slog.Logger) (Adapter, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, &UnknownStoreError{Type: cfg.Type, Registered: Registered()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// Open builds the adapter for cfg.Type and connects it. The caller closes
// the returned adapter.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Path == "" {
		return nil, &OpenError{Type: cfg.Type, Err: fmt.Errorf("no store path")}
	}
	a, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, &OpenError{Type: cfg.Type, Path: cfg.Path, Err: err}
	}
	return a, nil
}

// UnknownStoreError is returned for a store type no adapter registered.
type UnknownStoreError struct {
	Type       string
	Registered []string
}

func (e *UnknownStoreError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("store type not set (registered: %v); set store.type in leapcharts.yaml", e.Registered)
	}
	return fmt.Sprintf("unknown store type %q (registered: %v); set store.type in leapcharts.yaml", e.Type, e.Registered)
}

// OpenError is returned when a registered store could not be opened.
type OpenError struct {
	Type string
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("open %s store: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("open %s store %s: %v", e.Type, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
