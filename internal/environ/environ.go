// Package environ locates the analytical store and prepares the output
// directory before a run starts.
package environ

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Default names used when the configuration leaves them empty.
const (
	DefaultDatabase  = "olist_dw.duckdb"
	DefaultOutputDir = "visualizacoes"
)

// Config describes where to look.
type Config struct {
	// Database is the store file name, or an absolute path.
	Database string
	// OutputDir is created when missing.
	OutputDir string
	// WorkDir overrides the working directory. Empty uses os.Getwd.
	WorkDir string
	// Executable overrides the running binary path. Empty uses os.Executable.
	Executable string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Environment is the resolved run environment.
type Environment struct {
	// DatabasePath is the absolute path of the store file.
	DatabasePath string
	// OutputDir is the absolute output directory.
	OutputDir string
	// Created reports whether OutputDir had to be created.
	Created bool
	// Candidates lists every database path probed, in order.
	Candidates []string
}

// Resolve prepares the output directory and finds the store file.
//
// Candidates are probed in order: the configured name relative to the
// working directory (or the configured absolute path), then the parent of
// the executable's directory, then the executable's directory. The first
// existing regular file wins. Failure is a core.KindEnvironment error.
func Resolve(cfg Config) (*Environment, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	wd := cfg.WorkDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return nil, core.Wrap(core.KindEnvironment, "workdir", err)
		}
	}

	env := &Environment{}

	out := cfg.OutputDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(wd, out)
	}
	env.OutputDir = filepath.Clean(out)
	created, err := ensureDir(env.OutputDir)
	if err != nil {
		return nil, core.Wrap(core.KindEnvironment, "output_dir", err)
	}
	env.Created = created
	if created {
		logger.Info("created output directory", "path", env.OutputDir)
	}

	env.Candidates = candidates(cfg.Database, wd, cfg.Executable)
	for _, c := range env.Candidates {
		info, err := os.Stat(c)
		if err == nil && info.Mode().IsRegular() {
			env.DatabasePath = c
			logger.Debug("resolved store", "path", c)
			return env, nil
		}
		logger.Debug("store candidate not found", "path", c)
	}

	return nil, &core.Error{
		Kind: core.KindEnvironment,
		Op:   "database",
		Err:  fmt.Errorf("database %q not found (looked in %v)", cfg.Database, env.Candidates),
	}
}

// candidates returns the probe list without duplicates.
func candidates(name, wd, exe string) []string {
	if filepath.IsAbs(name) {
		return []string{filepath.Clean(name)}
	}

	list := []string{filepath.Join(wd, name)}
	if exe == "" {
		if p, err := os.Executable(); err == nil {
			exe = p
		}
	}
	if exe != "" {
		if p, err := filepath.EvalSymlinks(exe); err == nil {
			exe = p
		}
		dir := filepath.Dir(exe)
		list = append(list, filepath.Join(filepath.Dir(dir), name), filepath.Join(dir, name))
	}

	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, c := range list {
		c = filepath.Clean(c)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// ensureDir creates dir when missing and reports whether it did.
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%s exists and is not a directory", dir)
	case !errors.Is(err, fs.ErrNotExist):
		return false, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}
	return true, nil
}
