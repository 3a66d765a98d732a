// Package engine runs chart jobs against the analytical store.
// It owns the store connection, executes jobs sequentially in registry
// order and isolates each job's failure from the rest of the run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/jobs"
	"github.com/leapstack-labs/leapcharts/internal/query"
	"github.com/leapstack-labs/leapcharts/internal/render"
	"github.com/leapstack-labs/leapcharts/pkg/adapter"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Executor runs one read-only query.
type Executor interface {
	Execute(ctx context.Context, sql string) (*core.Table, error)
}

// Hooks observe job progress. Either field may be nil.
type Hooks struct {
	// JobStarted is called before a job runs. index counts from 1.
	JobStarted func(j *jobs.Job, index, total int)
	// JobFinished is called once the job's outcome is final.
	JobFinished func(o *core.JobOutcome, index, total int)
}

// Config holds engine configuration.
type Config struct {
	// Registry supplies the jobs. Defaults to jobs.DefaultRegistry().
	Registry *jobs.Registry
	// Only restricts the run to these jobs and their prerequisites.
	Only []string
	// Store describes the store connection.
	Store adapter.Config
	// Executor replaces the store connection when set.
	Executor Executor
	// Renderer writes artifacts. Defaults to a native dispatcher.
	Renderer render.Renderer
	// OutputDir is where artifacts are written.
	OutputDir string
	// Style is the base presentation; jobs may override the size.
	Style figure.Style
	// SampleSize bounds sampled point clouds.
	SampleSize int
	// Seed seeds sampling. Zero means time-seeded.
	Seed uint64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	Hooks  Hooks
}

// Engine executes a set of chart jobs.
type Engine struct {
	registry  *jobs.Registry
	selected  []*jobs.Job
	store     adapter.Config
	executor  Executor
	renderer  render.Renderer
	outputDir string
	style     figure.Style
	sample    int
	seed      uint64
	hooks     Hooks
	logger    *slog.Logger
}

// DefaultSampleSize is used when Config.SampleSize is unset.
const DefaultSampleSize = 1000

// New validates cfg and creates an engine. No connection is opened until
// Run.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reg := cfg.Registry
	if reg == nil {
		var err error
		reg, err = jobs.NewRegistry(jobs.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to build job registry: %w", err)
		}
	}
	selected, err := reg.Select(cfg.Only...)
	if err != nil {
		return nil, err
	}

	if cfg.Executor == nil && cfg.Store.Type == "" {
		cfg.Store.Type = "duckdb"
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(nil, logger)
	}
	style := cfg.Style
	if style.Width <= 0 || style.Height <= 0 {
		style = figure.DefaultStyle().Sized(style.Width, style.Height)
	}
	sample := cfg.SampleSize
	if sample <= 0 {
		sample = DefaultSampleSize
	}

	logger.Debug("initializing engine", "jobs", len(selected), "output_dir", cfg.OutputDir)

	return &Engine{
		registry:  reg,
		selected:  selected,
		store:     cfg.Store,
		executor:  cfg.Executor,
		renderer:  renderer,
		outputDir: cfg.OutputDir,
		style:     style,
		sample:    sample,
		seed:      cfg.Seed,
		hooks:     cfg.Hooks,
		logger:    logger,
	}, nil
}

// Jobs returns the jobs this engine will run, in order.
func (e *Engine) Jobs() []*jobs.Job {
	return append([]*jobs.Job(nil), e.selected...)
}

// connect opens the store and returns an executor over it plus the
// function that releases it.
func (e *Engine) connect(ctx context.Context) (Executor, func(), error) {
	if e.executor != nil {
		return e.executor, func() {}, nil
	}

	e.logger.Debug("connecting to store", "adapter_type", e.store.Type, "path", e.store.Path)

	db, err := adapter.Open(ctx, e.store, e.logger)
	if err != nil {
		return nil, nil, core.Wrap(core.KindEnvironment, "connect", err)
	}
	release := func() {
		if err := db.Close(); err != nil {
			e.logger.Warn("failed to close store", "error", err)
		}
	}
	return query.New(db, e.logger), release, nil
}

func (e *Engine) newRand() *rand.Rand {
	seed := e.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// isEmpty reports whether err marks an empty input.
func isEmpty(err error) bool {
	return errors.Is(err, core.ErrEmptyResult)
}
