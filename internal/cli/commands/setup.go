package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcharts/internal/cli/config"
	"github.com/leapstack-labs/leapcharts/internal/cli/output"
	"github.com/leapstack-labs/leapcharts/internal/engine"
	"github.com/leapstack-labs/leapcharts/internal/environ"
	"github.com/leapstack-labs/leapcharts/internal/jobs"
	"github.com/leapstack-labs/leapcharts/internal/render"
	"github.com/leapstack-labs/leapcharts/internal/render/snapshot"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Exit codes returned by the CLI.
const (
	ExitOK         = 0
	ExitFatal      = 1
	ExitJobsFailed = 2
)

// ExitError carries a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFatal
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration
// and the logger stored on the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the current configuration, or the built-in defaults
// when no configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// Resolve validates the store settings, prepares the output directory and
// locates the store file.
func (c *CommandContext) Resolve() (*environ.Environment, error) {
	if err := c.Cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return environ.Resolve(environ.Config{
		Database:  c.Cfg.Database,
		OutputDir: c.Cfg.OutputDir,
		Logger:    c.Logger,
	})
}

// RunJobs executes one run of the selected jobs against env. The returned
// error is non-nil only when the run could not start.
func (c *CommandContext) RunJobs(ctx context.Context, env *environ.Environment, only []string, hooks engine.Hooks) (*core.RunReport, error) {
	snap, err := snapshot.New(snapshot.Options{
		Engine:    c.Cfg.Snapshot.Engine,
		ChromeBin: c.Cfg.Snapshot.ChromeBin,
		Settle:    c.Cfg.Snapshot.Settle(),
		Logger:    c.Logger,
	})
	if err != nil {
		return nil, &core.Error{Kind: core.KindEnvironment, Op: "snapshot", Err: err}
	}
	renderer := render.New(snap, c.Logger)
	defer func() {
		if err := renderer.Close(); err != nil {
			c.Logger.Warn("failed to close renderer", "error", err)
		}
	}()

	eng, err := engine.New(engine.Config{
		Registry:   jobs.DefaultRegistry(),
		Only:       only,
		Store:      c.Cfg.AdapterConfig(env.DatabasePath),
		Renderer:   renderer,
		OutputDir:  env.OutputDir,
		Style:      c.Cfg.Style.Figure(),
		SampleSize: c.Cfg.Sampling.Size,
		Seed:       c.Cfg.Sampling.Seed,
		Logger:     c.Logger,
		Hooks:      hooks,
	})
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

// progressHooks prints a progress line per job and a notice for every job
// that did not succeed.
func progressHooks(r *output.Renderer) engine.Hooks {
	return engine.Hooks{
		JobStarted: func(j *jobs.Job, index, total int) {
			r.Progress(index, total, j.Title)
		},
		JobFinished: func(o *core.JobOutcome, _, _ int) {
			r.JobDone(o)
		},
	}
}

// failedJobsError returns an ExitError when the report has failed jobs
// and the configuration asks for a failing exit.
func failedJobsError(cfg *config.Config, rep *core.RunReport) error {
	n := rep.Count(core.JobFailed)
	if n == 0 || !cfg.Run.FailOnError {
		return nil
	}
	return &ExitError{Code: ExitJobsFailed, Err: fmt.Errorf("%d of %d jobs failed", n, len(rep.Jobs))}
}
