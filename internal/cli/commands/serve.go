package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcharts/internal/environ"
	"github.com/leapstack-labs/leapcharts/internal/gallery"
	"github.com/leapstack-labs/leapcharts/internal/watch"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port     int
	Watch    bool
	NoRun    bool
	Debounce time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart gallery",
		Long: `Start a local web server showing every generated chart.

The gallery lists the artifacts of the latest run. PNG charts are shown
as images, interactive charts are embedded. Open pages reload when a new
run completes.

By default the charts are generated once at startup. With --watch they
are regenerated whenever the store file changes.`,
		Example: `  # Generate charts and serve them on the default port
  leapcharts serve

  # Serve existing artifacts without running the jobs
  leapcharts serve --no-run

  # Regenerate on store changes
  leapcharts serve --watch --port 3000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8787)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Regenerate charts when the store changes")
	cmd.Flags().BoolVar(&opts.NoRun, "no-run", false, "Serve existing artifacts without running the jobs")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "Quiet period before a store change triggers a run")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	env, err := cmdCtx.Resolve()
	if err != nil {
		return err
	}

	server := gallery.NewServer(gallery.Config{
		Dir:    env.OutputDir,
		Port:   cmdCtx.Cfg.Serve.Port,
		Logger: cmdCtx.Logger,
	})

	var tasks []func(ctx context.Context) error
	if !opts.NoRun || opts.Watch {
		tasks = append(tasks, func(ctx context.Context) error {
			return generate(ctx, cmdCtx, env, server, opts)
		})
	}

	r.Success(fmt.Sprintf("Serving %s on http://localhost:%d", env.OutputDir, cmdCtx.Cfg.Serve.Port))
	r.Muted("Press Ctrl+C to stop")

	return server.Serve(cmd.Context(), tasks...)
}

// generate runs the jobs once unless disabled, then reruns them on every
// store change when watching. Run failures are reported and do not stop
// the server.
func generate(ctx context.Context, cmdCtx *CommandContext, env *environ.Environment, server *gallery.Server, opts *ServeOptions) error {
	runOnce := func(ctx context.Context) {
		if rep := reportRun(ctx, cmdCtx, env); rep != nil {
			server.SetReport(rep)
		}
	}

	if !opts.NoRun {
		runOnce(ctx)
	}
	if !opts.Watch {
		return nil
	}
	return watch.New(env.DatabasePath, opts.Debounce, cmdCtx.Logger).Run(ctx, runOnce)
}

// reportRun runs the jobs with progress output and prints the report.
// It returns nil when the run could not start.
func reportRun(ctx context.Context, cmdCtx *CommandContext, env *environ.Environment) *core.RunReport {
	r := cmdCtx.Renderer
	rep, err := cmdCtx.RunJobs(ctx, env, nil, progressHooks(r))
	if err != nil {
		r.Error(fmt.Sprintf("run failed: %v", err))
		return nil
	}
	if err := r.Report(rep); err != nil {
		cmdCtx.Logger.Warn("failed to print report", "error", err)
	}
	return rep
}
