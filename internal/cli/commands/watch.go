package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcharts/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate charts when the store changes",
		Long: `Generate every chart, then watch the store file and run the jobs
again after each change. Bursts of writes trigger a single run.`,
		Example: `  # Watch with the default quiet period
  leapcharts watch

  # Wait two seconds after the last write
  leapcharts watch --debounce 2s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "Quiet period before a store change triggers a run")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx := NewCommandContext(cmd)

	env, err := cmdCtx.Resolve()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	reportRun(ctx, cmdCtx, env)

	cmdCtx.Renderer.Muted("Watching " + env.DatabasePath + " (Ctrl+C to stop)")
	return watch.New(env.DatabasePath, opts.Debounce, cmdCtx.Logger).Run(ctx, func(ctx context.Context) {
		reportRun(ctx, cmdCtx, env)
	})
}
