package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcharts/internal/cli/output"
	"github.com/leapstack-labs/leapcharts/internal/engine"
	"github.com/leapstack-labs/leapcharts/internal/jobs"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Only       []string
	JSONOutput bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate all charts",
		Long: `Run every chart job against the analytical store and write the
artifacts to the output directory.

Jobs run one at a time in catalog order. A failing job is reported and
the run continues; jobs that depend on it are marked failed without
running. A job whose query returns no rows is skipped.`,
		Example: `  # Generate every chart
  leapcharts run

  # Generate the dashboard and the jobs it depends on
  leapcharts run --only dashboard

  # Fix the scatter sample
  leapcharts run --seed 42

  # Stream progress as JSON lines for CI/CD integration
  leapcharts run --json`,
		Aliases: []string{"generate"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "Comma-separated job ids to run (prerequisites are added)")
	// Read through the config loader as sampling.seed.
	cmd.Flags().Uint64("seed", 0, "Sampling seed (0 draws a fresh sample)")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output as JSON lines for progress tracking")

	_ = cmd.RegisterFlagCompletionFunc("only", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var ids []string
		for _, j := range jobs.Default() {
			ids = append(ids, j.ID)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	env, err := cmdCtx.Resolve()
	if err != nil {
		return err
	}

	if opts.JSONOutput {
		return runWithJSON(cmd, cmdCtx, env.OutputDir, opts.Only, func(hooks engine.Hooks) (*core.RunReport, error) {
			return cmdCtx.RunJobs(cmd.Context(), env, opts.Only, hooks)
		})
	}

	if env.Created {
		r.Muted(fmt.Sprintf("Created %s", env.OutputDir))
	}
	rep, err := cmdCtx.RunJobs(cmd.Context(), env, opts.Only, progressHooks(r))
	if err != nil {
		return err
	}
	if err := r.Report(rep); err != nil {
		return err
	}
	return failedJobsError(cmdCtx.Cfg, rep)
}

// runWithJSON executes a run and streams its progress as JSON lines.
func runWithJSON(cmd *cobra.Command, cmdCtx *CommandContext, outputDir string, only []string, run func(engine.Hooks) (*core.RunReport, error)) error {
	selected, err := jobs.DefaultRegistry().Select(only...)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(selected))
	for _, j := range selected {
		ids = append(ids, j.ID)
	}

	w := cmd.OutOrStdout()
	emit := func(ev output.RunEvent) {
		if err := output.EmitEvent(w, ev); err != nil {
			cmdCtx.Logger.Warn("failed to emit event", "event", ev.Event, "error", err)
		}
	}

	emit(output.RunEvent{Event: output.EventRunStart, Jobs: ids, Total: len(ids), OutputDir: outputDir})

	rep, err := run(engine.Hooks{
		JobStarted: func(j *jobs.Job, index, total int) {
			emit(output.RunEvent{Event: output.EventJobStart, Job: j.ID, Title: j.Title, Index: index, Total: total})
		},
		JobFinished: func(o *core.JobOutcome, index, total int) {
			emit(jobEvent(o, index, total))
		},
	})
	if err != nil {
		emit(output.RunEvent{Event: output.EventRunComplete, Status: string(core.JobFailed), Kind: string(core.KindOf(err)), Error: err.Error()})
		return err
	}

	emit(runCompleteEvent(rep))
	return failedJobsError(cmdCtx.Cfg, rep)
}

func jobEvent(o *core.JobOutcome, index, total int) output.RunEvent {
	return output.RunEvent{
		Event:      output.EventJobComplete,
		Job:        o.ID,
		Title:      o.Title,
		Index:      index,
		Total:      total,
		Status:     string(o.Status),
		Kind:       string(o.Kind),
		Error:      o.Error,
		Artifacts:  o.Artifacts,
		Rows:       o.Rows,
		DurationMS: o.DurationMS,
	}
}

func runCompleteEvent(rep *core.RunReport) output.RunEvent {
	var ids []string
	for _, o := range rep.Jobs {
		ids = append(ids, o.ID)
	}
	status := core.JobSucceeded
	if rep.Count(core.JobFailed) > 0 {
		status = core.JobFailed
	}
	return output.RunEvent{
		Event:      output.EventRunComplete,
		RunID:      rep.ID,
		Jobs:       ids,
		Status:     string(status),
		DurationMS: rep.Duration().Milliseconds(),
		Succeeded:  rep.Count(core.JobSucceeded),
		Skipped:    rep.Count(core.JobSkipped),
		Failed:     rep.Count(core.JobFailed),
		OutputDir:  rep.OutputDir,
	}
}
