package engine

// run.go - sequential job execution

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapcharts/internal/jobs"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// runState is the per-run arena: published tables and final statuses.
type runState struct {
	exec     Executor
	tables   map[string]*core.Table
	statuses map[string]core.JobStatus
	input    jobs.Input
}

// Run executes the selected jobs in order and returns the run report.
// A job failure is recorded on its outcome and the run continues; the
// returned error is non-nil only when the run could not start (the store
// failed to open).
func (e *Engine) Run(ctx context.Context) (*core.RunReport, error) {
	report := &core.RunReport{
		ID:        uuid.NewString(),
		Database:  e.store.Path,
		OutputDir: e.outputDir,
		StartedAt: time.Now(),
	}
	for _, j := range e.selected {
		report.Jobs = append(report.Jobs, &core.JobOutcome{
			ID:      j.ID,
			Ordinal: j.Ordinal,
			Title:   j.Title,
			Status:  core.JobPending,
		})
	}

	e.logger.Info("starting run", "run_id", report.ID, "jobs", len(e.selected))

	exec, release, err := e.connect(ctx)
	if err != nil {
		report.CompletedAt = time.Now()
		e.logger.Error("run aborted", "run_id", report.ID, "error", err)
		return report, err
	}
	defer release()

	st := &runState{
		exec:     exec,
		tables:   make(map[string]*core.Table),
		statuses: make(map[string]core.JobStatus),
		input:    jobs.Input{Rand: e.newRand(), SampleSize: e.sample},
	}

	total := len(e.selected)
	for i, j := range e.selected {
		outcome := report.Jobs[i]
		outcome.Status = core.JobRunning
		if e.hooks.JobStarted != nil {
			e.hooks.JobStarted(j, i+1, total)
		}

		start := time.Now()
		artifacts, rows, err := e.runJob(ctx, st, j)
		outcome.DurationMS = time.Since(start).Milliseconds()
		outcome.Artifacts = artifacts
		outcome.Rows = rows

		switch {
		case err == nil:
			outcome.Status = core.JobSucceeded
			e.logger.Info("job succeeded", "job", j.ID, "artifacts", len(artifacts), "rows", rows, "duration_ms", outcome.DurationMS)
		case isEmpty(err):
			outcome.Status = core.JobSkipped
			outcome.Error = err.Error()
			e.logger.Warn("job skipped", "job", j.ID, "reason", err.Error())
		default:
			outcome.Status = core.JobFailed
			outcome.Kind = core.KindOf(err)
			outcome.Error = err.Error()
			e.logger.Error("job failed", "job", j.ID, "kind", outcome.Kind, "error", err)
		}
		st.statuses[j.ID] = outcome.Status

		if e.hooks.JobFinished != nil {
			e.hooks.JobFinished(outcome, i+1, total)
		}
	}

	report.CompletedAt = time.Now()
	e.logger.Info("run completed", "run_id", report.ID,
		"succeeded", report.Count(core.JobSucceeded),
		"skipped", report.Count(core.JobSkipped),
		"failed", report.Count(core.JobFailed),
		"duration_ms", report.Duration().Milliseconds())
	return report, nil
}

// runJob executes one job: prerequisites, queries, build, render. It
// returns the artifacts written and the number of rows read.
func (e *Engine) runJob(ctx context.Context, st *runState, j *jobs.Job) (artifacts []string, rows int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &core.Error{Kind: core.KindRender, Err: fmt.Errorf("panic: %v", r)}
		}
		err = tagJob(j.ID, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	prereqs := make(map[string]*core.Table, len(j.Requires))
	for _, p := range j.Requires {
		status := st.statuses[p]
		t, ok := st.tables[p]
		if status != core.JobSucceeded || !ok {
			if status == "" {
				status = core.JobPending
			}
			return nil, 0, &core.Error{
				Kind: core.KindMissingPrerequisite,
				Op:   p,
				Err:  fmt.Errorf("prerequisite %s is %s", p, status),
			}
		}
		prereqs[p] = t
	}

	tables := make(map[string]*core.Table, len(j.Queries))
	for _, q := range j.Queries {
		e.logger.Debug("executing query", "job", j.ID, "query", q.Name)
		t, err := st.exec.Execute(ctx, q.SQL)
		if err != nil {
			return nil, rows, core.Wrap(core.KindQuery, q.Name, err)
		}
		tables[q.Name] = t
		rows += t.Len()
	}

	in := st.input
	in.Tables = tables
	in.Prereqs = prereqs
	res, err := j.Build(&in)
	if err != nil {
		if isEmpty(err) {
			return nil, rows, err
		}
		return nil, rows, core.Wrap(core.KindShape, "build", err)
	}

	if res.Table != nil {
		st.tables[j.ID] = res.Table
	}

	outputs := make([]string, len(j.Outputs))
	for i, o := range j.Outputs {
		outputs[i] = filepath.Join(e.outputDir, o)
	}
	style := e.style.Sized(j.Width, j.Height)
	artifacts, err = e.renderer.Render(ctx, res.Figure, style, outputs)
	if err != nil {
		return artifacts, rows, core.Wrap(core.KindRender, "render", err)
	}
	return artifacts, rows, nil
}

// tagJob records the job id on a classified error.
func tagJob(id string, err error) error {
	var ce *core.Error
	if errors.As(err, &ce) && ce.Job == "" {
		ce.Job = id
	}
	return err
}
