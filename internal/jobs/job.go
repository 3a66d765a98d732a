// Package jobs defines chart jobs and the registry that fixes their run
// order.
//
// A job is pure data plus one function: the queries it needs, a Build
// function turning query results (and prerequisite results) into a figure,
// and the artifact names the figure is written to. Jobs never touch the
// database or the filesystem themselves; the engine does both.
package jobs

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/leapstack-labs/leapcharts/internal/dag"
	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Query is one named SQL statement of a job.
type Query struct {
	Name string
	SQL  string
}

// Input is what Build receives.
type Input struct {
	// Tables holds each query result under its query name.
	Tables map[string]*core.Table
	// Prereqs holds the published table of each prerequisite job.
	Prereqs map[string]*core.Table
	// Rand drives sampling.
	Rand *rand.Rand
	// SampleSize bounds sampled point clouds.
	SampleSize int
}

// Table returns the result of the named query.
func (in *Input) Table(name string) (*core.Table, error) {
	t, ok := in.Tables[name]
	if !ok {
		return nil, core.Errorf(core.KindShape, name, "query result %q not available", name)
	}
	return t, nil
}

// Prereq returns the table published by a prerequisite job.
func (in *Input) Prereq(id string) (*core.Table, error) {
	t, ok := in.Prereqs[id]
	if !ok {
		return nil, &core.Error{Kind: core.KindMissingPrerequisite, Op: id, Err: fmt.Errorf("no result from %s", id)}
	}
	return t, nil
}

// Result is what Build returns.
type Result struct {
	Figure figure.Figure
	// Table, when set, is published for dependent jobs.
	Table *core.Table
}

// Job is an immutable chart job definition.
type Job struct {
	ID      string
	Ordinal int
	// Title is the progress label.
	Title string
	// Requires lists jobs whose published tables Build reads.
	Requires []string
	Queries  []Query
	Build    func(in *Input) (Result, error)
	// Outputs are artifact file names relative to the output directory.
	Outputs []string
	// Width and Height override the configured artifact size when set.
	Width  int
	Height int
}

// Registry is the validated, ordered set of jobs.
type Registry struct {
	jobs  []*Job
	index map[string]*Job
	graph *dag.Graph
}

// NewRegistry validates jobs and fixes their order. Ordinals must count
// from 1 in list order, ids and output names must be unique, and every
// prerequisite must be a known job listed earlier.
func NewRegistry(jobs []*Job) (*Registry, error) {
	r := &Registry{
		index: make(map[string]*Job, len(jobs)),
		graph: dag.NewGraph(),
	}
	outputs := make(map[string]string)

	for i, j := range jobs {
		if j.ID == "" {
			return nil, fmt.Errorf("job %d has no id", i+1)
		}
		if _, dup := r.index[j.ID]; dup {
			return nil, fmt.Errorf("duplicate job id %q", j.ID)
		}
		if j.Ordinal != i+1 {
			return nil, fmt.Errorf("job %q has ordinal %d, want %d", j.ID, j.Ordinal, i+1)
		}
		if j.Build == nil {
			return nil, fmt.Errorf("job %q has no build function", j.ID)
		}
		if len(j.Outputs) == 0 {
			return nil, fmt.Errorf("job %q has no outputs", j.ID)
		}
		for _, out := range j.Outputs {
			if out != filepath.Base(out) {
				return nil, fmt.Errorf("job %q: output %q must be a bare file name", j.ID, out)
			}
			if _, err := figure.FormatOf(out); err != nil {
				return nil, fmt.Errorf("job %q: %w", j.ID, err)
			}
			if owner, dup := outputs[out]; dup {
				return nil, fmt.Errorf("output %q is written by both %q and %q", out, owner, j.ID)
			}
			outputs[out] = j.ID
		}

		r.graph.AddNode(j.ID, j)
		for _, p := range j.Requires {
			if _, ok := r.index[p]; !ok {
				return nil, fmt.Errorf("job %q requires %q, which is not defined before it", j.ID, p)
			}
			if err := r.graph.AddEdge(p, j.ID); err != nil {
				return nil, fmt.Errorf("job %q: %w", j.ID, err)
			}
		}

		r.jobs = append(r.jobs, j)
		r.index[j.ID] = j
	}

	if c := r.graph.Cycle(); c != nil {
		return nil, fmt.Errorf("dependency cycle: %v", c)
	}
	return r, nil
}

// Jobs returns the jobs in run order.
func (r *Registry) Jobs() []*Job {
	return append([]*Job(nil), r.jobs...)
}

// Len returns the number of jobs.
func (r *Registry) Len() int {
	return len(r.jobs)
}

// Get returns a job by id.
func (r *Registry) Get(id string) (*Job, bool) {
	j, ok := r.index[id]
	return j, ok
}

// Graph returns the dependency graph.
func (r *Registry) Graph() *dag.Graph {
	return r.graph
}

// Select returns the named jobs plus everything they require, in run
// order. No ids selects every job.
func (r *Registry) Select(ids ...string) ([]*Job, error) {
	if len(ids) == 0 {
		return r.Jobs(), nil
	}
	for _, id := range ids {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("unknown job %q", id)
		}
	}
	var out []*Job
	for _, id := range r.graph.Ancestors(ids...) {
		out = append(out, r.index[id])
	}
	return out, nil
}
