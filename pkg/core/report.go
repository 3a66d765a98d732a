package core

import "time"

// JobStatus represents the state of one job within a run.
type JobStatus string

// Job status constants. Pending and running are transient; a finished job
// is succeeded, skipped or failed.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobSkipped   JobStatus = "skipped"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobSkipped || s == JobFailed
}

// JobOutcome records what happened to a single job.
type JobOutcome struct {
	ID         string    `json:"id" yaml:"id"`
	Ordinal    int       `json:"ordinal" yaml:"ordinal"`
	Title      string    `json:"title" yaml:"title"`
	Status     JobStatus `json:"status" yaml:"status"`
	Kind       ErrorKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Artifacts  []string  `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Rows       int       `json:"rows" yaml:"rows"`
	DurationMS int64     `json:"duration_ms" yaml:"duration_ms"`
}

// RunReport summarises a run. It lives in memory only.
type RunReport struct {
	ID          string        `json:"id" yaml:"id"`
	Database    string        `json:"database" yaml:"database"`
	OutputDir   string        `json:"output_dir" yaml:"output_dir"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time     `json:"completed_at" yaml:"completed_at"`
	Jobs        []*JobOutcome `json:"jobs" yaml:"jobs"`
}

// Outcome returns the outcome recorded for a job id, or nil.
func (r *RunReport) Outcome(id string) *JobOutcome {
	for _, j := range r.Jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// Count returns how many jobs ended with the given status.
func (r *RunReport) Count(status JobStatus) int {
	n := 0
	for _, j := range r.Jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

// HasFailures reports whether any job failed.
func (r *RunReport) HasFailures() bool {
	return r.Count(JobFailed) > 0
}

// Artifacts returns every artifact path written during the run, in job order.
func (r *RunReport) Artifacts() []string {
	var out []string
	for _, j := range r.Jobs {
		out = append(out, j.Artifacts...)
	}
	return out
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
