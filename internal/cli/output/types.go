package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// RunEvent is one line of the `run --json` event stream.
type RunEvent struct {
	Event      string   `json:"event"`
	RunID      string   `json:"run_id,omitempty"`
	Timestamp  string   `json:"timestamp"`
	Job        string   `json:"job,omitempty"`
	Title      string   `json:"title,omitempty"`
	Index      int      `json:"index,omitempty"`
	Total      int      `json:"total,omitempty"`
	Jobs       []string `json:"jobs,omitempty"`
	Status     string   `json:"status,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Error      string   `json:"error,omitempty"`
	Artifacts  []string `json:"artifacts,omitempty"`
	Rows       int      `json:"rows,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	Succeeded  int      `json:"succeeded,omitempty"`
	Skipped    int      `json:"skipped,omitempty"`
	Failed     int      `json:"failed,omitempty"`
	OutputDir  string   `json:"output_dir,omitempty"`
}

// Run event names.
const (
	EventRunStart    = "run_start"
	EventJobStart    = "job_start"
	EventJobComplete = "job_complete"
	EventRunComplete = "run_complete"
)

// EmitEvent writes event as a single JSON line, stamping the time.
func EmitEvent(w io.Writer, event RunEvent) error {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// JobInfo describes a registered job for `list`.
type JobInfo struct {
	Ordinal  int      `json:"ordinal" yaml:"ordinal"`
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Queries  []string `json:"queries" yaml:"queries"`
	Outputs  []string `json:"outputs" yaml:"outputs"`
}

// ListOutput is the document form of `list`.
type ListOutput struct {
	Jobs  []JobInfo `json:"jobs" yaml:"jobs"`
	Total int       `json:"total" yaml:"total"`
}

// DAGOutput is the document form of `dag`.
type DAGOutput struct {
	Levels [][]string          `json:"levels" yaml:"levels"`
	Edges  map[string][]string `json:"edges" yaml:"edges"`
}
