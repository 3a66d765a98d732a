package output

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Progress prints the per-job progress line.
func (r *Renderer) Progress(index, total int, title string) {
	r.Printf("[%d/%d] Generating %s...\n", index, total, title)
}

// JobDone prints the outcome line of a job that did not succeed.
func (r *Renderer) JobDone(o *core.JobOutcome) {
	switch o.Status {
	case core.JobFailed:
		r.Error(fmt.Sprintf("%s failed: %s", o.ID, o.Error))
	case core.JobSkipped:
		r.Warning(fmt.Sprintf("%s skipped: %s", o.ID, o.Error))
	}
}

// Report prints the run summary in the effective mode.
func (r *Renderer) Report(rep *core.RunReport) error {
	if ok, err := r.Document(rep); ok {
		return err
	}

	tw := r.summaryTable(rep)
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(2, "Run summary"))
		r.Println("")
		r.Println(tw.RenderMarkdown())
		r.Println("")
	} else {
		r.Println("")
		r.Println(tw.Render())
	}

	summary := fmt.Sprintf("%d succeeded, %d skipped, %d failed in %s",
		rep.Count(core.JobSucceeded), rep.Count(core.JobSkipped), rep.Count(core.JobFailed),
		rep.Duration().Round(time.Millisecond))
	if rep.HasFailures() {
		r.Error(summary)
	} else {
		r.Success(summary)
	}

	out := rep.OutputDir
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}
	r.Muted("Artifacts written to " + out)
	return nil
}

func (r *Renderer) summaryTable(rep *core.RunReport) table.Writer {
	tw := table.NewWriter()
	if r.isTTY {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.AppendHeader(table.Row{"#", "Job", "Status", "Rows", "Time", "Artifacts"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for _, o := range rep.Jobs {
		names := make([]string, len(o.Artifacts))
		for i, a := range o.Artifacts {
			names[i] = filepath.Base(a)
		}
		tw.AppendRow(table.Row{
			o.Ordinal,
			o.ID,
			r.status(o),
			r.Number(o.Rows),
			(time.Duration(o.DurationMS) * time.Millisecond).String(),
			strings.Join(names, ", "),
		})
	}
	return tw
}

func (r *Renderer) status(o *core.JobOutcome) string {
	label := string(o.Status)
	if o.Kind != "" {
		label += " (" + string(o.Kind) + ")"
	}
	if !r.isTTY || r.EffectiveMode() == ModeMarkdown {
		return label
	}
	switch o.Status {
	case core.JobSucceeded:
		return r.styles.StatusSuccess.Render(label)
	case core.JobSkipped:
		return r.styles.StatusSkipped.Render(label)
	case core.JobFailed:
		return r.styles.StatusFailed.Render(label)
	}
	return label
}
