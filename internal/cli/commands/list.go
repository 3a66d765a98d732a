package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcharts/internal/cli/output"
	"github.com/leapstack-labs/leapcharts/internal/jobs"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chart jobs and their artifacts",
		Long: `List every chart job in run order with its prerequisites, queries
and the artifacts it writes.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --format to override: auto, text, markdown, json, yaml`,
		Example: `  # List all jobs
  leapcharts list

  # List jobs as JSON
  leapcharts list --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	r := NewCommandContext(cmd).Renderer
	return renderList(r, jobs.DefaultRegistry())
}

func renderList(r *output.Renderer, reg *jobs.Registry) error {
	list := output.ListOutput{Total: reg.Len()}
	for _, j := range reg.Jobs() {
		list.Jobs = append(list.Jobs, jobInfo(j))
	}

	if ok, err := r.Document(list); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		return listMarkdown(r, list)
	}
	return listText(r, list)
}

func jobInfo(j *jobs.Job) output.JobInfo {
	info := output.JobInfo{
		Ordinal:  j.Ordinal,
		ID:       j.ID,
		Title:    j.Title,
		Requires: j.Requires,
		Outputs:  j.Outputs,
	}
	for _, q := range j.Queries {
		info.Queries = append(info.Queries, q.Name)
	}
	return info
}

// listText outputs jobs as a table.
func listText(r *output.Renderer, list output.ListOutput) error {
	styles := r.Styles()
	r.Header(1, fmt.Sprintf("Jobs (%d total)", list.Total))

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Job", "Title", "Requires", "Outputs"})
	for _, j := range list.Jobs {
		tw.AppendRow(table.Row{
			j.Ordinal,
			styles.JobID.Render(j.ID),
			j.Title,
			strings.Join(j.Requires, ", "),
			strings.Join(j.Outputs, ", "),
		})
	}
	r.Println(tw.Render())
	return nil
}

// listMarkdown outputs jobs in markdown format.
func listMarkdown(r *output.Renderer, list output.ListOutput) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Jobs (%d total)", list.Total)))
	r.Println("")

	for _, j := range list.Jobs {
		r.Println(output.FormatHeader(2, fmt.Sprintf("%d. %s", j.Ordinal, j.ID)))
		r.Println(output.FormatKeyValue("Title", j.Title))
		if len(j.Requires) > 0 {
			r.Println(output.FormatKeyValue("Requires", strings.Join(j.Requires, ", ")))
		}
		r.Println(output.FormatKeyValue("Queries", strings.Join(j.Queries, ", ")))
		r.Println(output.FormatKeyValue("Outputs", strings.Join(j.Outputs, ", ")))
		r.Println("")
	}
	return nil
}
