package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcharts/internal/cli/output"
	"github.com/leapstack-labs/leapcharts/internal/dag"
	"github.com/leapstack-labs/leapcharts/internal/jobs"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dag",
		Short: "Show the job dependency graph",
		Long: `Display the dependency graph (DAG) of the chart jobs.

Jobs are grouped by level: a job only reads the published results of
jobs on earlier levels.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the DAG
  leapcharts dag

  # Output as JSON
  leapcharts dag --format json

  # Output as Markdown
  leapcharts dag --format markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDAG(cmd)
		},
	}

	return cmd
}

func runDAG(cmd *cobra.Command) error {
	r := NewCommandContext(cmd).Renderer
	return renderDAG(r, jobs.DefaultRegistry().Graph())
}

func renderDAG(r *output.Renderer, graph *dag.Graph) error {
	levels, err := graph.Levels()
	if err != nil {
		return fmt.Errorf("failed to get levels: %w", err)
	}

	doc := output.DAGOutput{Levels: levels, Edges: make(map[string][]string)}
	for _, n := range graph.Nodes() {
		if children := graph.Children(n.ID); len(children) > 0 {
			doc.Edges[n.ID] = children
		}
	}
	if ok, err := r.Document(doc); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		return dagMarkdown(r, graph, levels)
	}
	return dagText(r, graph, levels)
}

// dagText outputs the DAG in styled text format.
func dagText(r *output.Renderer, graph *dag.Graph, levels [][]string) error {
	styles := r.Styles()

	r.Header(1, "Dependency Graph")

	for i, level := range levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, id := range level {
			r.Printf("  %s\n", styles.JobID.Render(id))
			if deps := graph.Parents(id); len(deps) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("depends on:"), strings.Join(deps, ", "))
			}
			if children := graph.Children(id); len(children) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("used by:"), strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d jobs, %d dependencies", graph.Len(), graph.EdgeCount())))
	return nil
}

// dagMarkdown outputs the DAG in markdown format.
func dagMarkdown(r *output.Renderer, graph *dag.Graph, levels [][]string) error {
	r.Println(output.FormatHeader(1, "Dependency Graph"))
	r.Println("")

	for i, level := range levels {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Level %d", i)))
		for _, id := range level {
			r.Printf("- %s\n", id)
			if deps := graph.Parents(id); len(deps) > 0 {
				r.Printf("  - depends on: %s\n", strings.Join(deps, ", "))
			}
			if children := graph.Children(id); len(children) > 0 {
				r.Printf("  - used by: %s\n", strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Jobs", fmt.Sprintf("%d", graph.Len())))
	r.Println(output.FormatKeyValue("Total Dependencies", fmt.Sprintf("%d", graph.EdgeCount())))
	return nil
}
