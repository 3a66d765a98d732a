package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

func newTest(mode Mode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func sampleReport() *core.RunReport {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &core.RunReport{
		ID:          "run-1",
		Database:    "olist_dw.duckdb",
		OutputDir:   "/tmp/visualizacoes",
		StartedAt:   start,
		CompletedAt: start.Add(2 * time.Second),
		Jobs: []*core.JobOutcome{
			{ID: "delivery_impact", Ordinal: 1, Status: core.JobSkipped, Error: "empty result"},
			{ID: "freight_ratio", Ordinal: 2, Status: core.JobSucceeded, Rows: 112650, DurationMS: 35,
				Artifacts: []string{"/tmp/visualizacoes/02_freight_ratio.png"}},
			{ID: "dashboard", Ordinal: 8, Status: core.JobFailed, Kind: core.KindMissingPrerequisite,
				Error: "dashboard: missing_prerequisite error in sales_evolution"},
		},
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		tty  bool
		want Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeYAML, false, ModeYAML},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		r, _, _ := newTest(tt.mode, tt.tty)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.tty)
	}
}

func TestRenderer_Number(t *testing.T) {
	r, _, _ := newTest(ModeAuto, false)
	assert.Equal(t, "112.650", r.Number(112650))
	assert.Equal(t, "7", r.Number(7))
}

func TestRenderer_Progress(t *testing.T) {
	r, out, _ := newTest(ModeText, false)
	r.Progress(3, 8, "Donut: Retention Rate")
	assert.Equal(t, "[3/8] Generating Donut: Retention Rate...\n", out.String())
}

func TestRenderer_JobDone(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	rep := sampleReport()

	r.JobDone(rep.Jobs[1])
	assert.Empty(t, errOut.String(), "succeeded jobs print nothing")

	r.JobDone(rep.Jobs[0])
	assert.Contains(t, errOut.String(), "delivery_impact skipped: empty result")

	r.JobDone(rep.Jobs[2])
	assert.Contains(t, errOut.String(), "dashboard failed:")
	assert.Empty(t, out.String())
}

func TestRenderer_Report_Markdown(t *testing.T) {
	r, out, errOut := newTest(ModeAuto, false)
	require.NoError(t, r.Report(sampleReport()))

	s := out.String()
	assert.Contains(t, s, "## Run summary")
	assert.Contains(t, s, "| freight_ratio |")
	assert.Contains(t, s, "112.650")
	assert.Contains(t, s, "02_freight_ratio.png")
	assert.Contains(t, s, "failed (missing_prerequisite)")
	assert.Contains(t, s, "Artifacts written to /tmp/visualizacoes")
	assert.NotContains(t, s, "\x1b[")
	assert.Contains(t, errOut.String(), "1 succeeded, 1 skipped, 1 failed in 2s")
}

func TestRenderer_Report_Text(t *testing.T) {
	r, out, _ := newTest(ModeText, false)
	require.NoError(t, r.Report(sampleReport()))

	s := out.String()
	assert.Contains(t, s, "Job")
	assert.Contains(t, s, "delivery_impact")
	assert.Contains(t, s, "skipped")
	assert.NotContains(t, s, "## Run summary")
}

func TestRenderer_Report_Documents(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		r, out, _ := newTest(ModeJSON, false)
		require.NoError(t, r.Report(sampleReport()))

		var got core.RunReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "run-1", got.ID)
		assert.Len(t, got.Jobs, 3)
		assert.Equal(t, core.KindMissingPrerequisite, got.Jobs[2].Kind)
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTest(ModeYAML, false)
		require.NoError(t, r.Report(sampleReport()))

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "run-1", got["id"])
		assert.Equal(t, "/tmp/visualizacoes", got["output_dir"])
	})
}

func TestEmitEvent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EmitEvent(&buf, RunEvent{Event: EventJobStart, Job: "heatmap_geo", Index: 7, Total: 8}))

	line := strings.TrimSpace(buf.String())
	assert.NotContains(t, line, "\n")

	var got RunEvent
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, EventJobStart, got.Event)
	assert.Equal(t, "heatmap_geo", got.Job)
	assert.NotEmpty(t, got.Timestamp)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Jobs", FormatHeader(2, "Jobs"))
	assert.Equal(t, "# Jobs", FormatHeader(0, "Jobs"))
	assert.Equal(t, "- **Outputs**: a.png", FormatKeyValue("Outputs", "a.png"))
}

func TestNewStyles_Plain(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, "ok", NewStyles(&buf, false).StatusSuccess.Render("ok"))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "ok", NewStyles(&buf, true).Error.Render("ok"), "NO_COLOR disables styling")
}
