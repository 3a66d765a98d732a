package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcharts/internal/cli/config"
	"github.com/leapstack-labs/leapcharts/internal/cli/output"
	"github.com/leapstack-labs/leapcharts/internal/testutil"
	_ "github.com/leapstack-labs/leapcharts/pkg/adapters/duckdb"
)

// loadFixtureConfig points the configuration at a fixture store and a
// fresh output directory.
func loadFixtureConfig(t *testing.T, opts ...testutil.FixtureOption) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping store integration test in short mode")
	}

	db := testutil.NewFixtureStore(t, opts...)
	outDir := filepath.Join(t.TempDir(), "visualizacoes")

	t.Chdir(t.TempDir())
	t.Setenv("LEAPCHARTS_DATABASE", db)
	t.Setenv("LEAPCHARTS_OUTPUT_DIR", outDir)
	t.Setenv("LEAPCHARTS_SAMPLING__SIZE", "100")
	t.Setenv("LEAPCHARTS_SAMPLING__SEED", "7")
	t.Cleanup(config.ResetConfig)

	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return outDir
}

func execute(t *testing.T, cmdArgs ...string) (string, string, error) {
	t.Helper()
	cmd := NewRunCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(cmdArgs)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunCommand_Markdown(t *testing.T) {
	outDir := loadFixtureConfig(t)
	t.Setenv("LEAPCHARTS_FORMAT", "markdown")
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	out, errOut, err := execute(t, "--only", "dashboard")
	require.NoError(t, err)

	assert.Contains(t, out, "[1/3] Generating Line: Sales Evolution...")
	assert.Contains(t, out, "[3/3] Generating Dashboard...")
	assert.Contains(t, out, "## Run summary")
	assert.Contains(t, errOut+out, "3 succeeded, 0 skipped, 0 failed")

	for _, name := range []string{"dashboard_completo.html", "obrigatorio_4_dashboard.png", "obrigatorio_1_evolucao_vendas.png"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	assert.NoFileExists(t, filepath.Join(outDir, "01_delivery_impact.png"))
}

func TestRunCommand_JSON(t *testing.T) {
	outDir := loadFixtureConfig(t, testutil.WithoutDeliveries())

	out, _, err := execute(t, "--json", "--only", "delivery_impact,retention_rate")
	require.NoError(t, err)

	var events []output.RunEvent
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	for sc.Scan() {
		var ev output.RunEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), sc.Text())
		events = append(events, ev)
	}

	require.Len(t, events, 6)
	assert.Equal(t, output.EventRunStart, events[0].Event)
	assert.Equal(t, []string{"delivery_impact", "retention_rate"}, events[0].Jobs)

	assert.Equal(t, output.EventJobComplete, events[2].Event)
	assert.Equal(t, "skipped", events[2].Status)

	assert.Equal(t, output.EventJobComplete, events[4].Event)
	assert.Equal(t, "succeeded", events[4].Status)
	assert.Equal(t, []string{filepath.Join(outDir, "03_retention_rate.png")}, events[4].Artifacts)

	last := events[5]
	assert.Equal(t, output.EventRunComplete, last.Event)
	assert.Equal(t, 1, last.Succeeded)
	assert.Equal(t, 1, last.Skipped)
	assert.NotEmpty(t, last.RunID)
}

func TestRunCommand_UnknownJob(t *testing.T) {
	loadFixtureConfig(t)

	_, _, err := execute(t, "--only", "pie_chart")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown job "pie_chart"`)
	assert.Equal(t, ExitFatal, ExitCode(err))
}

func TestRunCommand_MissingStore(t *testing.T) {
	loadFixtureConfig(t)
	t.Setenv("LEAPCHARTS_DATABASE", "missing.duckdb")
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	_, _, err = execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.duckdb")
	assert.Equal(t, ExitFatal, ExitCode(err))
}

func TestCommandContext_Resolve(t *testing.T) {
	outDir := loadFixtureConfig(t)
	cmdCtx := &CommandContext{Cfg: config.GetCurrentConfig(), Logger: testutil.NewTestLogger(t)}

	env, err := cmdCtx.Resolve()
	require.NoError(t, err)
	assert.Equal(t, outDir, env.OutputDir)
	assert.True(t, env.Created)

	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cmdCtx.Cfg.Store.Type = "nosuchstore"
	_, err = cmdCtx.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nosuchstore")
}
