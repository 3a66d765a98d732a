package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcharts/internal/cli/config"
	"github.com/leapstack-labs/leapcharts/internal/cli/output"
)

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "leapcharts", cmd.Use)
	assert.NotNil(t, cmd.RunE, "bare command runs the jobs")

	for _, name := range []string{"run", "list", "dag", "serve", "watch", "version", "completion"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "database", "output-dir", "snapshot", "verbose", "format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "persistent flag %q should exist", flag)
	}
	for _, flag := range []string{"only", "seed", "json"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "run flag %q should be accepted by the bare command", flag)
	}
}

func TestRootCmd_List(t *testing.T) {
	out, _, err := executeRoot(t, "list", "--format", "json")
	require.NoError(t, err)

	var got output.ListOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 8, got.Total)
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: yaml\nverbose: true\n"), 0o600))

	out, errOut, err := executeRoot(t, "--config", path, "dag")
	require.NoError(t, err)
	assert.Contains(t, out, "levels:")
	assert.Contains(t, errOut, "using config file")
}

func TestRootCmd_InvalidFormat(t *testing.T) {
	_, _, err := executeRoot(t, "list", "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapcharts "+Version)
}

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "bash completion"},
		{"zsh", "#compdef leapcharts"},
		{"fish", "complete -c leapcharts"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, _, err := executeRoot(t, "completion", tt.shell)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	_, _, err := executeRoot(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, false)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger = NewLogger(&buf, true)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("hello", "job", "dashboard")
	assert.Contains(t, buf.String(), "job=dashboard")
}
