package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapcharts/pkg/adapters/duckdb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leapcharts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoadConfig_Defaults verifies the built-in values when nothing
// overrides them.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "olist_dw.duckdb", cfg.Database)
	assert.Equal(t, "visualizacoes", cfg.OutputDir)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.True(t, cfg.Run.FailOnError)
	assert.Equal(t, 1000, cfg.Sampling.Size)
	assert.Zero(t, cfg.Sampling.Seed)
	assert.Equal(t, "native", cfg.Snapshot.Engine)
	assert.Equal(t, 500*time.Millisecond, cfg.Snapshot.Settle())
	assert.Equal(t, figure.Style{Width: 1200, Height: 600, Theme: "white"}, cfg.Style.Figure())
	assert.Equal(t, 8787, cfg.Serve.Port)
	assert.Equal(t, "duckdb", cfg.Store.Type)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	assert.Equal(t, cfg, Default())
}

// TestLoadConfig_File verifies nested keys from a config file.
func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `database: /data/olist_dw.duckdb
output_dir: charts
run:
  fail_on_error: false
sampling:
  size: 250
  seed: 42
snapshot:
  engine: chromium
  settle_ms: 0
style:
  width: 800
  height: 400
store:
  params:
    settings:
      threads: "2"
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, "/data/olist_dw.duckdb", cfg.Database)
	assert.Equal(t, "charts", cfg.OutputDir)
	assert.False(t, cfg.Run.FailOnError)
	assert.Equal(t, 250, cfg.Sampling.Size)
	assert.Equal(t, uint64(42), cfg.Sampling.Seed)
	assert.Equal(t, "chromium", cfg.Snapshot.Engine)
	assert.Zero(t, cfg.Snapshot.Settle())
	assert.Equal(t, 800, cfg.Style.Width)
	assert.Equal(t, "white", cfg.Style.Theme, "unset keys keep their defaults")
	assert.Equal(t, map[string]any{"threads": "2"}, cfg.Store.Params["settings"])

	ac := cfg.AdapterConfig("/data/olist_dw.duckdb")
	assert.True(t, ac.ReadOnly)
	assert.Equal(t, "duckdb", ac.Type)
}

// TestLoadConfig_FindsFileUpward verifies the config file is found in a
// parent of the working directory.
func TestLoadConfig_FindsFileUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "leapcharts.yml"), []byte("output_dir: up\n"), 0600))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0750))
	t.Chdir(sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "up", cfg.OutputDir)
	assert.Equal(t, "leapcharts.yml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output_dir: from_file\n")
	t.Setenv("LEAPCHARTS_OUTPUT_DIR", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "output directory")
	require.NoError(t, flags.Set("output-dir", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.OutputDir, "flag value should override config file and env var")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output_dir: from_file\nsampling:\n  seed: 1\n")
	t.Setenv("LEAPCHARTS_OUTPUT_DIR", "from_env")
	t.Setenv("LEAPCHARTS_SAMPLING__SEED", "99")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.OutputDir, "env var should override config file")
	assert.Equal(t, uint64(99), cfg.Sampling.Seed, "double underscore selects a nested key")
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output_dir: from_file\n")
	t.Setenv("LEAPCHARTS_OUTPUT_DIR", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "output directory")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.OutputDir, "env var should be used when flag is not set")
}

// TestLoadConfig_MappedFlags verifies flags whose key differs from their name.
func TestLoadConfig_MappedFlags(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("snapshot", "", "snapshot engine")
	flags.Uint64("seed", 0, "sampling seed")
	flags.Int("port", 0, "port")
	require.NoError(t, flags.Set("snapshot", "chromium"))
	require.NoError(t, flags.Set("seed", "7"))
	require.NoError(t, flags.Set("port", "9000"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "chromium", cfg.Snapshot.Engine)
	assert.Equal(t, uint64(7), cfg.Sampling.Seed)
	assert.Equal(t, 9000, cfg.Serve.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "snapshot:\n  engine: webkit\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webkit")
	assert.Nil(t, GetCurrentConfig())
}

// TestLoadConfig_ExpandsEnvVars verifies ${VAR} expansion in paths.
func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	ResetConfig()
	t.Setenv("OLIST_HOME", "/srv/olist")
	cfgPath := writeConfig(t, "database: ${OLIST_HOME}/olist_dw.duckdb\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/olist/olist_dw.duckdb", cfg.Database)
}

// TestConfig_Validate tests the Config.Validate method.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty database", mutate: func(c *Config) { c.Database = "" }, errSubstr: "database is required"},
		{name: "empty output dir", mutate: func(c *Config) { c.OutputDir = "" }, errSubstr: "output_dir is required"},
		{name: "unknown format", mutate: func(c *Config) { c.OutputFormat = "xml" }, errSubstr: "unknown format"},
		{name: "unknown engine", mutate: func(c *Config) { c.Snapshot.Engine = "webkit" }, errSubstr: "unknown snapshot engine"},
		{name: "negative settle", mutate: func(c *Config) { c.Snapshot.SettleMS = -1 }, errSubstr: "settle_ms"},
		{name: "zero width", mutate: func(c *Config) { c.Style.Width = 0 }, errSubstr: "style size"},
		{name: "negative height", mutate: func(c *Config) { c.Style.Height = -5 }, errSubstr: "style size"},
		{name: "zero sample", mutate: func(c *Config) { c.Sampling.Size = 0 }, errSubstr: "sampling.size"},
		{name: "port out of range", mutate: func(c *Config) { c.Serve.Port = 70000 }, errSubstr: "serve.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateStore(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ValidateStore())

	cfg.Store.Type = "mysql"
	err := cfg.ValidateStore()
	require.Error(t, err)
	assert.Equal(t, core.KindEnvironment, core.KindOf(err))
	assert.Contains(t, err.Error(), "duckdb", "error should list available adapters")
}

// TestExpandEnvVars tests the expandEnvVars function.
func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}
