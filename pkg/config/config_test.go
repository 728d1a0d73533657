package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".codemetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultWorkers, cfg.Analysis.Workers)
	assert.Equal(t, config.DefaultSettingsFile, cfg.Analysis.SettingsFile)
	assert.Empty(t, cfg.Analysis.Exclude)
	assert.Equal(t, config.FormatTable, cfg.Output.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.Empty(t, cfg.Cache.Directory)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)

	size, err := cfg.Cache.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(64_000_000), size)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
analysis:
  workers: 3
  exclude: ["build/*", "test_*.py"]
  metrics: [method_length, method_cognitive_complexity]
output:
  format: csv
  no_color: true
cache:
  directory: /tmp/codemetrics
  max_size: 1MiB
logging:
  level: debug
  json: true
telemetry:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, []string{"build/*", "test_*.py"}, cfg.Analysis.Exclude)
	assert.Equal(t, []string{"method_length", "method_cognitive_complexity"}, cfg.Analysis.Metrics)
	assert.Equal(t, config.FormatCSV, cfg.Output.Format)
	assert.True(t, cfg.Output.NoColor)
	assert.Equal(t, "/tmp/codemetrics", cfg.Cache.Directory)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)

	size, err := cfg.Cache.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), size)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("CODEMETRICS_OUTPUT_FORMAT", "json")
	t.Setenv("CODEMETRICS_ANALYSIS_WORKERS", "7")

	cfg, err := config.LoadConfig(writeConfig(t, "output:\n  format: csv\n"))
	require.NoError(t, err)

	assert.Equal(t, config.FormatJSON, cfg.Output.Format)
	assert.Equal(t, 7, cfg.Analysis.Workers)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want error
	}{
		{"negative workers", "analysis:\n  workers: -1\n", config.ErrInvalidWorkers},
		{"unknown format", "output:\n  format: html\n", config.ErrInvalidFormat},
		{"bad cache size", "cache:\n  max_size: lots\n", config.ErrInvalidCacheSize},
		{"bad log level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"unknown metric", "analysis:\n  metrics: [method_size]\n", metrics.ErrUnknownMetric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.body))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Contains(t, config.Formats(), cfg.Output.Format)
}
