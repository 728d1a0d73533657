// Package config loads codemetrics runtime configuration from a YAML file,
// CODEMETRICS_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

// Config holds all codemetrics configuration.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Output    OutputConfig    `mapstructure:"output"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AnalysisConfig controls file discovery and parsing.
type AnalysisConfig struct {
	Exclude       []string `mapstructure:"exclude"`
	Metrics       []string `mapstructure:"metrics"`
	SettingsFile  string   `mapstructure:"settings_file"`
	Workers       int      `mapstructure:"workers"`
	IncludeVendor bool     `mapstructure:"include_vendor"`
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// CacheConfig controls the parse cache.
type CacheConfig struct {
	// Directory enables the on-disk tier when non-empty.
	Directory string `mapstructure:"directory"`
	// MaxSize is the in-memory budget, e.g. "64MB".
	MaxSize string `mapstructure:"max_size"`
	Enabled bool   `mapstructure:"enabled"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
}

// Sentinel validation errors.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("analysis.workers must be non-negative")
	// ErrInvalidFormat indicates an unsupported output format.
	ErrInvalidFormat = errors.New("output.format is not supported")
	// ErrInvalidCacheSize indicates cache.max_size is not a byte size.
	ErrInvalidCacheSize = errors.New("cache.max_size must be a byte size such as 64MB")
	// ErrInvalidLogLevel indicates an unknown logging.level.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Analysis.Workers)
	}

	if len(c.Analysis.Metrics) > 0 {
		_, err := metrics.LookupAll(c.Analysis.Metrics)
		if err != nil {
			return fmt.Errorf("analysis.metrics: %w", err)
		}
	}

	if !slices.Contains(Formats(), c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	_, err := c.Cache.MaxSizeBytes()
	if err != nil {
		return err
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}

// MaxSizeBytes parses MaxSize.
func (c CacheConfig) MaxSizeBytes() (int64, error) {
	size, err := humanize.ParseBytes(c.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCacheSize, c.MaxSize)
	}

	return int64(size), nil //nolint:gosec // byte sizes from config stay far below MaxInt64.
}
