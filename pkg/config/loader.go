package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".codemetrics"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for codemetrics settings.
const envPrefix = "CODEMETRICS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Workers:       DefaultWorkers,
			IncludeVendor: DefaultIncludeVendor,
			SettingsFile:  DefaultSettingsFile,
		},
		Output:  OutputConfig{Format: DefaultFormat, NoColor: DefaultNoColor},
		Cache:   CacheConfig{Enabled: DefaultCacheEnabled, MaxSize: DefaultCacheMaxSize},
		Logging: LoggingConfig{Level: DefaultLogLevel, JSON: DefaultLogJSON},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("analysis.workers", DefaultWorkers)
	viperCfg.SetDefault("analysis.exclude", []string{})
	viperCfg.SetDefault("analysis.metrics", []string{})
	viperCfg.SetDefault("analysis.include_vendor", DefaultIncludeVendor)
	viperCfg.SetDefault("analysis.settings_file", DefaultSettingsFile)

	viperCfg.SetDefault("output.format", DefaultFormat)
	viperCfg.SetDefault("output.no_color", DefaultNoColor)

	viperCfg.SetDefault("cache.enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("cache.directory", "")
	viperCfg.SetDefault("cache.max_size", DefaultCacheMaxSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.prometheus_addr", "")
}
