// Package settings reads assessment thresholds from the
// [tool.sourcery-analytics] table of a pyproject.toml file.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

// DefaultFile is the settings file read when none is given.
const DefaultFile = "pyproject.toml"

const (
	toolTable    = "tool"
	sectionTable = "sourcery-analytics"
)

// Settings errors.
var (
	ErrNotFound         = errors.New("settings file not found")
	ErrInvalidSettings  = errors.New("unable to parse settings file")
	ErrUnknownSetting   = errors.New("unknown setting")
	ErrInvalidThreshold = errors.New("threshold must be a positive integer")
)

// Thresholds holds the per-metric assess limits.
type Thresholds struct {
	MethodLength               int `toml:"method_length"`
	MethodCyclomaticComplexity int `toml:"method_cyclomatic_complexity"`
	MethodCognitiveComplexity  int `toml:"method_cognitive_complexity"`
	MethodWorkingMemory        int `toml:"method_working_memory"`
}

// Settings is the codemetrics section of a settings file.
type Settings struct {
	Thresholds Thresholds `toml:"thresholds"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Thresholds: Thresholds{
			MethodLength:               metrics.DefaultLengthThreshold,
			MethodCyclomaticComplexity: metrics.DefaultCyclomaticThreshold,
			MethodCognitiveComplexity:  metrics.DefaultCognitiveThreshold,
			MethodWorkingMemory:        metrics.DefaultWorkingMemoryThreshold,
		},
	}
}

// Map returns the thresholds keyed by metric name.
func (t Thresholds) Map() map[string]int {
	return map[string]int{
		metrics.MethodLength.Name():               t.MethodLength,
		metrics.MethodCyclomaticComplexity.Name(): t.MethodCyclomaticComplexity,
		metrics.MethodCognitiveComplexity.Name():  t.MethodCognitiveComplexity,
		metrics.MethodWorkingMemory.Name():        t.MethodWorkingMemory,
	}
}

// Validate checks that every threshold is positive.
func (t Thresholds) Validate() error {
	for name, value := range t.Map() {
		if value <= 0 {
			return fmt.Errorf("%w: %s = %d", ErrInvalidThreshold, name, value)
		}
	}

	return nil
}

// Load reads settings from path. A missing file yields ErrNotFound; keys
// the file leaves out keep their defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	loaded, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}

	return loaded, nil
}

// Parse decodes the [tool.sourcery-analytics] table of a TOML document
// over the defaults. Unknown keys and tables are rejected.
func Parse(data []byte) (Settings, error) {
	var document map[string]any

	if err := toml.Unmarshal(data, &document); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	out := Default()

	tool, _ := document[toolTable].(map[string]any)

	section, ok := tool[sectionTable]
	if !ok {
		return out, nil
	}

	encoded, err := toml.Marshal(section)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	decoder := toml.NewDecoder(bytes.NewReader(encoded))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("%w: %s", ErrUnknownSetting, unknownKeys(strict))
		}

		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	if err := out.Thresholds.Validate(); err != nil {
		return Settings{}, err
	}

	return out, nil
}

func unknownKeys(strict *toml.StrictMissingError) string {
	keys := make([]string, 0, len(strict.Errors))

	for idx := range strict.Errors {
		keys = append(keys, strings.Join(strict.Errors[idx].Key(), "."))
	}

	return strings.Join(keys, ", ")
}
