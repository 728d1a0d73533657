package analysis

import (
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

// Breach is a method metric exceeding its threshold.
type Breach struct {
	Path      string            `json:"path"      yaml:"path"`
	Line      int               `json:"line"      yaml:"line"`
	Method    string            `json:"method"    yaml:"method"`
	Metric    string            `json:"metric"    yaml:"metric"`
	Value     float64           `json:"value"     yaml:"value"`
	Threshold int               `json:"threshold" yaml:"threshold"`
	Level     metrics.RiskLevel `json:"level"     yaml:"level"`
}

// String formats the breach as a compiler-style diagnostic.
func (b Breach) String() string {
	return fmt.Sprintf("%s:%d: error: %s", b.Path, b.Line, b.Message())
}

// Message describes the breach without its location.
func (b Breach) Message() string {
	return fmt.Sprintf("%s of %s is %s exceeding threshold of %d",
		b.Metric, b.Method, metrics.Number(b.Value), b.Threshold)
}

// Assess yields a Breach for every melted row whose numeric value is
// strictly greater than the threshold of its metric. Rows of metrics
// without a threshold, and non-numeric values, are ignored. Paths are made
// relative to workDir when they lie beneath it.
func Assess(rows iter.Seq[Row], thresholds map[string]int, workDir string) iter.Seq[Breach] {
	return func(yield func(Breach) bool) {
		for row := range rows {
			threshold, ok := thresholds[row.Metric]
			if !ok {
				continue
			}

			value, ok := metrics.Float(row.Value)
			if !ok || value <= float64(threshold) {
				continue
			}

			breach := Breach{
				Path:      RelativePath(textField(row.ID, metrics.MethodFile.Name()), workDir),
				Line:      intField(row.ID, metrics.MethodLine.Name()),
				Method:    textField(row.ID, metrics.MethodName.Name()),
				Metric:    metrics.ShortName(row.Metric),
				Value:     value,
				Threshold: threshold,
				Level:     metrics.Risk(value, threshold),
			}

			if !yield(breach) {
				return
			}
		}
	}
}

// Breaches melts rows over metricNames and collects every breach.
func Breaches(rows []*metrics.Named, metricNames []string, thresholds map[string]int, workDir string) []Breach {
	return slices.Collect(Assess(Melt(slices.Values(rows), metricNames), thresholds, workDir))
}

// RelativePath returns path relative to workDir, or path unchanged when it
// is not beneath workDir.
func RelativePath(path, workDir string) string {
	if path == "" || workDir == "" {
		return path
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return path
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}

	return rel
}

func textField(id *metrics.Named, key string) string {
	value, ok := id.Get(key)
	if !ok {
		return ""
	}

	return value.String()
}

func intField(id *metrics.Named, key string) int {
	value, ok := id.Get(key)
	if !ok {
		return 0
	}

	number, ok := metrics.Float(value)
	if !ok {
		return 0
	}

	return int(number)
}
