// Package analysis runs metrics over parsed source files: it discovers and
// parses files in parallel, measures methods, aggregates the results and
// assesses them against thresholds.
package analysis

import (
	"iter"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// Analyzer pairs a metric with the aggregation that folds its per-method
// results.
type Analyzer struct {
	Metric      metrics.Metric
	Aggregation metrics.Aggregation
}

// NewAnalyzer creates an analyzer. A nil aggregation collects results.
func NewAnalyzer(metric metrics.Metric, aggregation metrics.Aggregation) Analyzer {
	if aggregation == nil {
		aggregation = metrics.Collect
	}

	return Analyzer{Metric: metric, Aggregation: aggregation}
}

// FromMetrics builds a collecting analyzer over the named compound of ms.
func FromMetrics(ms ...metrics.Metric) Analyzer {
	return NewAnalyzer(metrics.NameMetrics(ms...), metrics.Collect)
}

// Analyze measures every method and folds the results. Methods are measured
// lazily as the aggregation consumes them; the first measuring error stops
// the fold and is returned.
func (a Analyzer) Analyze(methods iter.Seq[*syntax.Node]) (metrics.Result, error) {
	aggregation := a.Aggregation
	if aggregation == nil {
		aggregation = metrics.Collect
	}

	var measureErr error

	results := func(yield func(metrics.Result) bool) {
		for method := range methods {
			value, err := a.Metric.Measure(method)
			if err != nil {
				measureErr = err

				return
			}

			if !yield(value) {
				return
			}
		}
	}

	result, err := aggregation(results)
	if measureErr != nil {
		return nil, measureErr
	}

	if err != nil {
		return nil, err
	}

	return result, nil
}

// Rows measures every method with the named compound of ms, prefixed by
// the identifying fields file, line, name and qualname.
func Rows(methods iter.Seq[*syntax.Node], ms ...metrics.Metric) ([]*metrics.Named, error) {
	compound := metrics.NameMetrics(append(identity(), ms...)...)

	var rows []*metrics.Named

	for method := range methods {
		value, err := compound.Measure(method)
		if err != nil {
			return nil, err
		}

		named, ok := value.(*metrics.Named)
		if !ok {
			continue
		}

		rows = append(rows, named)
	}

	return rows, nil
}

// IdentityFields lists the identifying columns Rows adds before the metrics.
func IdentityFields() []string {
	return metrics.Names(identity())
}

func identity() []metrics.Metric {
	return []metrics.Metric{metrics.MethodFile, metrics.MethodLine, metrics.MethodName, metrics.MethodQualname}
}
