// Package metrics computes code-quality metrics over syntax trees and
// provides the result algebra and aggregations used to combine them.
package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// Metric measures a node.
type Metric interface {
	// Name identifies the metric, e.g. "method_length".
	Name() string
	// Measure returns the metric value for node.
	Measure(node *syntax.Node) (Result, error)
}

// MetricFunc is a named measuring function.
type MetricFunc struct {
	name    string
	measure func(*syntax.Node) (Result, error)
}

// New creates a Metric from a function.
func New(name string, measure func(*syntax.Node) (Result, error)) MetricFunc {
	return MetricFunc{name: name, measure: measure}
}

// Name implements Metric.
func (m MetricFunc) Name() string { return m.name }

// Measure implements Metric.
func (m MetricFunc) Measure(node *syntax.Node) (Result, error) { return m.measure(node) }

func methodCount(name string, count func(*syntax.Node) (int, error)) MetricFunc {
	return New(name, func(node *syntax.Node) (Result, error) {
		value, err := count(node)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		return Number(value), nil
	})
}

func methodText(name string, describe func(*syntax.Node) string) MetricFunc {
	return New(name, func(node *syntax.Node) (Result, error) {
		if err := checkMethod(node); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		return Text(describe(node)), nil
	})
}

// Method metrics.
//
//nolint:gochecknoglobals // Stateless metric values.
var (
	MethodLength               = methodCount("method_length", Length)
	MethodCyclomaticComplexity = methodCount("method_cyclomatic_complexity", CyclomaticComplexity)
	MethodCognitiveComplexity  = methodCount("method_cognitive_complexity", CognitiveComplexity)
	MethodWorkingMemory        = methodCount("method_working_memory", WorkingMemory)

	MethodName     = methodText("method_name", func(node *syntax.Node) string { return node.Name })
	MethodQualname = methodText("method_qualname", Qualname)
	MethodFile     = methodText("method_file", func(node *syntax.Node) string {
		if module := node.Module(); module != nil {
			return module.Path
		}

		return ""
	})
	MethodLine = New("method_line", func(node *syntax.Node) (Result, error) {
		if err := checkMethod(node); err != nil {
			return nil, fmt.Errorf("method_line: %w", err)
		}

		return Number(node.Line), nil
	})

	// NodeTypeName reports the kind of any node.
	NodeTypeName = New("node_type_name", func(node *syntax.Node) (Result, error) {
		return Text(node.Kind.String()), nil
	})
)

// Standard returns the four complexity metrics in their default order.
func Standard() []Metric {
	return []Metric{MethodLength, MethodCyclomaticComplexity, MethodCognitiveComplexity, MethodWorkingMemory}
}

// All returns every registered metric.
func All() []Metric {
	return append(Standard(), MethodName, MethodQualname, MethodFile, MethodLine, NodeTypeName)
}

// Names returns the names of the given metrics.
func Names(ms []Metric) []string {
	names := make([]string, len(ms))
	for idx, metric := range ms {
		names[idx] = metric.Name()
	}

	return names
}

// Lookup finds a registered metric by name. The "method_" prefix may be
// omitted, so "length" and "method_length" resolve alike.
func Lookup(name string) (Metric, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")

	idx := slices.IndexFunc(All(), func(metric Metric) bool {
		return metric.Name() == normalized || metric.Name() == "method_"+normalized
	})
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}

	return All()[idx], nil
}

// LookupAll resolves several names, keeping their order.
func LookupAll(names []string) ([]Metric, error) {
	resolved := make([]Metric, 0, len(names))

	for _, name := range names {
		metric, err := Lookup(name)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, metric)
	}

	return resolved, nil
}

// ShortName strips the "method_" prefix from a metric name.
func ShortName(name string) string {
	return strings.TrimPrefix(name, "method_")
}

// Compounder joins several metrics into one compound metric.
type Compounder func(ms ...Metric) Metric

var (
	_ Compounder = TupleMetrics
	_ Compounder = NameMetrics
)

// TupleMetrics measures every metric and returns the values as a Tuple in
// the order given.
func TupleMetrics(ms ...Metric) Metric {
	return New(compoundName(ms), func(node *syntax.Node) (Result, error) {
		out := make(Tuple, 0, len(ms))

		for _, metric := range ms {
			value, err := metric.Measure(node)
			if err != nil {
				return nil, err
			}

			out = append(out, value)
		}

		return out, nil
	})
}

// NameMetrics measures every metric and returns a Named result keyed by
// metric name. A repeated name keeps its first position and the last value.
func NameMetrics(ms ...Metric) Metric {
	return New(compoundName(ms), func(node *syntax.Node) (Result, error) {
		out := NewNamed()

		for _, metric := range ms {
			value, err := metric.Measure(node)
			if err != nil {
				return nil, err
			}

			out.Set(metric.Name(), value)
		}

		return out, nil
	})
}

func compoundName(ms []Metric) string {
	return strings.Join(Names(ms), ",")
}
