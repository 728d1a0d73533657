// Package report renders analysis rows, aggregates and threshold breaches
// as tables, plain text, CSV, JSON, YAML or an HTML chart page.
package report

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

// ErrUnknownFormat reports an output format without a renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// qualnameKey is the row field naming each method.
//
//nolint:gochecknoglobals // Derived from a stateless metric value.
var qualnameKey = metrics.MethodQualname.Name()

// SortRows orders rows by the value of metricName, highest first. Rows
// with equal values keep their relative order.
func SortRows(rows []*metrics.Named, metricName string) {
	slices.SortStableFunc(rows, func(left, right *metrics.Named) int {
		leftValue, _ := left.Get(metricName)
		rightValue, _ := right.Get(metricName)

		switch {
		case leftValue == nil || rightValue == nil:
			return 0
		case rightValue.Less(leftValue):
			return -1
		case leftValue.Less(rightValue):
			return 1
		default:
			return 0
		}
	})
}

// WriteRows renders one line per method: its qualified name followed by
// the values of metricNames.
func WriteRows(w io.Writer, format string, rows []*metrics.Named, metricNames []string) error {
	switch format {
	case config.FormatTable:
		return writeRowsTable(w, rows, metricNames)
	case config.FormatPlain:
		return writeRowsPlain(w, rows, metricNames)
	case config.FormatCSV:
		return writeRowsCSV(w, rows, metricNames)
	case config.FormatJSON:
		return writeJSON(w, rows)
	case config.FormatYAML:
		return writeYAML(w, rows)
	case config.FormatPlot:
		return writeRowsPlot(w, rows, metricNames)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteAggregate renders the result of folding every method with the
// named aggregation.
func WriteAggregate(w io.Writer, format, aggregation string, result metrics.Result) error {
	switch format {
	case config.FormatTable:
		return writeAggregateTable(w, aggregation, result)
	case config.FormatPlain:
		_, err := fmt.Fprintln(w, result.String())

		return err
	case config.FormatCSV:
		return writeAggregateCSV(w, result)
	case config.FormatJSON:
		return writeJSON(w, result)
	case config.FormatYAML:
		return writeYAML(w, result)
	case config.FormatPlot:
		return writeAggregatePlot(w, aggregation, result)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// project keeps the qualified name and the chosen metrics of row.
func project(row *metrics.Named, metricNames []string) *metrics.Named {
	out := metrics.NewNamed()

	if qualname, ok := row.Get(qualnameKey); ok {
		out.Set(qualnameKey, qualname)
	}

	for _, name := range metricNames {
		value, ok := row.Get(name)
		if !ok {
			value = metrics.Missing{}
		}

		out.Set(name, value)
	}

	return out
}

// entries flattens a named aggregate into ordered pairs. Other shapes
// become a single unnamed entry.
func entries(result metrics.Result) ([]string, []metrics.Result) {
	named, ok := result.(*metrics.Named)
	if !ok {
		return []string{""}, []metrics.Result{result}
	}

	names := make([]string, 0, named.Len())
	values := make([]metrics.Result, 0, named.Len())

	for name, value := range named.Pairs() {
		names = append(names, name)
		values = append(values, value)
	}

	return names, values
}

func cell(row *metrics.Named, key string) string {
	value, ok := row.Get(key)
	if !ok {
		return metrics.Missing{}.String()
	}

	return value.String()
}

func shortNames(names []string) []string {
	out := make([]string, len(names))
	for idx, name := range names {
		out[idx] = metrics.ShortName(name)
	}

	return out
}
