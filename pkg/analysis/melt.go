package analysis

import (
	"iter"
	"slices"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

// Row is one (node, metric) pair of a melted result set. ID holds the
// identifying fields of the node, every field that is not a melted metric.
type Row struct {
	ID     *metrics.Named
	Metric string
	Value  metrics.Result
}

// Melt unpivots named results into long form: one row per metric in
// metricNames per result, in metricNames order. Metrics a result lacks are
// skipped. Identifying fields are copied onto each row unchanged.
func Melt(results iter.Seq[*metrics.Named], metricNames []string) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for result := range results {
			id := metrics.NewNamed()

			for key, value := range result.Pairs() {
				if !slices.Contains(metricNames, key) {
					id.Set(key, value)
				}
			}

			for _, name := range metricNames {
				value, ok := result.Get(name)
				if !ok {
					continue
				}

				if !yield(Row{ID: id.Clone(), Metric: name, Value: value}) {
					return
				}
			}
		}
	}
}
