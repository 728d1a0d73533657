package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
)

// outputFlagUsage documents the --output flag.
//
//nolint:gochecknoglobals // Derived once from the format list.
var outputFlagUsage = fmt.Sprintf("output format %v (default from config)", config.Formats())

func newAnalyzeCommand(state *app) *cobra.Command {
	var (
		metricNames []string
		sortBy      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "analyze PATH",
		Short: "Show the metrics of every method",
		Long: `Analyze measures every method of the Python files under PATH and prints
one row per method, highest value of the sort metric first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen, err := state.chooseMetrics(metricNames)
			if err != nil {
				return usageError(err)
			}

			sortMetric, err := sortMetricOf(chosen, sortBy)
			if err != nil {
				return usageError(err)
			}

			files, err := state.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows, err := analysis.Rows(analysis.Methods(files), chosen...)
			if err != nil {
				return err
			}

			report.SortRows(rows, sortMetric)

			return report.WriteRows(cmd.OutOrStdout(), state.format(output), rows, metrics.Names(chosen))
		},
	}

	cmd.Flags().StringSliceVarP(&metricNames, "metric", "m", nil, "metrics to compute (default: all four)")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "metric to sort by, highest first (default: the first metric)")
	cmd.Flags().StringVarP(&output, "output", "o", "", outputFlagUsage)

	return cmd
}

// sortMetricOf resolves the sort flag, which must name one of the chosen
// metrics.
func sortMetricOf(chosen []metrics.Metric, sortBy string) (string, error) {
	if sortBy == "" {
		return chosen[0].Name(), nil
	}

	metric, err := metrics.Lookup(sortBy)
	if err != nil {
		return "", err
	}

	if !slices.Contains(metrics.Names(chosen), metric.Name()) {
		return "", fmt.Errorf("%w: %s", ErrSortNotSelected, sortBy)
	}

	return metric.Name(), nil
}
