package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
)

const defaultAggregation = "average"

func newAggregateCommand(state *app) *cobra.Command {
	var (
		metricNames []string
		aggregation string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "aggregate PATH",
		Short: "Fold the metrics of every method into one value each",
		Long: `Aggregate measures every method of the Python files under PATH and folds
each metric with the chosen aggregation: total, average or peak.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen, err := state.chooseMetrics(metricNames)
			if err != nil {
				return usageError(err)
			}

			fold, err := metrics.AggregationByName(aggregation)
			if err != nil {
				return usageError(err)
			}

			files, err := state.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			result, err := analysis.NewAnalyzer(metrics.NameMetrics(chosen...), fold).Analyze(analysis.Methods(files))
			if err != nil {
				return err
			}

			return report.WriteAggregate(cmd.OutOrStdout(), state.format(output), aggregation, result)
		},
	}

	cmd.Flags().StringSliceVarP(&metricNames, "metric", "m", nil, "metrics to compute (default: all four)")
	cmd.Flags().StringVarP(&aggregation, "aggregation", "a", defaultAggregation, "aggregation: total, average or peak")
	cmd.Flags().StringVarP(&output, "output", "o", "", outputFlagUsage)

	return cmd
}
