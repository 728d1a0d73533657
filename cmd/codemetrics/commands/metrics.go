package commands

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

func newMetricsCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the available metrics and their default thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Name", "Type", "Threshold", "Description"})

			for _, info := range metrics.Catalogue() {
				threshold := "-"
				if info.Threshold > 0 {
					threshold = strconv.Itoa(info.Threshold)
				}

				tbl.AppendRow(table.Row{info.Name, info.Type, threshold, info.Description})
			}

			tbl.Render()

			return nil
		},
	}
}
