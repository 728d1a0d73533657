package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	return tbl
}

func rightAligned(from, count int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, count)
	for idx := range count {
		configs = append(configs, table.ColumnConfig{
			Number:      from + idx,
			Align:       text.AlignRight,
			AlignFooter: text.AlignRight,
		})
	}

	return configs
}

func writeRowsTable(w io.Writer, rows []*metrics.Named, metricNames []string) error {
	tbl := newTable(w)

	header := table.Row{"Method"}
	for _, name := range shortNames(metricNames) {
		header = append(header, name)
	}

	tbl.AppendHeader(header)

	for _, row := range rows {
		line := table.Row{cell(row, qualnameKey)}
		for _, name := range metricNames {
			line = append(line, cell(row, name))
		}

		tbl.AppendRow(line)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%s methods", humanize.Comma(int64(len(rows))))})
	tbl.SetColumnConfigs(rightAligned(2, len(metricNames)))
	tbl.Render()

	return nil
}

func writeAggregateTable(w io.Writer, aggregation string, result metrics.Result) error {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Metric", titleCase(aggregation) + " Value"})

	names, values := entries(result)
	for idx, name := range names {
		tbl.AppendRow(table.Row{name, values[idx].String()})
	}

	tbl.SetColumnConfigs(rightAligned(2, 1))
	tbl.Render()

	return nil
}

func titleCase(word string) string {
	if word == "" {
		return word
	}

	return strings.ToUpper(word[:1]) + word[1:]
}
