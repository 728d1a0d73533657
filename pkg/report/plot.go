package report

import (
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

const (
	topMethodsLimit   = 20
	xAxisRotate       = 45
	chartWidth        = "100%"
	chartHeight       = "500px"
	scatterSymbolSize = 12
	pageTitle         = "codemetrics"
)

func writeRowsPlot(w io.Writer, rows []*metrics.Named, metricNames []string) error {
	page := components.NewPage()
	page.PageTitle = pageTitle

	page.AddCharts(topMethodsBar(rows, metricNames))

	cyclomatic := metrics.MethodCyclomaticComplexity.Name()
	cognitive := metrics.MethodCognitiveComplexity.Name()

	if slices.Contains(metricNames, cyclomatic) && slices.Contains(metricNames, cognitive) {
		page.AddCharts(complexityScatter(rows, cyclomatic, cognitive))
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

func topMethodsBar(rows []*metrics.Named, metricNames []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Top Methods", Subtitle: "Ranked by the first metric"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "8%"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"}}),
		charts.WithGridOpts(opts.Grid{Bottom: "25%", ContainLabel: opts.Bool(true)}),
	)

	top := rows[:min(len(rows), topMethodsLimit)]

	labels := make([]string, len(top))
	for idx, row := range top {
		labels[idx] = cell(row, qualnameKey)
	}

	bar.SetXAxis(labels)

	for _, name := range metricNames {
		data := make([]opts.BarData, len(top))

		for idx, row := range top {
			value, _ := row.Get(name)
			number, _ := metrics.Float(value)
			data[idx] = opts.BarData{Value: number}
		}

		bar.AddSeries(metrics.ShortName(name), data)
	}

	return bar
}

func complexityScatter(rows []*metrics.Named, cyclomatic, cognitive string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Cyclomatic vs Cognitive Complexity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Cyclomatic", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cognitive", Type: "value"}),
	)

	data := make([]opts.ScatterData, 0, len(rows))

	for _, row := range rows {
		x, xOK := row.Get(cyclomatic)
		y, yOK := row.Get(cognitive)

		if !xOK || !yOK {
			continue
		}

		xValue, _ := metrics.Float(x)
		yValue, _ := metrics.Float(y)

		data = append(data, opts.ScatterData{
			Name:       cell(row, qualnameKey),
			Value:      []any{xValue, yValue},
			SymbolSize: scatterSymbolSize,
		})
	}

	scatter.AddSeries("Methods", data)

	return scatter
}

func writeAggregatePlot(w io.Writer, aggregation string, result metrics.Result) error {
	names, values := entries(result)

	data := make([]opts.BarData, len(values))
	for idx, value := range values {
		number, _ := metrics.Float(value)
		data[idx] = opts.BarData{Value: number}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: titleCase(aggregation) + " per metric"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(shortNames(names))
	bar.AddSeries(aggregation, data)

	page := components.NewPage()
	page.PageTitle = pageTitle
	page.AddCharts(bar)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}
