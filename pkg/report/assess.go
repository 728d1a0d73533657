package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
)

// WriteBreaches renders threshold breaches. Table and plain output print
// one diagnostic line per breach followed by a summary.
func WriteBreaches(w io.Writer, format string, breaches []analysis.Breach) error {
	switch format {
	case config.FormatTable, config.FormatPlain, config.FormatPlot:
		return writeBreachLines(w, breaches)
	case config.FormatCSV:
		return writeBreachesCSV(w, breaches)
	case config.FormatJSON:
		return writeJSON(w, nonNil(breaches))
	case config.FormatYAML:
		return writeYAML(w, nonNil(breaches))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// SetColor forces colored output on or off.
func SetColor(enabled bool) {
	color.NoColor = !enabled //nolint:reassign // intentional override of library global
}

func writeBreachLines(w io.Writer, breaches []analysis.Breach) error {
	for _, breach := range breaches {
		_, err := levelColor(breach.Level).Fprintln(w, breach.String())
		if err != nil {
			return fmt.Errorf("write breach: %w", err)
		}
	}

	var err error

	if len(breaches) > 0 {
		_, err = color.New(color.FgRed, color.Bold).Fprintf(w, "Found %d errors.\n", len(breaches))
	} else {
		_, err = color.New(color.FgGreen, color.Bold).Fprintln(w, "Assessment Complete")
		if err == nil {
			_, err = fmt.Fprintln(w, "No issues found.")
		}
	}

	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func levelColor(level metrics.RiskLevel) *color.Color {
	switch level {
	case metrics.RiskCritical, metrics.RiskHigh:
		return color.New(color.FgRed)
	case metrics.RiskMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

func writeBreachesCSV(w io.Writer, breaches []analysis.Breach) error {
	writer := csv.NewWriter(w)

	err := writer.Write([]string{"path", "line", "method", "metric", "value", "threshold", "level"})
	if err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, breach := range breaches {
		err = writer.Write([]string{
			breach.Path,
			strconv.Itoa(breach.Line),
			breach.Method,
			breach.Metric,
			metrics.Number(breach.Value).String(),
			strconv.Itoa(breach.Threshold),
			string(breach.Level),
		})
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

func nonNil(breaches []analysis.Breach) []analysis.Breach {
	if breaches == nil {
		return []analysis.Breach{}
	}

	return breaches
}
