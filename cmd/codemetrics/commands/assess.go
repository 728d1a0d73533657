package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
	"github.com/Sumatoshi-tech/codemetrics/pkg/settings"
)

func newAssessCommand(state *app) *cobra.Command {
	var (
		metricNames  []string
		settingsFile string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "assess PATH",
		Short: "Report methods whose metrics exceed their thresholds",
		Long: `Assess measures every method of the Python files under PATH and prints a
diagnostic for each metric above its threshold. Thresholds are read from the
[tool.sourcery-analytics.thresholds] table of the settings file.

Exit codes: 0 when every method is within its thresholds, 1 when any breach
was found, 2 when the settings file cannot be parsed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen, err := state.chooseMetrics(metricNames)
			if err != nil {
				return usageError(err)
			}

			if settingsFile == "" {
				settingsFile = state.cfg.Analysis.SettingsFile
			}

			loaded, err := state.readSettings(cmd.ErrOrStderr(), settingsFile)
			if err != nil {
				return err
			}

			files, err := state.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows, err := analysis.Rows(analysis.Methods(files), chosen...)
			if err != nil {
				return err
			}

			breaches := analysis.Breaches(rows, metrics.Names(chosen), loaded.Thresholds.Map(), workDir())

			for _, breach := range breaches {
				state.analysis.RecordBreach(cmd.Context(), breach.Metric)
			}

			err = report.WriteBreaches(cmd.OutOrStdout(), state.format(output), breaches)
			if err != nil {
				return err
			}

			if len(breaches) > 0 {
				return &ExitError{Err: fmt.Errorf("%w: %d", ErrBreaches, len(breaches)), Code: ExitFailure, Silent: true}
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&metricNames, "metric", "m", nil, "metrics to assess (default: all four)")
	cmd.Flags().StringVar(&settingsFile, "settings-file", "", "settings file holding thresholds (default from config: pyproject.toml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", outputFlagUsage)

	return cmd
}

// readSettings loads thresholds from path. A missing file warns and uses
// the defaults; an unparsable one is a configuration error.
func (a *app) readSettings(stderr io.Writer, path string) (settings.Settings, error) {
	loaded, err := settings.Load(path)

	switch {
	case err == nil:
		return loaded, nil
	case errors.Is(err, settings.ErrNotFound):
		fmt.Fprintf(stderr, "%s could not find settings file %s, using defaults.\n", color.YellowString("Warning:"), path)

		return settings.Default(), nil
	default:
		a.logger.Debug("settings rejected", "path", path, "error", err)
		fmt.Fprintf(stderr, "%s unable to parse settings file %s.\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), path)

		return settings.Settings{}, &ExitError{Err: err, Code: ExitConfigError, Silent: true}
	}
}
