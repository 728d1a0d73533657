package commands

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/cache"
	"github.com/Sumatoshi-tech/codemetrics/pkg/lsp"
	"github.com/Sumatoshi-tech/codemetrics/pkg/mcp"
	"github.com/Sumatoshi-tech/codemetrics/pkg/observability"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax/python"
)

func newMCPCommand(state *app) *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes codemetrics as tools that AI agents can discover and
invoke:
  - codemetrics_analyze: per-method metrics or their aggregate
  - codemetrics_assess: methods exceeding their thresholds
  - syntax_parse: the syntax tree of Python source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			red, stop, err := state.startServing()
			if err != nil {
				return err
			}
			defer stop()

			runner, err := state.runner()
			if err != nil {
				return err
			}

			thresholds, err := state.serverThresholds(cmd, settingsFile)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:     state.logger,
				Metrics:    red,
				Tracer:     state.providers.Tracer,
				Runner:     runner,
				Thresholds: thresholds,
				WorkDir:    workDir(),
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&settingsFile, "settings-file", "", "settings file holding thresholds (default from config: pyproject.toml)")

	return cmd
}

func newLSPCommand(state *app) *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server on stdio",
		Long: `Start a Language Server Protocol server on stdio. Open Python documents get
a diagnostic for every metric above its threshold, and hovering a method
shows its metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			red, stop, err := state.startServing()
			if err != nil {
				return err
			}
			defer stop()

			thresholds, err := state.serverThresholds(cmd, settingsFile)
			if err != nil {
				return err
			}

			size, err := state.cfg.Cache.MaxSizeBytes()
			if err != nil {
				return usageError(err)
			}

			analyzer := lsp.NewAnalyzer(python.NewParser(), cache.NewMemory(size), thresholds, workDir())

			return lsp.NewServer(analyzer, state.logger, red).Run()
		},
	}

	cmd.Flags().StringVar(&settingsFile, "settings-file", "", "settings file holding thresholds (default from config: pyproject.toml)")

	return cmd
}

// startServing creates the RED instruments of a long-running server and
// starts the Prometheus endpoint when one is configured. stop closes the
// endpoint.
func (a *app) startServing() (*observability.REDMetrics, func(), error) {
	red, err := observability.NewREDMetrics(a.providers.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("init server metrics: %w", err)
	}

	addr := a.cfg.Telemetry.PrometheusAddr
	if addr == "" || a.providers.MetricsHandler == nil {
		return red, func() {}, nil
	}

	metricsServer := observability.MetricsServer(addr, a.providers, red)

	go func() {
		serveErr := metricsServer.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "addr", addr, "error", serveErr)
		}
	}()

	a.logger.Info("serving metrics", "addr", addr)

	stop := func() {
		err := metricsServer.Close()
		if err != nil {
			a.logger.Warn("metrics server close failed", "error", err)
		}
	}

	return red, stop, nil
}

// serverThresholds loads the thresholds a server assesses with.
func (a *app) serverThresholds(cmd *cobra.Command, settingsFile string) (map[string]int, error) {
	if settingsFile == "" {
		settingsFile = a.cfg.Analysis.SettingsFile
	}

	loaded, err := a.readSettings(cmd.ErrOrStderr(), settingsFile)
	if err != nil {
		return nil, err
	}

	return loaded.Thresholds.Map(), nil
}
