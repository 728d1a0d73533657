// Package commands implements the codemetrics command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/cache"
	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/observability"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax/python"
	"github.com/Sumatoshi-tech/codemetrics/pkg/version"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool

	stderr    io.Writer
	cfg       *config.Config
	providers observability.Providers
	analysis  *observability.AnalysisMetrics
	logger    *slog.Logger
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	state := &app{stderr: stderr}

	root := newRootCommand(state)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	state.close(ctx)

	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || !exitErr.Silent {
			fmt.Fprintln(stderr, describe(err))
		}
	}

	return ExitCode(err)
}

func newRootCommand(state *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codemetrics",
		Short: "Code quality metrics for Python methods",
		Long: `codemetrics measures Python methods: length, cyclomatic complexity,
cognitive complexity and working memory.

Commands:
  analyze    One row of metrics per method
  aggregate  Total, average or peak of each metric
  assess     Report methods exceeding their thresholds
  tree       Dump the syntax tree of a file
  metrics    List the available metrics
  mcp        Start the Model Context Protocol server
  lsp        Start the language server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&state.configPath, "config", "", "config file (default: .codemetrics.yaml in . or $HOME)")
	flags.BoolVarP(&state.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&state.quiet, "quiet", "q", false, "suppress log output")
	flags.BoolVar(&state.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newAnalyzeCommand(state),
		newAggregateCommand(state),
		newAssessCommand(state),
		newTreeCommand(state),
		newMetricsCommand(state),
		newMCPCommand(state),
		newLSPCommand(state),
		newVersionCommand(),
	)

	return rootCmd
}

// init loads configuration and starts observability for cmd.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return usageError(err)
	}

	a.cfg = cfg

	if a.noColor || cfg.Output.NoColor {
		report.SetColor(false)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = modeOf(cmd)
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.Prometheus = cfg.Telemetry.PrometheusAddr != "" && obsCfg.Mode != observability.ModeCLI
	obsCfg.LogJSON = cfg.Logging.JSON || obsCfg.Mode != observability.ModeCLI
	obsCfg.LogWriter = a.stderr
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)

	switch {
	case a.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case a.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	a.providers = providers
	a.logger = providers.Logger

	analysisMetrics, err := observability.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init analysis metrics: %w", err)
	}

	a.analysis = analysisMetrics

	return nil
}

func (a *app) close(ctx context.Context) {
	if a.providers.Shutdown == nil {
		return
	}

	err := a.providers.Shutdown(ctx)
	if err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}
}

func modeOf(cmd *cobra.Command) observability.AppMode {
	switch cmd.Name() {
	case "mcp":
		return observability.ModeMCP
	case "lsp":
		return observability.ModeLSP
	default:
		return observability.ModeCLI
	}
}

// treeCache builds the parse cache described by the configuration, or nil
// when caching is off.
func (a *app) treeCache() (*cache.Tiered, error) {
	if !a.cfg.Cache.Enabled {
		return nil, nil //nolint:nilnil // nil disables caching.
	}

	size, err := a.cfg.Cache.MaxSizeBytes()
	if err != nil {
		return nil, err
	}

	var disk *cache.Disk

	if a.cfg.Cache.Directory != "" {
		disk, err = cache.NewDisk(a.cfg.Cache.Directory)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
	}

	return cache.NewTiered(size, disk), nil
}

// runner builds the file runner for the configuration.
func (a *app) runner() (*analysis.Runner, error) {
	trees, err := a.treeCache()
	if err != nil {
		return nil, err
	}

	opts := analysis.Options{
		DiscoverOptions: analysis.DiscoverOptions{
			Exclude:       a.cfg.Analysis.Exclude,
			IncludeVendor: a.cfg.Analysis.IncludeVendor,
		},
		Workers: a.cfg.Analysis.Workers,
		Metrics: a.analysis,
		Logger:  a.logger,
	}

	if trees != nil {
		opts.Cache = trees
	}

	return analysis.NewRunner(python.NewParser(), opts), nil
}

// load discovers and parses every Python file under path.
func (a *app) load(ctx context.Context, path string) ([]analysis.File, error) {
	runner, err := a.runner()
	if err != nil {
		return nil, err
	}

	files, summary, err := runner.Run(ctx, path)
	if err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "files parsed",
		"path", path, "files", summary.Files, "methods", summary.Methods,
		"cache_hits", summary.CacheHits, "duration", summary.Duration)

	return files, nil
}

// chooseMetrics resolves --metric values, falling back to the configured
// metrics and then to the four standard ones.
func (a *app) chooseMetrics(names []string) ([]metrics.Metric, error) {
	if len(names) == 0 {
		names = a.cfg.Analysis.Metrics
	}

	if len(names) == 0 {
		return metrics.Standard(), nil
	}

	return metrics.LookupAll(names)
}

// format returns the flag value or the configured output format.
func (a *app) format(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return a.cfg.Output.Format
}

// workDir is the directory reported paths are made relative to.
func workDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	return filepath.Clean(dir)
}
