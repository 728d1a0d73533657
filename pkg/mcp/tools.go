package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
	"github.com/Sumatoshi-tech/codemetrics/pkg/settings"
)

// Tool name constants.
const (
	ToolNameAnalyze = "codemetrics_analyze"
	ToolNameAssess  = "codemetrics_assess"
	ToolNameParse   = "syntax_parse"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// inlinePath names inline code without a path.
const inlinePath = "<inline>.py"

// Sentinel errors for tool input validation.
var (
	// ErrMissingSource indicates neither code nor path was given.
	ErrMissingSource = errors.New("either code or path is required")
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrSortNotSelected indicates a sort metric outside the selected metrics.
	ErrSortNotSelected = errors.New("sort metric must be one of the selected metrics")
)

// Input types (auto-generate JSON schemas via struct tags).

// AnalyzeInput is the input schema for the codemetrics_analyze tool.
type AnalyzeInput struct {
	Code        string   `json:"code,omitempty"        jsonschema:"Python source to analyze; takes precedence over path"`
	Path        string   `json:"path,omitempty"        jsonschema:"file or directory to analyze, or the file name of inline code"`
	Metrics     []string `json:"metrics,omitempty"     jsonschema:"metric names such as length or cognitive_complexity (default: all four)"`
	Aggregation string   `json:"aggregation,omitempty" jsonschema:"total, average or peak; omit for one row per method"`
	Sort        string   `json:"sort,omitempty"        jsonschema:"metric to order rows by, highest first"`
}

// AssessInput is the input schema for the codemetrics_assess tool.
type AssessInput struct {
	Code       string         `json:"code,omitempty"       jsonschema:"Python source to assess; takes precedence over path"`
	Path       string         `json:"path,omitempty"       jsonschema:"file or directory to assess, or the file name of inline code"`
	Metrics    []string       `json:"metrics,omitempty"    jsonschema:"metric names to assess (default: all four)"`
	Thresholds map[string]int `json:"thresholds,omitempty" jsonschema:"threshold overrides keyed by metric name"`
}

// ParseInput is the input schema for the syntax_parse tool.
type ParseInput struct {
	Code string `json:"code"           jsonschema:"Python source to parse into a syntax tree"`
	Path string `json:"path,omitempty" jsonschema:"file name recorded on the module node"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// AggregateOutput is the codemetrics_analyze result when an aggregation
// is requested.
type AggregateOutput struct {
	Aggregation string         `json:"aggregation"`
	Result      metrics.Result `json:"result"`
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AnalyzeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	selected, err := selectMetrics(input.Metrics)
	if err != nil {
		return errorResult(err)
	}

	files, err := s.load(ctx, input.Code, input.Path)
	if err != nil {
		return errorResult(err)
	}

	if input.Aggregation != "" {
		aggregation, aggErr := metrics.AggregationByName(input.Aggregation)
		if aggErr != nil {
			return errorResult(aggErr)
		}

		result, aggErr := analysis.NewAnalyzer(metrics.NameMetrics(selected...), aggregation).
			Analyze(analysis.Methods(files))
		if aggErr != nil {
			return errorResult(aggErr)
		}

		return jsonResult(AggregateOutput{Aggregation: input.Aggregation, Result: result})
	}

	rows, err := analysis.Rows(analysis.Methods(files), selected...)
	if err != nil {
		return errorResult(err)
	}

	if input.Sort != "" {
		sortMetric, sortErr := metrics.Lookup(input.Sort)
		if sortErr != nil {
			return errorResult(sortErr)
		}

		if !slices.Contains(metrics.Names(selected), sortMetric.Name()) {
			return errorResult(fmt.Errorf("%w: %s", ErrSortNotSelected, input.Sort))
		}

		report.SortRows(rows, sortMetric.Name())
	}

	if rows == nil {
		rows = []*metrics.Named{}
	}

	return jsonResult(rows)
}

func (s *Server) handleAssess(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AssessInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	selected, err := selectMetrics(input.Metrics)
	if err != nil {
		return errorResult(err)
	}

	thresholds, err := s.mergeThresholds(input.Thresholds)
	if err != nil {
		return errorResult(err)
	}

	files, err := s.load(ctx, input.Code, input.Path)
	if err != nil {
		return errorResult(err)
	}

	rows, err := analysis.Rows(analysis.Methods(files), selected...)
	if err != nil {
		return errorResult(err)
	}

	breaches := analysis.Breaches(rows, metrics.Names(selected), thresholds, s.workDir)
	if breaches == nil {
		breaches = []analysis.Breach{}
	}

	return jsonResult(breaches)
}

func (s *Server) handleParse(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Code == "" {
		return errorResult(ErrEmptyCode)
	}

	files, err := s.load(ctx, input.Code, input.Path)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(files[0].Module)
}

// load parses inline code, or analyzes path on disk when no code is given.
func (s *Server) load(ctx context.Context, code, path string) ([]analysis.File, error) {
	if code == "" {
		if path == "" {
			return nil, ErrMissingSource
		}

		files, _, err := s.runner.Run(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", path, err)
		}

		return files, nil
	}

	if len(code) > MaxCodeInputBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	if path == "" {
		path = inlinePath
	}

	module, err := s.parser.Parse(ctx, path, []byte(code))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return []analysis.File{{Path: path, Module: module}}, nil
}

func (s *Server) mergeThresholds(overrides map[string]int) (map[string]int, error) {
	thresholds := maps.Clone(s.thresholds)

	for name, value := range overrides {
		metric, err := metrics.Lookup(name)
		if err != nil {
			return nil, err
		}

		if value <= 0 {
			return nil, fmt.Errorf("%w: %s = %d", settings.ErrInvalidThreshold, name, value)
		}

		thresholds[metric.Name()] = value
	}

	return thresholds, nil
}

func selectMetrics(names []string) ([]metrics.Metric, error) {
	if len(names) == 0 {
		return metrics.Standard(), nil
	}

	return metrics.LookupAll(names)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// Tool description constants.
const (
	analyzeToolDescription = "Measure Python methods: length, cyclomatic complexity, " +
		"cognitive complexity and working memory. Accepts inline code or a path, " +
		"and optionally folds the results with total, average or peak."

	assessToolDescription = "Report Python methods whose metrics exceed their thresholds. " +
		"Accepts inline code or a path and optional threshold overrides."

	parseToolDescription = "Parse Python source into the codemetrics syntax tree. " +
		"Returns a JSON representation of the tree."
)
