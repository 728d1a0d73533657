// Package mcp implements a Model Context Protocol server exposing codemetrics
// analysis as MCP tools over stdio transport.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/observability"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax/python"
	"github.com/Sumatoshi-tech/codemetrics/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "codemetrics"

	// toolCount is the expected number of registered tools.
	toolCount = 3
)

// errToolFailed marks a tool result flagged as an error for RED metrics.
var errToolFailed = errors.New("tool returned an error result")

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Parser parses inline code. Nil uses the Python parser.
	Parser analysis.Parser

	// Runner analyzes paths on disk. Nil builds an uncached runner over Parser.
	Runner *analysis.Runner

	// Thresholds are the assessment defaults. Nil uses the built-in thresholds.
	Thresholds map[string]int

	// WorkDir makes reported paths relative.
	WorkDir string
}

// Server wraps the MCP SDK server with codemetrics tool registrations.
type Server struct {
	inner      *mcpsdk.Server
	mu         sync.RWMutex
	tools      []string
	metrics    *observability.REDMetrics
	tracer     trace.Tracer
	parser     analysis.Parser
	runner     *analysis.Runner
	thresholds map[string]int
	workDir    string
}

// NewServer creates a new MCP server with all codemetrics tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	parser := deps.Parser
	if parser == nil {
		parser = python.NewParser()
	}

	runner := deps.Runner
	if runner == nil {
		runner = analysis.NewRunner(parser, analysis.Options{Logger: deps.Logger})
	}

	thresholds := maps.Clone(deps.Thresholds)
	if thresholds == nil {
		thresholds = metrics.DefaultThresholds()
	}

	srv := &Server{
		inner:      inner,
		tools:      make([]string, 0, toolCount),
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		parser:     parser,
		runner:     runner,
		thresholds: thresholds,
		workDir:    deps.WorkDir,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all codemetrics MCP tools to the server.
func (s *Server) registerTools() {
	addTool(s, ToolNameAnalyze, analyzeToolDescription, s.handleAnalyze)
	addTool(s, ToolNameAssess, assessToolDescription, s.handleAssess)
	addTool(s, ToolNameParse, parseToolDescription, s.handleParse)
}

type toolHandler[Input any] func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

func addTool[Input any](s *Server, name, description string, handler toolHandler[Input]) {
	wrapped := withMetrics(s.metrics, name, withTracing(s.tracer, name, handler))

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, mcpsdk.ToolHandlerFor[Input, ToolOutput](wrapped))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](red *observability.REDMetrics, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if red == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		var (
			result    *mcpsdk.CallToolResult
			output    ToolOutput
			handleErr error
		)

		_ = red.Observe(ctx, mcpSpanPrefix+toolName, func() error {
			result, output, handleErr = handler(ctx, req, input)
			if handleErr == nil && result != nil && result.IsError {
				return errToolFailed
			}

			return handleErr
		})

		return result, output, handleErr
	}
}
