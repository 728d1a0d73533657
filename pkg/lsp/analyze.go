package lsp

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/cache"
	"github.com/Sumatoshi-tech/codemetrics/pkg/extract"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// diagnosticSource labels every published diagnostic.
const diagnosticSource = "codemetrics"

// Report is the analysis of one open document.
type Report struct {
	Module   *syntax.Node
	Rows     []*metrics.Named
	Breaches []analysis.Breach
}

// Analyzer measures open documents, reusing parsed trees of unchanged text.
type Analyzer struct {
	parser     analysis.Parser
	trees      *cache.Memory
	metrics    []metrics.Metric
	thresholds map[string]int
	workDir    string
}

// NewAnalyzer creates a document analyzer. A nil thresholds map uses the
// built-in thresholds.
func NewAnalyzer(parser analysis.Parser, trees *cache.Memory, thresholds map[string]int, workDir string) *Analyzer {
	if thresholds == nil {
		thresholds = metrics.DefaultThresholds()
	}

	if trees == nil {
		trees = cache.NewMemory(0)
	}

	return &Analyzer{
		parser:     parser,
		trees:      trees,
		metrics:    metrics.Standard(),
		thresholds: thresholds,
		workDir:    workDir,
	}
}

// Analyze parses text as the document at path and assesses its methods.
func (a *Analyzer) Analyze(ctx context.Context, path, text string) (Report, error) {
	module, err := a.parse(ctx, path, []byte(text))
	if err != nil {
		return Report{}, err
	}

	files := []analysis.File{{Path: path, Module: module}}

	rows, err := analysis.Rows(analysis.Methods(files), a.metrics...)
	if err != nil {
		return Report{}, fmt.Errorf("measure %s: %w", path, err)
	}

	return Report{
		Module:   module,
		Rows:     rows,
		Breaches: analysis.Breaches(rows, metrics.Names(a.metrics), a.thresholds, a.workDir),
	}, nil
}

func (a *Analyzer) parse(ctx context.Context, path string, content []byte) (*syntax.Node, error) {
	key := cache.NewKey(path, content)

	if data, ok := a.trees.Get(key); ok {
		module, err := syntax.Unmarshal(data)
		if err == nil {
			return module, nil
		}
	}

	module, err := a.parser.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}

	data, err := syntax.Marshal(module)
	if err == nil {
		_ = a.trees.Put(key, data)
	}

	return module, nil
}

// Diagnostics converts the breaches of report into LSP diagnostics placed
// on the definition line of each method.
func Diagnostics(report Report) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(report.Breaches))

	for _, breach := range report.Breaches {
		line := protocol.UInteger(max(breach.Line-1, 0))
		severity := severityOf(breach.Level)
		source := diagnosticSource

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 0},
				End:   protocol.Position{Line: line + 1, Character: 0},
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: breach.Metric},
			Source:   &source,
			Message:  breach.Message(),
		})
	}

	return diagnostics
}

func severityOf(level metrics.RiskLevel) protocol.DiagnosticSeverity {
	switch level {
	case metrics.RiskCritical, metrics.RiskHigh:
		return protocol.DiagnosticSeverityError
	case metrics.RiskMedium:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// MethodAt returns the innermost method whose line span holds the 1-based
// line.
func MethodAt(module *syntax.Node, line int) (*syntax.Node, bool) {
	var found *syntax.Node

	for method := range extract.Methods(module) {
		if method.Line <= line && line <= method.EndLine {
			found = method
		}
	}

	return found, found != nil
}

// HoverText renders the metrics of the method at the 1-based line as
// Markdown.
func (a *Analyzer) HoverText(report Report, line int) (string, bool) {
	method, ok := MethodAt(report.Module, line)
	if !ok {
		return "", false
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "**%s**\n\n", metrics.Qualname(method))
	builder.WriteString("| metric | value | threshold |\n|---|---:|---:|\n")

	for _, metric := range a.metrics {
		value, err := metric.Measure(method)
		if err != nil {
			continue
		}

		threshold := "-"
		if limit, ok := a.thresholds[metric.Name()]; ok {
			threshold = fmt.Sprint(limit)
		}

		fmt.Fprintf(&builder, "| %s | %s | %s |\n", metrics.ShortName(metric.Name()), value, threshold)
	}

	return builder.String(), true
}

// URIToPath converts a file URI to a local path. Other strings are
// returned unchanged.
func URIToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uri
	}

	return filepath.FromSlash(parsed.Path)
}
