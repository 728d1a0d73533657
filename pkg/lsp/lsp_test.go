package lsp_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/codemetrics/pkg/cache"
	"github.com/Sumatoshi-tech/codemetrics/pkg/lsp"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax/python"
)

const fooBar = `def foo(x, y):
    if x:
        if y:
            return x + y
    return None


def bar(p):
    for i in p:
        print(i)
`

func newAnalyzer(thresholds map[string]int) *lsp.Analyzer {
	return lsp.NewAnalyzer(python.NewParser(), cache.NewMemory(1<<20), thresholds, "")
}

func TestDocuments_Versions(t *testing.T) {
	t.Parallel()

	docs := lsp.NewDocuments()
	uri := "file:///work/mod.py"

	_, ok := docs.Text(uri)
	assert.False(t, ok)

	docs.Open(uri, "initial", 1)
	assert.True(t, docs.Update(uri, "updated", 3))
	assert.False(t, docs.Update(uri, "stale", 2), "older versions are ignored")

	got, ok := docs.Text(uri)
	require.True(t, ok)
	assert.Equal(t, "updated", got)

	version, ok := docs.Version(uri)
	require.True(t, ok)
	assert.Equal(t, int32(3), version)

	docs.Replace(uri, "saved")

	got, _ = docs.Text(uri)
	assert.Equal(t, "saved", got)

	version, _ = docs.Version(uri)
	assert.Equal(t, int32(3), version)

	docs.Close(uri)

	_, ok = docs.Text(uri)
	assert.False(t, ok)
	assert.Equal(t, 0, docs.Len())
}

func TestDocuments_RemembersReportOfCurrentText(t *testing.T) {
	t.Parallel()

	docs := lsp.NewDocuments()
	uri := "file:///work/mod.py"
	analyzer := newAnalyzer(nil)

	docs.Open(uri, fooBar, 1)

	report, err := analyzer.Analyze(context.Background(), "mod.py", fooBar)
	require.NoError(t, err)

	assert.False(t, docs.Remember(uri, "other text", report), "reports of superseded text are dropped")

	_, ok := docs.Report(uri)
	assert.False(t, ok)

	require.True(t, docs.Remember(uri, fooBar, report))

	got, ok := docs.Report(uri)
	require.True(t, ok)
	assert.Len(t, got.Rows, 2)

	assert.True(t, docs.Update(uri, fooBar, 2), "same text keeps the report")

	_, ok = docs.Report(uri)
	assert.True(t, ok)

	assert.True(t, docs.Update(uri, fooBar+"\nx = 1\n", 3))

	_, ok = docs.Report(uri)
	assert.False(t, ok, "new text drops the report")
}

func TestAnalyzer_BreachesBecomeDiagnostics(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer(map[string]int{"method_length": 3, "method_cognitive_complexity": 1})

	report, err := analyzer.Analyze(context.Background(), "mod.py", fooBar)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	require.Len(t, report.Breaches, 2)

	diagnostics := lsp.Diagnostics(report)
	require.Len(t, diagnostics, 2)

	first := diagnostics[0]
	assert.Equal(t, protocol.UInteger(0), first.Range.Start.Line)
	assert.Equal(t, "length of foo is 4 exceeding threshold of 3", first.Message)
	require.NotNil(t, first.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *first.Severity)
	require.NotNil(t, first.Source)
	assert.Equal(t, "codemetrics", *first.Source)

	second := diagnostics[1]
	require.NotNil(t, second.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *second.Severity, "cognitive 3 is three times the threshold")
}

func TestAnalyzer_DefaultThresholdsAreQuiet(t *testing.T) {
	t.Parallel()

	report, err := newAnalyzer(nil).Analyze(context.Background(), "mod.py", fooBar)
	require.NoError(t, err)
	assert.Empty(t, lsp.Diagnostics(report))
}

func TestAnalyzer_ReusesCachedTree(t *testing.T) {
	t.Parallel()

	trees := cache.NewMemory(1 << 20)
	analyzer := lsp.NewAnalyzer(python.NewParser(), trees, nil, "")

	for range 2 {
		_, err := analyzer.Analyze(context.Background(), "mod.py", fooBar)
		require.NoError(t, err)
	}

	stats := trees.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)
}

func TestAnalyzer_ParseError(t *testing.T) {
	t.Parallel()

	_, err := newAnalyzer(nil).Analyze(context.Background(), "mod.py", "def broken(:\n")
	require.ErrorIs(t, err, python.ErrParse)
}

func TestHoverText(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer(nil)

	report, err := analyzer.Analyze(context.Background(), "mod.py", fooBar)
	require.NoError(t, err)

	text, ok := analyzer.HoverText(report, 3)
	require.True(t, ok)
	assert.Contains(t, text, "**mod.foo**")
	assert.Contains(t, text, "| length | 4 | 15 |")
	assert.Contains(t, text, "| cognitive_complexity | 3 | 10 |")

	text, ok = analyzer.HoverText(report, 9)
	require.True(t, ok)
	assert.Contains(t, text, "**mod.bar**")

	_, ok = analyzer.HoverText(report, 6)
	assert.False(t, ok, "blank line between methods")
}

func TestMethodAt_Innermost(t *testing.T) {
	t.Parallel()

	module, err := python.ParseString("def outer():\n    def inner():\n        return 1\n    return inner\n")
	require.NoError(t, err)

	method, ok := lsp.MethodAt(module, 3)
	require.True(t, ok)
	assert.Equal(t, "inner", method.Name)

	method, ok = lsp.MethodAt(module, 4)
	require.True(t, ok)
	assert.Equal(t, "outer", method.Name)
}

func TestURIToPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.FromSlash("/work/pkg/mod.py"), lsp.URIToPath("file:///work/pkg/mod.py"))
	assert.Equal(t, filepath.FromSlash("/work/my file.py"), lsp.URIToPath("file:///work/my%20file.py"))
	assert.Equal(t, "untitled:1", lsp.URIToPath("untitled:1"))
}
