package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/codemetrics/pkg/analysis"
	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
)

func row(qualname string, length, cyclomatic, cognitive float64) *metrics.Named {
	return metrics.NewNamed().
		Set("method_file", metrics.Text("app.py")).
		Set("method_line", metrics.Number(1)).
		Set("method_name", metrics.Text(qualname)).
		Set("method_qualname", metrics.Text(qualname)).
		Set("method_length", metrics.Number(length)).
		Set("method_cyclomatic_complexity", metrics.Number(cyclomatic)).
		Set("method_cognitive_complexity", metrics.Number(cognitive))
}

func sampleRows() []*metrics.Named {
	return []*metrics.Named{row("bar", 2, 1, 1), row("foo", 4, 2, 3), row("baz", 3, 2, 0)}
}

//nolint:gochecknoglobals // Shared test fixture.
var chosen = []string{"method_length", "method_cognitive_complexity"}

func TestSortRows_Descending(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	report.SortRows(rows, "method_cyclomatic_complexity")

	var order []string
	for _, r := range rows {
		value, _ := r.Get("method_qualname")
		order = append(order, value.String())
	}

	assert.Equal(t, []string{"foo", "baz", "bar"}, order, "ties keep their order")
}

func TestWriteRows_CSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rows := sampleRows()
	report.SortRows(rows, "method_length")

	require.NoError(t, report.WriteRows(&buf, config.FormatCSV, rows, chosen))

	assert.Equal(t, "qualname,length,cognitive_complexity\nfoo,4,3\nbaz,3,0\nbar,2,1\n", buf.String())
}

func TestWriteRows_Plain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteRows(&buf, config.FormatPlain, sampleRows()[:1], chosen))

	assert.Equal(t, "{method_qualname: bar, method_length: 2, method_cognitive_complexity: 1}\n", buf.String())
}

func TestWriteRows_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteRows(&buf, config.FormatTable, sampleRows(), chosen))

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "method")
	assert.Contains(t, out, "cognitive_complexity")
	assert.Contains(t, out, "foo")
	assert.Contains(t, out, "3 methods")
}

func TestWriteRows_JSONKeepsFieldOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteRows(&buf, config.FormatJSON, sampleRows()[:1], chosen))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "bar", decoded[0]["method_qualname"])
	assert.InDelta(t, 2.0, decoded[0]["method_length"], 1e-9)

	assert.Less(t, strings.Index(buf.String(), "method_file"), strings.Index(buf.String(), "method_length"))
}

func TestWriteRows_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteRows(&buf, config.FormatYAML, sampleRows()[:1], chosen))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "bar", decoded[0]["method_qualname"])
}

func TestWriteRows_Plot(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	names := []string{"method_cyclomatic_complexity", "method_cognitive_complexity"}
	require.NoError(t, report.WriteRows(&buf, config.FormatPlot, sampleRows(), names))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Cyclomatic vs Cognitive Complexity")
	assert.Contains(t, out, "foo")
}

func TestWriteRows_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.WriteRows(&bytes.Buffer{}, "html", sampleRows(), chosen)
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func aggregate() metrics.Result {
	return metrics.NewNamed().
		Set("method_length", metrics.Number(3)).
		Set("method_cognitive_complexity", metrics.Number(1.5))
}

func TestWriteAggregate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   []string
	}{
		{config.FormatPlain, []string{"{method_length: 3, method_cognitive_complexity: 1.5}"}},
		{config.FormatCSV, []string{"length,cognitive_complexity\n3,1.5\n"}},
		{config.FormatTable, []string{"average value", "method_length", "1.5"}},
		{config.FormatJSON, []string{`"method_length": 3`, `"method_cognitive_complexity": 1.5`}},
		{config.FormatYAML, []string{"method_length: 3", "method_cognitive_complexity: 1.5"}},
		{config.FormatPlot, []string{"Average per metric"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			require.NoError(t, report.WriteAggregate(&buf, tt.format, "average", aggregate()))

			out := buf.String()
			if tt.format == config.FormatTable {
				out = strings.ToLower(out)
			}

			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestWriteBreaches_Lines(t *testing.T) {
	t.Parallel()

	breaches := []analysis.Breach{{
		Path: "app.py", Line: 3, Method: "foo", Metric: "length",
		Value: 40, Threshold: 15, Level: metrics.RiskCritical,
	}}

	var buf bytes.Buffer

	require.NoError(t, report.WriteBreaches(&buf, config.FormatTable, breaches))

	out := buf.String()
	assert.Contains(t, out, "app.py:3: error: length of foo is 40 exceeding threshold of 15")
	assert.Contains(t, out, "Found 1 errors.")
}

func TestWriteBreaches_None(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteBreaches(&buf, config.FormatPlain, nil))

	assert.Contains(t, buf.String(), "Assessment Complete")
	assert.Contains(t, buf.String(), "No issues found.")
}

func TestWriteBreaches_Structured(t *testing.T) {
	t.Parallel()

	breaches := []analysis.Breach{{
		Path: "app.py", Line: 3, Method: "foo", Metric: "cognitive_complexity",
		Value: 12, Threshold: 10, Level: metrics.RiskMedium,
	}}

	var csvBuf, jsonBuf bytes.Buffer

	require.NoError(t, report.WriteBreaches(&csvBuf, config.FormatCSV, breaches))
	assert.Equal(t,
		"path,line,method,metric,value,threshold,level\napp.py,3,foo,cognitive_complexity,12,10,MEDIUM\n",
		csvBuf.String())

	require.NoError(t, report.WriteBreaches(&jsonBuf, config.FormatJSON, nil))
	assert.JSONEq(t, "[]", jsonBuf.String())
}
