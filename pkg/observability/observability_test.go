package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/codemetrics/pkg/observability"
)

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	found := findMetric(rm, name)
	require.NotNil(t, found, name)

	sum, ok := found.Data.(metricdata.Sum[int64])
	require.True(t, ok, name)

	var total int64
	for _, point := range sum.DataPoints {
		total += point.Value
	}

	return total
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "codemetrics", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.False(t, cfg.Prometheus)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, observability.ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, observability.ParseLogLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, observability.ParseLogLevel("chatty"))
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t, map[string]string{"api-key": "abc", "team": "x"},
		observability.ParseOTLPHeaders(" api-key = abc ,team=x"))
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "svc", "ci", observability.ModeLSP))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.WithGroup("req").InfoContext(ctx, "hover", "line", 3)

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "svc", record["service"])
	assert.Equal(t, "ci", record["env"])
	assert.Equal(t, "lsp", record["mode"])
	assert.Equal(t, map[string]any{
		"line":     float64(3),
		"trace_id": "0102030405060708090a0b0c0d0e0f10",
		"span_id":  "0102030405060708",
	}, record["req"])
}

func TestTracingHandler_NoTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.LogWriter = &buf

	observability.NewLogger(cfg).Info("plain")

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "codemetrics", record["service"])
	assert.Equal(t, "cli", record["mode"])
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "env")
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn
	cfg.LogWriter = &buf

	logger := observability.NewLogger(cfg)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.LogWriter = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Nil(t, providers.MetricsHandler)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_PrometheusHandlerServesAnalysisMetrics(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeMCP
	cfg.Prometheus = true
	cfg.LogWriter = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	am, err := observability.NewAnalysisMetrics(providers.Meter)
	require.NoError(t, err)

	am.RecordRun(context.Background(), observability.AnalysisStats{Files: 3, Methods: 12})

	server := observability.MetricsServer("127.0.0.1:0", providers, nil)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "codemetrics_analysis_files")
	assert.Contains(t, rec.Body.String(), "codemetrics_analysis_methods")
}

func TestAnalysisMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	reader, mp := newReader(t)

	am, err := observability.NewAnalysisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	am.RecordRun(ctx, observability.AnalysisStats{
		Files:         4,
		Methods:       20,
		ParseFailures: 1,
		CacheHits:     3,
		CacheMisses:   1,
		FileDurations: []time.Duration{time.Millisecond, 2 * time.Millisecond},
	})
	am.RecordBreach(ctx, "method_length")
	am.RecordBreach(ctx, "method_length")

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(4), counterTotal(t, rm, "codemetrics.analysis.files.total"))
	assert.Equal(t, int64(20), counterTotal(t, rm, "codemetrics.analysis.methods.total"))
	assert.Equal(t, int64(1), counterTotal(t, rm, "codemetrics.analysis.parse_failures.total"))
	assert.Equal(t, int64(2), counterTotal(t, rm, "codemetrics.analysis.breaches.total"))
	assert.Equal(t, int64(3), counterTotal(t, rm, "codemetrics.analysis.cache.hits.total"))

	histogram := findMetric(rm, "codemetrics.analysis.file.duration.seconds")
	require.NotNil(t, histogram)

	data, ok := histogram.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, uint64(2), data.DataPoints[0].Count)
}

func TestAnalysisMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var am *observability.AnalysisMetrics

	assert.NotPanics(t, func() {
		am.RecordRun(context.Background(), observability.AnalysisStats{Files: 1})
		am.RecordBreach(context.Background(), "method_length")
	})
}

func TestREDMetrics_Observe(t *testing.T) {
	t.Parallel()

	reader, mp := newReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, red.Observe(ctx, "hover", func() error { return nil }))

	boom := errors.New("boom")
	require.ErrorIs(t, red.Observe(ctx, "hover", func() error { return boom }), boom)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), counterTotal(t, rm, "codemetrics.requests.total"))
	assert.Equal(t, int64(1), counterTotal(t, rm, "codemetrics.errors.total"))

	inflight := findMetric(rm, "codemetrics.inflight.requests")
	require.NotNil(t, inflight)

	sum, ok := inflight.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	for _, point := range sum.DataPoints {
		assert.Equal(t, int64(0), point.Value)
	}
}

func TestREDMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var red *observability.REDMetrics

	assert.NoError(t, red.Observe(context.Background(), "op", func() error { return nil }))
}

func TestHTTPMiddleware_Spans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tests := []struct {
		name   string
		code   int
		status string
	}{
		{name: "ok", code: http.StatusOK, status: "Unset"},
		{name: "server error", code: http.StatusInternalServerError, status: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
				rw.WriteHeader(tt.code)
			})

			rec := httptest.NewRecorder()
			observability.HTTPMiddleware(tp.Tracer("test"), nil, handler).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "GET /metrics", spans[0].Name)
			assert.Equal(t, tt.status, spans[0].Status.Code.String())
		})
	}
}

func TestHTTPMiddleware_ExtractsTraceParent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	otel.SetTextMapPropagator(propagation.TraceContext{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	req.Header.Set("Traceparent", "00-0af7651916cd43dd8448eb211c80319c-00f067aa0ba902b7-01")

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	observability.HTTPMiddleware(tp.Tracer("test"), nil, handler).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}
