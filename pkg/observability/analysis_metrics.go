package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal         = "codemetrics.analysis.files.total"
	metricMethodsTotal       = "codemetrics.analysis.methods.total"
	metricParseFailuresTotal = "codemetrics.analysis.parse_failures.total"
	metricBreachesTotal      = "codemetrics.analysis.breaches.total"
	metricCacheHitsTotal     = "codemetrics.analysis.cache.hits.total"
	metricCacheMissesTotal   = "codemetrics.analysis.cache.misses.total"
	metricFileDuration       = "codemetrics.analysis.file.duration.seconds"

	attrMetric = "metric"
)

// AnalysisMetrics holds OTel instruments for analysis runs.
type AnalysisMetrics struct {
	filesTotal    metric.Int64Counter
	methodsTotal  metric.Int64Counter
	parseFailures metric.Int64Counter
	breachesTotal metric.Int64Counter
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	fileDuration  metric.Float64Histogram
}

// AnalysisStats holds the statistics of a single run.
type AnalysisStats struct {
	Files         int64
	Methods       int64
	ParseFailures int64
	CacheHits     int64
	CacheMisses   int64
	FileDurations []time.Duration
}

type counterSpec struct {
	target      *metric.Int64Counter
	name        string
	description string
	unit        string
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	am := &AnalysisMetrics{}

	counters := []counterSpec{
		{&am.filesTotal, metricFilesTotal, "Total files analyzed", "{file}"},
		{&am.methodsTotal, metricMethodsTotal, "Total methods measured", "{method}"},
		{&am.parseFailures, metricParseFailuresTotal, "Files skipped after a parse failure", "{file}"},
		{&am.breachesTotal, metricBreachesTotal, "Threshold breaches by metric", "{breach}"},
		{&am.cacheHits, metricCacheHitsTotal, "Tree cache hits", "{hit}"},
		{&am.cacheMisses, metricCacheMissesTotal, "Tree cache misses", "{miss}"},
	}

	for _, spec := range counters {
		counter, err := mt.Int64Counter(spec.name,
			metric.WithDescription(spec.description),
			metric.WithUnit(spec.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", spec.name, err)
		}

		*spec.target = counter
	}

	fileDur, err := mt.Float64Histogram(metricFileDuration,
		metric.WithDescription("Per-file read and parse duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFileDuration, err)
	}

	am.fileDuration = fileDur

	return am, nil
}

// RecordRun records the statistics of a completed run.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.filesTotal.Add(ctx, stats.Files)
	am.methodsTotal.Add(ctx, stats.Methods)
	am.parseFailures.Add(ctx, stats.ParseFailures)
	am.cacheHits.Add(ctx, stats.CacheHits)
	am.cacheMisses.Add(ctx, stats.CacheMisses)

	for _, d := range stats.FileDurations {
		am.fileDuration.Record(ctx, d.Seconds())
	}
}

// RecordBreach counts one threshold breach of the named metric.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordBreach(ctx context.Context, metricName string) {
	if am == nil {
		return
	}

	am.breachesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMetric, metricName)))
}
