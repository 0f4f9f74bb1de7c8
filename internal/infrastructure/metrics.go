package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gasrate/pkg/contracts/domain"
)

// Analysis run outcomes used as the "status" attribute.
const (
	AnalysisStatusOK      = "ok"
	AnalysisStatusEmpty   = "nothing_to_analyze"
	AnalysisStatusFailed  = "failed"
	AnalysisStatusAborted = "aborted"
)

// AnalysisMetrics holds all application-specific metrics
type AnalysisMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Analysis metrics
	AnalysisRunsTotal metric.Int64Counter
	AnalysisDuration  metric.Float64Histogram
	FilesProcessed    metric.Int64Counter
	FileIssues        metric.Int64Counter
	FurnacesAnalyzed  metric.Int64Histogram
	UnallocatedGas    metric.Float64Counter

	// Export metrics
	ExportsTotal metric.Int64Counter
}

// CreateAnalysisMetrics creates application-specific metrics
func CreateAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	m := &AnalysisMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.AnalysisRunsTotal, err = meter.Int64Counter(
		"analysis_runs_total",
		metric.WithDescription("Total number of analysis runs by outcome"),
	); err != nil {
		return nil, err
	}

	if m.AnalysisDuration, err = meter.Float64Histogram(
		"analysis_duration_seconds",
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.FilesProcessed, err = meter.Int64Counter(
		"analysis_files_total",
		metric.WithDescription("Input files handled, by detected kind and whether they were skipped"),
	); err != nil {
		return nil, err
	}

	if m.FileIssues, err = meter.Int64Counter(
		"analysis_file_issues_total",
		metric.WithDescription("Issues reported while ingesting files, by severity"),
	); err != nil {
		return nil, err
	}

	if m.FurnacesAnalyzed, err = meter.Int64Histogram(
		"analysis_furnaces",
		metric.WithDescription("Number of furnaces present in an analysis result"),
	); err != nil {
		return nil, err
	}

	if m.UnallocatedGas, err = meter.Float64Counter(
		"analysis_unallocated_gas",
		metric.WithDescription("Gas left pooled after the last production day of a furnace"),
	); err != nil {
		return nil, err
	}

	if m.ExportsTotal, err = meter.Int64Counter(
		"exports_total",
		metric.WithDescription("Total number of report exports by format"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(ctx context.Context, metrics *AnalysisMetrics, method, route string, status int, duration time.Duration) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("http.status_code", strconv.Itoa(status)),
	)
	metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	metrics.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAnalysis records the outcome of one pipeline run. result may be nil
// when the run failed before producing one.
func RecordAnalysis(ctx context.Context, metrics *AnalysisMetrics, result *domain.AnalysisResult, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	status := AnalysisStatusOK
	switch {
	case err != nil && ctx.Err() != nil:
		status = AnalysisStatusAborted
	case err != nil:
		status = AnalysisStatusFailed
	case result != nil && result.NothingToAnalyze:
		status = AnalysisStatusEmpty
	}

	statusAttr := metric.WithAttributes(attribute.String("status", status))
	metrics.AnalysisRunsTotal.Add(ctx, 1, statusAttr)
	metrics.AnalysisDuration.Record(ctx, duration.Seconds(), statusAttr)

	if result == nil {
		return
	}

	for _, f := range result.Files {
		metrics.FilesProcessed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(f.Kind)),
			attribute.Bool("skipped", f.Skipped),
		))
		for _, issue := range f.Issues {
			metrics.FileIssues.Add(ctx, 1, metric.WithAttributes(attribute.String("severity", string(issue.Severity))))
		}
	}

	furnaces := result.Furnaces()
	metrics.FurnacesAnalyzed.Record(ctx, int64(len(furnaces)))
	for _, r := range result.Remainders {
		metrics.UnallocatedGas.Add(ctx, r.UnallocatedGas, metric.WithAttributes(attribute.String("furnace_id", r.FurnaceID)))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("analysis.metrics_recorded",
			trace.WithAttributes(
				attribute.String("run.id", result.RunID),
				attribute.String("status", status),
				attribute.Int("furnaces", len(furnaces)),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordExport records a report export
func RecordExport(ctx context.Context, metrics *AnalysisMetrics, format string, err error) {
	if metrics == nil {
		return
	}
	metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", err == nil),
	))
}
