package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"gasrate/internal/config"
	"gasrate/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func initTestOTel(t *testing.T, cfg *OTelConfig) *OTelProviders {
	t.Helper()
	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(ctx)
	})
	return providers
}

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOTelInitialization(t *testing.T) {
	providers := initTestOTel(t, nil)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestOTelConfigFrom(t *testing.T) {
	tests := []struct {
		name        string
		in          config.TelemetryConfig
		wantTracing bool
		wantMetrics bool
		wantTrace   string
	}{
		{
			name:        "enabled with metrics",
			in:          config.TelemetryConfig{Enabled: true, ServiceName: "svc", MetricsEnabled: true},
			wantTracing: true, wantMetrics: true, wantTrace: "none",
		},
		{
			name:        "metrics need telemetry enabled",
			in:          config.TelemetryConfig{Enabled: false, MetricsEnabled: true},
			wantTracing: false, wantMetrics: false, wantTrace: "none",
		},
		{
			name:        "stdout traces",
			in:          config.TelemetryConfig{Enabled: true, TraceStdout: true},
			wantTracing: true, wantMetrics: false, wantTrace: "stdout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OTelConfigFrom(tt.in)
			assert.Equal(t, tt.wantTracing, got.EnableTracing)
			assert.Equal(t, tt.wantMetrics, got.EnableMetrics)
			assert.Equal(t, tt.wantTrace, got.TraceExporter)
		})
	}

	assert.Equal(t, "svc", OTelConfigFrom(config.TelemetryConfig{ServiceName: "svc"}).ServiceName)
	assert.Equal(t, config.AppName, OTelConfigFrom(config.TelemetryConfig{}).ServiceName)
}

func TestOTelConfiguration(t *testing.T) {
	t.Run("disabled signals fall back to noop", func(t *testing.T) {
		cfg := DefaultOTelConfig()
		cfg.EnableTracing = false
		cfg.EnableMetrics = false

		providers := initTestOTel(t, cfg)
		assert.Nil(t, providers.TracerProvider)
		assert.Nil(t, providers.MeterProvider)
		assert.Nil(t, providers.PrometheusHTTP)
		assert.NotNil(t, providers.Tracer)
		assert.NotNil(t, providers.Meter)
	})

	t.Run("unsupported exporters", func(t *testing.T) {
		cfg := DefaultOTelConfig()
		cfg.TraceExporter = "jaeger"
		_, err := InitializeOTel(cfg, discardLogger())
		assert.ErrorContains(t, err, "unsupported trace exporter")

		cfg = DefaultOTelConfig()
		cfg.MetricExporter = "statsd"
		_, err = InitializeOTel(cfg, discardLogger())
		assert.ErrorContains(t, err, "unsupported metric exporter")
	})

	t.Run("stdout exporter writes spans on shutdown", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := DefaultOTelConfig()
		cfg.EnableMetrics = false
		cfg.TraceExporter = "stdout"
		cfg.TraceWriter = &buf

		providers, err := InitializeOTel(cfg, discardLogger())
		require.NoError(t, err)

		_, span := providers.Tracer.Start(context.Background(), "analysis.run")
		span.End()
		require.NoError(t, providers.Shutdown(context.Background()))

		assert.Contains(t, buf.String(), "analysis.run")
	})
}

func TestTraceCorrelation(t *testing.T) {
	providers := initTestOTel(t, DefaultOTelConfig())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	// the span wins over a request-scoped id
	assert.Equal(t, traceID, GetTraceID(WithTraceID(ctx, "request-id")))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestSpanHelpers(t *testing.T) {
	providers := initTestOTel(t, DefaultOTelConfig())

	ctx, span := providers.Tracer.Start(context.Background(), "test-span")
	defer span.End()

	assert.True(t, span.IsRecording())
	AddSpanEvent(ctx, "file.parsed", attribute.String("file", "F1.csv"))
	RecordError(ctx, errors.New("boom"), trace.WithAttributes(attribute.String("stage", "merge")))

	// no span in context is a no-op
	AddSpanEvent(context.Background(), "ignored")
	RecordError(context.Background(), errors.New("ignored"))
}

func TestAnalysisMetrics(t *testing.T) {
	providers := initTestOTel(t, DefaultOTelConfig())

	metrics, err := CreateAnalysisMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	result := &domain.AnalysisResult{
		RunID: "run-1",
		Files: []domain.FileReport{
			{Name: "F1.csv", Kind: domain.FileKindGas, Accepted: 3},
			{Name: "notes.csv", Kind: domain.FileKindUnknown, Skipped: true, Issues: []domain.FileIssue{{Severity: domain.SeverityInfo}}},
		},
		Daily:      []domain.AllocatedDailyRecord{{DailyRecord: domain.DailyRecord{FurnaceID: "F1"}}},
		Remainders: []domain.Remainder{{FurnaceID: "F1", UnallocatedGas: 30}},
	}

	RecordAnalysis(ctx, metrics, result, 250*time.Millisecond, nil)
	RecordAnalysis(ctx, metrics, nil, time.Millisecond, errors.New("failed"))
	RecordHTTPRequest(ctx, metrics, http.MethodPost, "/api/v1/analyses", http.StatusOK, 10*time.Millisecond)
	RecordExport(ctx, metrics, "xlsx", nil)

	body := scrape(t, providers.PrometheusHTTP)
	assert.Contains(t, body, "analysis_runs_total")
	assert.Contains(t, body, `status="ok"`)
	assert.Contains(t, body, `status="failed"`)
	assert.Contains(t, body, "analysis_files_total")
	assert.Contains(t, body, "analysis_file_issues_total")
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "exports_total")
}

func TestRecordFunctionsTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordAnalysis(ctx, nil, &domain.AnalysisResult{}, time.Second, nil)
		RecordHTTPRequest(ctx, nil, http.MethodGet, "/", http.StatusOK, time.Second)
		RecordExport(ctx, nil, "csv", nil)
	})
}

func TestRecordAnalysisWithNoopMeter(t *testing.T) {
	metrics, err := CreateAnalysisMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() {
		RecordAnalysis(ctx, metrics, nil, time.Second, context.Canceled)
	})
}

func TestRuntimeMetrics(t *testing.T) {
	providers := initTestOTel(t, DefaultOTelConfig())

	reg, err := RegisterRuntimeMetrics(providers.Meter, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	defer reg.Unregister()

	body := scrape(t, providers.PrometheusHTTP)
	assert.Contains(t, body, "system_goroutines")
	assert.Contains(t, body, "system_memory_usage_bytes")
	assert.Contains(t, body, "system_process_uptime_seconds")
}
