package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gasrate/internal/config"
	"gasrate/internal/dataprocessing"
	apierrors "gasrate/internal/errors"
	"gasrate/internal/exporter"
	"gasrate/internal/services"
	"gasrate/internal/shared/testutil"
	"gasrate/pkg/contracts/domain"
)

const testMaxUpload = 1 << 20

type testServer struct {
	router  *chi.Mux
	service *services.AnalysisService
	health  *services.HealthService
	logs    *testutil.BufferedSlogHandler
}

func newTestServer(t *testing.T, cfg config.AnalysisConfig) *testServer {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)

	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	service := services.NewAnalysisService(cfg, exporter.NewReportExporter(paths, logger), nil, logger)
	health := services.NewHealthService("1.0.0-test", "2024-04-01", paths, service, logger)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	analysis := NewAnalysisHandler(service, nil, errorHandler, testMaxUpload, logger)
	healthHandler := NewHealthHandler(health, logger)
	metrics := NewMetricsHandler(nil, health, errorHandler)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	NewHTMLHandler(analysis, "1.0.0-test", logger).RegisterRoutes(r)
	r.Mount("/api/v1/analyses", analysis.Routes())
	r.Mount("/api/health", healthHandler.Routes())
	r.Get("/api/version", healthHandler.Version)
	r.Get("/api/v1/stats", metrics.Stats)
	r.Get("/metrics", metrics.Prometheus)

	return &testServer{router: r, service: service, health: health, logs: logs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, path string, files []testutil.UploadFile, values map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := testutil.Multipart(t, FormFieldFiles, files, values)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return s.do(req)
}

// sampleFiles yields daily gas 50, 30, 20 for F1 with 1000 kg produced on the third day.
func sampleFiles(t *testing.T) []testutil.UploadFile {
	t.Helper()
	gas := testutil.CSV(t, testutil.GasHeader, testutil.GasRows(
		[]string{"2024-03-01 00:00", "2024-03-01 23:00", "2024-03-02 23:00", "2024-03-03 23:00"},
		[]string{"1000", "1050", "1080", "1100"},
	)...)
	production := testutil.Workbook(t, testutil.ProductionHeader, []any{"2024-03-03", 1000, "F1"})
	return []testutil.UploadFile{
		{Name: "F1_march.csv", Data: gas},
		{Name: "production.xlsx", Data: production},
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// mockAnalysisService is a testify mock of AnalysisServiceInterface
type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) Analyze(ctx context.Context, req services.AnalyzeRequest) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*domain.AnalysisResult)
	return result, args.Error(1)
}

func (m *mockAnalysisService) Result(ctx context.Context, runID string) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, runID)
	result, _ := args.Get(0).(*domain.AnalysisResult)
	return result, args.Error(1)
}

func (m *mockAnalysisService) RecentResults(ctx context.Context) []*domain.AnalysisResult {
	args := m.Called(ctx)
	results, _ := args.Get(0).([]*domain.AnalysisResult)
	return results
}

func (m *mockAnalysisService) Export(ctx context.Context, runID, format string, g domain.Granularity) (*services.ExportedReport, error) {
	args := m.Called(ctx, runID, format, g)
	report, _ := args.Get(0).(*services.ExportedReport)
	return report, args.Error(1)
}

func (m *mockAnalysisService) SaveWorkbook(ctx context.Context, runID string) (string, error) {
	args := m.Called(ctx, runID)
	return args.String(0), args.Error(1)
}

func (m *mockAnalysisService) Options() dataprocessing.ProcessingOptions {
	return m.Called().Get(0).(dataprocessing.ProcessingOptions)
}
