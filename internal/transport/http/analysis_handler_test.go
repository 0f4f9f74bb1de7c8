package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gasrate/internal/config"
	"gasrate/internal/dataprocessing"
	apierrors "gasrate/internal/errors"
	"gasrate/internal/services"
	"gasrate/internal/shared/testutil"
)

func TestAnalysisHandler_Create(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{SpikeThreshold: 10000})

	rec := s.upload(t, "/api/v1/analyses", sampleFiles(t), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	runID, _ := body["run_id"].(string)
	require.NotEmpty(t, runID)
	assert.Equal(t, "/api/v1/analyses/"+runID, rec.Header().Get("Location"))
	assert.Equal(t, false, body["nothing_to_analyze"])

	daily, ok := body["daily"].([]interface{})
	require.True(t, ok)
	require.Len(t, daily, 3)
	third := daily[2].(map[string]interface{})
	assert.Equal(t, 100.0, third["allocated_gas"])
	assert.Equal(t, 100.0, third["specific_rate"])

	links := body["links"].(map[string]interface{})
	assert.Equal(t, "/api/v1/analyses/"+runID+"/export?format=xlsx", links["xlsx"])

	testutil.AssertLogAttr(t, s.logs, "run_id", runID)
}

func TestAnalysisHandler_CreateNothingToAnalyze(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{SpikeThreshold: 10000})

	production := testutil.CSV(t, testutil.ProductionHeader, []string{"2024-03-03", "1000", "F1"})
	rec := s.upload(t, "/api/v1/analyses", []testutil.UploadFile{{Name: "production.csv", Data: production}}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["nothing_to_analyze"])
	assert.Equal(t, dataprocessing.NothingToAnalyzeNotice, body["notice"])
}

func TestAnalysisHandler_CreateErrors(t *testing.T) {
	csvFile := testutil.UploadFile{Name: "F1.csv", Data: []byte("time,cumulative_gas_reading\n")}

	tests := []struct {
		name       string
		cfg        config.AnalysisConfig
		files      []testutil.UploadFile
		values     map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no files",
			values:     map[string]string{"note": "empty"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "NO_FILES",
		},
		{
			name:       "unsupported extension",
			files:      []testutil.UploadFile{{Name: "notes.txt", Data: []byte("hi")}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "too many files",
			cfg:        config.AnalysisConfig{MaxFiles: 1},
			files:      []testutil.UploadFile{csvFile, csvFile},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "TOO_MANY_FILES",
		},
		{
			name:       "bad spike threshold",
			files:      []testutil.UploadFile{csvFile},
			values:     map[string]string{FormFieldSpikeThreshold: "-5"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.cfg)
			rec := s.upload(t, "/api/v1/analyses", tt.files, tt.values)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeJSON(t, rec)["error_code"])
		})
	}
}

func TestAnalysisHandler_CreateRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{})

	big := testutil.UploadFile{Name: "F1.csv", Data: bytes.Repeat([]byte("x"), testMaxUpload+1)}
	rec := s.upload(t, "/api/v1/analyses", []testutil.UploadFile{big}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalysisHandler_CreateRequiresMultipart(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnsupportedMediaType, s.do(req).Code)
}

func TestAnalysisHandler_GetAndList(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{})
	created := decodeJSON(t, s.upload(t, "/api/v1/analyses", sampleFiles(t), nil))
	runID := created["run_id"].(string)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, runID, decodeJSON(t, rec)["run_id"])

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeJSON(t, rec)
	assert.Equal(t, 1.0, list["count"])
	first := list["analyses"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, []interface{}{"F1"}, first["furnaces"])

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESULT_NOT_FOUND", decodeJSON(t, rec)["error_code"])
}

func TestAnalysisHandler_Export(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{})
	runID := decodeJSON(t, s.upload(t, "/api/v1/analyses", sampleFiles(t), nil))["run_id"].(string)
	base := "/api/v1/analyses/" + runID + "/export"

	t.Run("workbook by default", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, base, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.ContentTypeXLSX, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"Daily", "Weekly", "Monthly", "Unallocated"}, f.GetSheetList())
	})

	t.Run("weekly csv", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, base+"?format=CSV&granularity=weekly", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.ContentTypeCSV, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "-weekly.csv")
		assert.Contains(t, rec.Body.String(), "period_start,furnace_id,gas_amount,weight_kg,specific_rate")
	})

	t.Run("unsupported format", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, base+"?format=pdf", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeJSON(t, rec)["error_code"])
	})

	t.Run("unknown granularity", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, base+"?format=csv&granularity=hourly", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown run", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/missing/export", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalysisHandler_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "too many files", err: fmt.Errorf("analysis failed: %w", services.ErrTooManyFiles), wantStatus: http.StatusRequestEntityTooLarge},
		{name: "deadline", err: fmt.Errorf("analysis failed: %w", context.DeadlineExceeded), wantStatus: http.StatusGatewayTimeout},
		{name: "parsing", err: apierrors.NewParsingError("bad workbook", errors.New("zip: not a valid zip file")), wantStatus: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAnalysisService{}
			svc.On("Options").Return(dataprocessing.ProcessingOptions{SpikeThreshold: 10000, MaxFiles: 5})
			svc.On("Analyze", mock.Anything, mock.AnythingOfType("services.AnalyzeRequest")).Return(nil, tt.err)

			h := NewAnalysisHandler(svc, nil, nil, testMaxUpload, nil)
			r := chi.NewRouter()
			r.Mount("/api/v1/analyses", h.Routes())

			body, contentType := testutil.Multipart(t, FormFieldFiles, sampleFiles(t), nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_Save(t *testing.T) {
	s := newTestServer(t, config.AnalysisConfig{})
	runID := decodeJSON(t, s.upload(t, "/api/v1/analyses", sampleFiles(t), nil))["run_id"].(string)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/v1/analyses/"+runID+"/save", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	file, _ := decodeJSON(t, rec)["file"].(string)
	assert.True(t, strings.HasSuffix(file, ".xlsx"))
	assert.NotContains(t, file, "/")

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/analyses/missing/save", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
