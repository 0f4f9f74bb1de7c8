package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"gasrate/internal/dataprocessing"
	apierrors "gasrate/internal/errors"
	"gasrate/internal/middleware"
	"gasrate/internal/services"
	api "gasrate/pkg/contracts/api/v1"
	"gasrate/pkg/contracts/domain"
)

// Multipart form fields of an upload.
const (
	FormFieldFiles          = "files"
	FormFieldSpikeThreshold = "spike_threshold"

	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

// uploadFile is validated for every submitted part.
type uploadFile struct {
	Name string `form:"files" validate:"required,filename,datafile"`
}

// AnalysisHandler handles upload, result and export requests
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	validation     *middleware.ValidationMiddleware
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validation *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	if validation == nil {
		validation = middleware.NewValidationMiddleware(logger, errorHandler)
	}
	return &AnalysisHandler{
		service:        service,
		validation:     validation,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the analysis routes, mounted under /api/v1/analyses
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(
		h.validation.LimitBody(h.maxUploadBytes),
		h.validation.ContentTypeValidator("multipart/form-data"),
	).Post("/", h.Create)
	r.Get("/", h.List)

	r.Route("/{runID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/export", h.Export)
		r.Post("/save", h.Save)
	})

	return r
}

// Create handles POST /api/v1/analyses
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseUpload(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.analysisError(err, len(req.Files)))
		return
	}

	h.logger.InfoContext(r.Context(), "analysis created",
		slog.String("run_id", result.RunID),
		slog.Int("files", len(req.Files)))

	w.Header().Set("Location", resultPath(result.RunID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newAnalysisResponse(result))
}

// List handles GET /api/v1/analyses
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	results := h.service.RecentResults(r.Context())
	list := api.AnalysisList{Analyses: make([]api.AnalysisSummary, 0, len(results))}
	for _, result := range results {
		list.Analyses = append(list.Analyses, api.NewAnalysisSummary(result))
	}
	list.Count = len(list.Analyses)
	render.JSON(w, r, list)
}

// Get handles GET /api/v1/analyses/{runID}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, h.resultError(err, ""))
		return
	}
	render.JSON(w, r, newAnalysisResponse(result))
}

// Export handles GET /api/v1/analyses/{runID}/export?format=xlsx|csv&granularity=daily|weekly|monthly
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	req := api.ExportRequestFromQuery(r.URL.Query())
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Export(r.Context(), chi.URLParam(r, "runID"), req.Format, req.Granularity)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.resultError(err, req.Format))
		return
	}

	writeReport(w, report)
}

// Save handles POST /api/v1/analyses/{runID}/save, writing the workbook into
// the reports directory on the server.
func (h *AnalysisHandler) Save(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.SaveWorkbook(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, h.resultError(err, api.FormatXLSX))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.SavedReport{File: filepath.Base(path)})
}

// parseUpload reads the multipart form into an analysis request
func (h *AnalysisHandler) parseUpload(r *http.Request) (services.AnalyzeRequest, error) {
	var req services.AnalyzeRequest

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, err
		}
		return req, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	if raw := strings.TrimSpace(r.FormValue(FormFieldSpikeThreshold)); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold <= 0 {
			return req, apierrors.ErrValidation(FormFieldSpikeThreshold, "spike_threshold must be a positive number")
		}
		req.SpikeThreshold = threshold
	}

	headers := r.MultipartForm.File[FormFieldFiles]
	if len(headers) == 0 {
		return req, apierrors.ErrNoFiles
	}
	if limit := h.service.Options().MaxFiles; limit > 0 && len(headers) > limit {
		return req, apierrors.TooManyFilesError(len(headers), limit)
	}

	for _, fh := range headers {
		if err := h.validation.ValidateStruct(uploadFile{Name: fh.Filename}); err != nil {
			return req, err
		}
		input, err := readPart(fh)
		if err != nil {
			return req, err
		}
		req.Files = append(req.Files, input)
	}

	return req, nil
}

// readPart buffers one uploaded file so it outlives the multipart form
func readPart(fh *multipart.FileHeader) (dataprocessing.Input, error) {
	f, err := fh.Open()
	if err != nil {
		return dataprocessing.Input{}, apierrors.InvalidRequestWithError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return dataprocessing.Input{}, apierrors.InvalidRequestWithError(fmt.Errorf("read %s: %w", fh.Filename, err))
	}
	return dataprocessing.Input{Name: fh.Filename, Data: bytes.NewReader(data)}, nil
}

// analysisError maps service errors from Analyze to API errors
func (h *AnalysisHandler) analysisError(err error, files int) error {
	switch {
	case errors.Is(err, services.ErrNoFilesUploaded):
		return apierrors.ErrNoFiles
	case errors.Is(err, services.ErrTooManyFiles):
		return apierrors.TooManyFilesError(files, h.service.Options().MaxFiles)
	case errors.Is(err, services.ErrInvalidThreshold):
		return apierrors.ErrValidation(FormFieldSpikeThreshold, err.Error())
	case errors.Is(err, services.ErrUnsupportedFile):
		return apierrors.ErrUnsupportedFile
	}

	var apiErr *apierrors.APIError
	var appErr *apierrors.AppError
	if errors.As(err, &apiErr) || errors.As(err, &appErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apierrors.AnalysisError(err)
}

// resultError maps lookup and export errors to API errors
func (h *AnalysisHandler) resultError(err error, format string) error {
	switch {
	case errors.Is(err, services.ErrResultNotFound):
		return apierrors.ErrResultNotFound
	case errors.Is(err, services.ErrUnsupportedFormat):
		return apierrors.ErrValidation("format", err.Error())
	}
	return apierrors.NewExportError(format, err)
}

func newAnalysisResponse(result *domain.AnalysisResult) api.AnalysisResponse {
	base := resultPath(result.RunID)
	return api.AnalysisResponse{
		AnalysisResult: result,
		Links: map[string]string{
			"self":        base,
			"xlsx":        base + "/export?format=xlsx",
			"csv_daily":   base + "/export?format=csv&granularity=daily",
			"csv_weekly":  base + "/export?format=csv&granularity=weekly",
			"csv_monthly": base + "/export?format=csv&granularity=monthly",
		},
	}
}

func resultPath(runID string) string {
	return "/api/v1/analyses/" + runID
}

// writeReport sends a rendered report as an attachment
func writeReport(w http.ResponseWriter, report *services.ExportedReport) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(report.Data)
}
