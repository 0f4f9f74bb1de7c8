package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "gasrate/internal/errors"
	"gasrate/internal/exporter"
	"gasrate/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type uploadPage struct {
	Title          string
	Version        string
	SpikeThreshold float64
	Problem        *apierrors.ProblemDetails
	Recent         []*domain.AnalysisResult
}

type resultsPage struct {
	Title   string
	Version string
	Result  *domain.AnalysisResult
	Links   map[string]string
	Tables  []exporter.TextTable
}

// HTMLHandler serves the upload form and the server-rendered results pages
type HTMLHandler struct {
	analysis     *AnalysisHandler
	version      string
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHTMLHandler creates the page handler on top of the analysis handler,
// sharing its upload parsing and validation.
func NewHTMLHandler(analysis *AnalysisHandler, version string, logger *slog.Logger) *HTMLHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLHandler{
		analysis:     analysis,
		version:      version,
		errorHandler: analysis.errorHandler,
		logger:       logger.With(slog.String("component", "html_handler")),
	}
}

// RegisterRoutes registers the page routes at the root of r
func (h *HTMLHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.UploadForm)
	r.With(h.analysis.validation.LimitBody(h.analysis.maxUploadBytes)).Post("/analyze", h.Submit)
	r.Get("/results/{runID}", h.Results)
}

// UploadForm handles GET /
func (h *HTMLHandler) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.renderUpload(w, r, http.StatusOK, nil)
}

// Submit handles POST /analyze and redirects to the results page
func (h *HTMLHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := h.analysis.parseUpload(r)
	if err != nil {
		h.renderProblem(w, r, err)
		return
	}

	result, err := h.analysis.service.Analyze(r.Context(), req)
	if err != nil {
		h.renderProblem(w, r, h.analysis.analysisError(err, len(req.Files)))
		return
	}

	http.Redirect(w, r, "/results/"+result.RunID, http.StatusSeeOther)
}

// Results handles GET /results/{runID}
func (h *HTMLHandler) Results(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.service.Result(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.renderProblem(w, r, h.analysis.resultError(err, ""))
		return
	}

	page := resultsPage{
		Title:   "Analysis " + result.RunID,
		Version: h.version,
		Result:  result,
		Links:   newAnalysisResponse(result).Links,
		Tables:  exporter.Preview(result),
	}
	h.render(w, r, http.StatusOK, "results", page)
}

// renderProblem shows an error above the upload form instead of a JSON problem
func (h *HTMLHandler) renderProblem(w http.ResponseWriter, r *http.Request, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	h.logger.WarnContext(r.Context(), "page request failed",
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()))
	h.renderUpload(w, r, problem.Status, problem)
}

func (h *HTMLHandler) renderUpload(w http.ResponseWriter, r *http.Request, status int, problem *apierrors.ProblemDetails) {
	page := uploadPage{
		Title:          "Upload",
		Version:        h.version,
		SpikeThreshold: h.analysis.service.Options().SpikeThreshold,
		Problem:        problem,
		Recent:         h.analysis.service.RecentResults(r.Context()),
	}
	h.render(w, r, status, "upload", page)
}

// render executes into a buffer so template errors never leave a partial page
func (h *HTMLHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "template rendering failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
