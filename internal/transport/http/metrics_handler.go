package http

import (
	"net/http"

	"github.com/go-chi/render"

	apierrors "gasrate/internal/errors"
	"gasrate/internal/services"
)

// MetricsHandler exposes Prometheus metrics and runtime statistics
type MetricsHandler struct {
	prometheus   http.Handler
	health       *services.HealthService
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus is nil when
// metric export is disabled.
func NewMetricsHandler(prometheus http.Handler, health *services.HealthService, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(nil, false)
	}
	return &MetricsHandler{
		prometheus:   prometheus,
		health:       health,
		errorHandler: errorHandler,
	}
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("metrics endpoint"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// Stats handles GET /api/v1/stats
func (h *MetricsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}
	render.JSON(w, r, h.health.SystemStats(r.Context()))
}
