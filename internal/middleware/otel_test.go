package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"gasrate/internal/infrastructure"
)

func TestOTelMiddleware(t *testing.T) {
	newRouter := func(t *testing.T) (*chi.Mux, *tracetest.SpanRecorder) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		m := NewOTelMiddleware(&infrastructure.OTelProviders{Tracer: tp.Tracer("test")}, nil)
		r := chi.NewRouter()
		r.Use(m.Handler)
		r.Get("/api/v1/analyses/{runID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		return r, recorder
	}

	tests := []struct {
		path      string
		wantName  string
		wantError bool
	}{
		{path: "/api/v1/analyses/run-1", wantName: "GET /api/v1/analyses/{runID}"},
		{path: "/boom", wantName: "GET /boom", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, recorder := newRouter(t)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantName, spans[0].Name())
			if tt.wantError {
				assert.Equal(t, codes.Error, spans[0].Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
			}
		})
	}
}

func TestOTelMiddleware_NilProviders(t *testing.T) {
	m := NewOTelMiddleware(nil, nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
