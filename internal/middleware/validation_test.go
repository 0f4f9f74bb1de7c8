package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "gasrate/internal/errors"
)

type uploadForm struct {
	FileName  string  `form:"file" validate:"required,filename,datafile"`
	Threshold float64 `json:"spike_threshold" validate:"omitempty,gt=0"`
}

func TestValidationMiddleware_ValidateStruct(t *testing.T) {
	m := NewValidationMiddleware(nil, nil)

	tests := []struct {
		name      string
		input     uploadForm
		wantField string
		wantMsg   string
	}{
		{name: "valid csv", input: uploadForm{FileName: "F1_march.csv"}},
		{name: "valid xlsm", input: uploadForm{FileName: "F2.XLSM", Threshold: 500}},
		{name: "missing", input: uploadForm{}, wantField: "file", wantMsg: "file is required"},
		{name: "traversal", input: uploadForm{FileName: "../F1.csv"}, wantField: "file", wantMsg: "plain file name"},
		{name: "wrong type", input: uploadForm{FileName: "notes.txt"}, wantField: "file", wantMsg: ".csv, .xlsx, .xlsm"},
		{name: "negative threshold", input: uploadForm{FileName: "a.csv", Threshold: -1}, wantField: "spike_threshold", wantMsg: "greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
			assert.Contains(t, details.Errors[0].Message, tt.wantMsg)
		})
	}
}

func TestValidationMiddleware_LimitBody(t *testing.T) {
	m := NewValidationMiddleware(nil, nil)

	var readErr error
	h := m.LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		if readErr != nil {
			apierrors.NewErrorHandler(nil, false).HandleError(w, r, readErr)
		}
	}))

	t.Run("declared length over limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("0123456789")))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		var maxErr *http.MaxBytesError
		assert.True(t, errors.As(readErr, &maxErr))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("within limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
		assert.NoError(t, readErr)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestValidationMiddleware_ContentTypeValidator(t *testing.T) {
	m := NewValidationMiddleware(nil, nil)
	h := m.ContentTypeValidator("multipart/form-data")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "get skips check", method: http.MethodGet, want: http.StatusNoContent},
		{name: "multipart accepted", method: http.MethodPost, contentType: "multipart/form-data; boundary=x", want: http.StatusNoContent},
		{name: "missing", method: http.MethodPost, want: http.StatusBadRequest},
		{name: "json rejected", method: http.MethodPost, contentType: "application/json", want: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
