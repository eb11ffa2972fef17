package response_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
)

// withRequestID runs h behind the RequestID middleware.
func withRequestID(h http.HandlerFunc) http.Handler {
	return middleware.RequestID(h)
}

func TestJSON_IncludesRequestID(t *testing.T) {
	h := withRequestID(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, models.StatusResponse{Status: models.StatusSuccess})
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/get_map_data", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-Id"), "req_"))
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	response.JSON(rec, req, http.StatusAccepted, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
	assert.Empty(t, rec.Body.String())
}

func TestRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	response.Raw(rec, req, http.StatusOK, "application/geo+json", []byte(`{"type":"FeatureCollection"}`))

	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"type":"FeatureCollection"}`, rec.Body.String())
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) { response.BadRequest(w, r, "bad", nil) }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "missing") }, http.StatusNotFound},
		{"method", func(w http.ResponseWriter, r *http.Request) { response.MethodNotAllowed(w, r, "no") }, http.StatusMethodNotAllowed},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") }, http.StatusInternalServerError},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "down") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			withRequestID(tt.write).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", http.NoBody))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var p models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, "/api/x", p.Instance)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), p.TraceID)
		})
	}
}

func TestDecode(t *testing.T) {
	var got models.StatusResponse
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"received","id":"abc"}`))

	require.NoError(t, response.Decode(rec, req, &got))
	assert.Equal(t, "abc", got.ID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":`))
	assert.Error(t, response.Decode(rec, req, &got))
}

func TestReadBody_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, response.MaxBodyBytes+1)))

	_, err := response.ReadBody(rec, req)
	assert.ErrorIs(t, err, response.ErrBodyTooLarge)
}
