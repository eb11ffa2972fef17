package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/saferoute/saferoute/internal/api/middleware"
)

func TestRateLimitByIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: 30 * time.Second}
	h := middleware.RateLimitByIP(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/report_urgent", http.NoBody)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	// Another client has its own budget.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestRateLimitByEndpoint(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute}

	r := chi.NewRouter()
	r.Use(middleware.RateLimitByEndpoint(cfg))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Get("/api/get_map_data", ok)
	r.Get("/api/map_data.geojson", ok)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/api/get_map_data"))
	assert.Equal(t, http.StatusTooManyRequests, get("/api/get_map_data"))
	assert.Equal(t, http.StatusOK, get("/api/map_data.geojson"))
}

func TestRateLimitDefaults(t *testing.T) {
	assert.Less(t, middleware.ReportRateLimit.RequestLimit, middleware.SaveRateLimit.RequestLimit)
	assert.Less(t, middleware.SaveRateLimit.RequestLimit, middleware.StandardRateLimit.RequestLimit)
}
