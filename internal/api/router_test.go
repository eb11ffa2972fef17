package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/api"
	"github.com/saferoute/saferoute/internal/api/handler"
	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/mapdata"
	"github.com/saferoute/saferoute/internal/persistence"
)

type recordingPublisher struct {
	mu      sync.Mutex
	reports []*mapdata.UrgentReport
}

func (p *recordingPublisher) Publish(_ context.Context, report *mapdata.UrgentReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, report)
	return nil
}

type testServer struct {
	handler   http.Handler
	repo      *mapdata.InMemoryRepository
	publisher *recordingPublisher
}

func newTestServer(checks map[string]handler.Check) *testServer {
	logger := zerolog.New(io.Discard)
	ts := &testServer{
		repo:      mapdata.NewInMemoryRepository(),
		publisher: &recordingPublisher{},
	}
	service := mapdata.NewService(mapdata.ServiceConfig{
		Repository: ts.repo,
		Publisher:  ts.publisher,
		Logger:     logger,
	})
	ts.handler = api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    logger,
		MapData:   service,
		Checks:    checks,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := newTestServer(nil).do(t, http.MethodGet, "/ops/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]handler.Check
		wantCode   int
		wantStatus models.HealthStatus
	}{
		{"no checks", nil, http.StatusOK, models.HealthStatusOK},
		{
			"healthy database",
			map[string]handler.Check{"database": func(context.Context) error { return nil }},
			http.StatusOK, models.HealthStatusOK,
		},
		{
			"database down",
			map[string]handler.Check{
				"database": func(context.Context) error { return errors.New("connection refused") },
				"pubsub":   func(context.Context) error { return nil },
			},
			http.StatusServiceUnavailable, models.HealthStatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestServer(tt.checks).do(t, http.MethodGet, "/ops/ready", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			var health models.Health
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
			assert.Equal(t, tt.wantStatus, health.Status)
		})
	}
}

func TestSystemStatus(t *testing.T) {
	ts := newTestServer(map[string]handler.Check{
		"pubsub":   func(context.Context) error { return nil },
		"database": func(context.Context) error { return errors.New("timeout") },
	})

	rec := ts.do(t, http.MethodGet, "/ops/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusFail, status.Status)
	require.Len(t, status.Subsystems, 2)
	assert.Equal(t, "database", status.Subsystems[0].Name)
	require.NotNil(t, status.Subsystems[0].Detail)
	assert.Equal(t, "timeout", *status.Subsystems[0].Detail)
	assert.Equal(t, models.HealthStatusOK, status.Subsystems[1].Status)
}

func TestGetMapData_EmptyBeforeFirstSave(t *testing.T) {
	rec := newTestServer(nil).do(t, http.MethodGet, "/api/get_map_data", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestSaveMapData_ThenGet(t *testing.T) {
	ts := newTestServer(nil)
	body := `{"cctv":[{"lat":19.1,"lng":72.8,"id":"CCTV-9"}],"criminal":[{"lat":19.1,"lng":72.84,"type":"Manual Report","radius":200}],"safe":[],"urgentRoute":null}`

	rec := ts.do(t, http.MethodPost, "/api/save_map_data", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/get_map_data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, body, rec.Body.String())
}

func TestSaveMapData_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"cctv":`},
		{"array", `[]`},
		{"bad latitude", `{"cctv":[{"lat":95,"lng":72.8,"id":"x"}]}`},
		{"negative radius", `{"criminal":[{"lat":19,"lng":72,"type":"x","radius":-1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(nil)
			rec := ts.do(t, http.MethodPost, "/api/save_map_data", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			// Nothing was stored.
			rec = ts.do(t, http.MethodGet, "/api/get_map_data", "")
			assert.JSONEq(t, `{}`, rec.Body.String())
		})
	}
}

func TestSaveMapData_RejectsNonJSONContentType(t *testing.T) {
	ts := newTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/save_map_data", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestReportUrgent(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(t, http.MethodPost, "/api/report_urgent",
		`{"current_location":"DJ Sanghvi College","destination":"Vile Parle Police Station","coords":{"name":"DJ Sanghvi College","lat":19.1075,"lng":72.8372}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var ack models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, models.StatusReceived, ack.Status)
	assert.NotEmpty(t, ack.ID)

	ts.publisher.mu.Lock()
	require.Len(t, ts.publisher.reports, 1)
	assert.Equal(t, ack.ID, ts.publisher.reports[0].ID)
	ts.publisher.mu.Unlock()

	rec = ts.do(t, http.MethodGet, "/api/urgent_reports?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []mapdata.UrgentReport `json:"items"`
		Limit int                    `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Vile Parle Police Station", list.Items[0].Destination)
	assert.Equal(t, 5, list.Limit)
}

func TestReportUrgent_Invalid(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(t, http.MethodPost, "/api/report_urgent", `{"destination":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/report_urgent", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/urgent_reports?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeoJSONExport(t *testing.T) {
	ts := newTestServer(nil)
	ts.do(t, http.MethodPost, "/api/save_map_data",
		`{"cctv":[{"lat":19.1,"lng":72.8,"id":"CCTV-9"}],"safe":[{"name":"Juhu Chauki","type":"chauki","lat":19.09,"lng":72.83}]}`)

	rec := ts.do(t, http.MethodGet, "/api/map_data.geojson", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	// GeoJSON positions are [lng, lat].
	assert.Equal(t, []float64{72.8, 19.1}, fc.Features[0].Geometry.Coordinates)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = ts.do(t, http.MethodDelete, "/api/get_map_data", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReportUrgent_RateLimited(t *testing.T) {
	ts := newTestServer(nil)
	body := `{"current_location":"a","destination":"b"}`

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = ts.do(t, http.MethodPost, "/api/report_urgent", body)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

// TestGatewayRoundTrip drives the editor's persistence gateway against the
// real router: a load after a save yields the saved snapshot.
func TestGatewayRoundTrip(t *testing.T) {
	srv := httptest.NewServer(newTestServer(nil).handler)
	defer srv.Close()

	gw := persistence.NewGateway(persistence.GatewayConfig{
		Config: persistence.Config{BaseURL: srv.URL, RequestTimeout: 2 * time.Second, MaxRetries: 1},
		Logger: zerolog.Nop(),
	})
	defer gw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap := asset.Snapshot{
		CCTV:     []asset.CCTV{{ID: "CCTV-1", Position: geo.Coordinate{Lat: 19.1072, Lng: 72.8375}}},
		Criminal: []asset.DangerZone{{Label: "Manual Report", Position: geo.Coordinate{Lat: 19.10, Lng: 72.84}, RadiusMeters: 200}},
		Safe:     []asset.SafeLocation{},
		UrgentRoute: geo.Path{
			{Lat: 19.1075, Lng: 72.8372},
			{Lat: 19.1020, Lng: 72.8450},
		},
	}
	gw.Save(ctx, snap)
	require.NoError(t, gw.Flush(ctx))

	got, err := gw.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap, *got)

	// Saving the empty snapshot and reloading resets the map.
	gw.Save(ctx, asset.Empty())
	got, err = gw.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, asset.Empty(), *got)

	stats := gw.Stats()
	assert.Equal(t, 2, int(stats.SavesSent))
	assert.Zero(t, stats.SavesFailed)
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "req_from_client")
	rec := httptest.NewRecorder()

	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req_from_client", rec.Header().Get("X-Request-Id"))
}
