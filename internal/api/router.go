// Package api provides the HTTP API that stores the shared SafeRoute map.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/handler"
	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/mapdata"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	MapData     *mapdata.Service

	// Checks are run by /ops/ready and /ops/status, keyed by subsystem name.
	Checks map[string]handler.Check

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a chi router with every route configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "saferoute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, r.Method+" is not supported on "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Checks)
	mapDataHandler := handler.NewMapDataHandler(cfg.MapData, cfg.Logger)

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	// Paths match what the map client already calls.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByEndpoint(middleware.StandardRateLimit))
			r.Get("/get_map_data", mapDataHandler.GetMapData)
			r.Get("/map_data.geojson", mapDataHandler.GeoJSON)
			r.Get("/urgent_reports", mapDataHandler.ListReports)
		})

		r.With(middleware.RateLimitByEndpoint(middleware.SaveRateLimit)).
			Post("/save_map_data", mapDataHandler.SaveMapData)
		r.With(middleware.RateLimitByIP(middleware.ReportRateLimit)).
			Post("/report_urgent", mapDataHandler.ReportUrgent)
	})

	return r
}
