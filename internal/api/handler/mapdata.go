package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/api/models"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/mapdata"
)

const (
	defaultReportLimit = 50
	maxReportLimit     = 200
)

// MapDataHandler serves the shared map snapshot and urgent reports.
type MapDataHandler struct {
	service *mapdata.Service
	logger  zerolog.Logger
}

// NewMapDataHandler creates a MapDataHandler.
func NewMapDataHandler(service *mapdata.Service, logger zerolog.Logger) *MapDataHandler {
	return &MapDataHandler{service: service, logger: logger}
}

// GetMapData handles GET /api/get_map_data. It returns the stored snapshot
// as saved, or {} before the first save.
func (h *MapDataHandler) GetMapData(w http.ResponseWriter, r *http.Request) {
	raw, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("failed to load snapshot")
		response.InternalError(w, r, "failed to load map data")
		return
	}
	response.Raw(w, r, http.StatusOK, "application/json", raw)
}

// SaveMapData handles POST /api/save_map_data. The body replaces the stored
// snapshot.
func (h *MapDataHandler) SaveMapData(w http.ResponseWriter, r *http.Request) {
	body, err := response.ReadBody(w, r)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	if err := h.service.Save(r.Context(), body); err != nil {
		if errors.Is(err, mapdata.ErrInvalidDocument) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("failed to save snapshot")
		response.InternalError(w, r, "failed to save map data")
		return
	}

	response.JSON(w, r, http.StatusOK, models.StatusResponse{Status: models.StatusSuccess})
}

// ReportUrgent handles POST /api/report_urgent.
func (h *MapDataHandler) ReportUrgent(w http.ResponseWriter, r *http.Request) {
	var req mapdata.UrgentReportRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	report, err := h.service.ReportUrgent(r.Context(), req)
	if err != nil {
		if errors.Is(err, mapdata.ErrInvalidReport) {
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "current_location", Message: "current_location or coords is required", Code: "REQUIRED"},
			})
			return
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("failed to record urgent report")
		response.InternalError(w, r, "failed to record report")
		return
	}

	response.JSON(w, r, http.StatusOK, models.StatusResponse{Status: models.StatusReceived, ID: report.ID})
}

// ListReports handles GET /api/urgent_reports?limit=N, newest first.
func (h *MapDataHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxReportLimit {
			response.BadRequest(w, r, "limit must be between 1 and 200", []models.FieldError{
				{Field: "limit", Message: "out of range", Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = n
	}

	reports, err := h.service.Reports(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list urgent reports")
		response.InternalError(w, r, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []*mapdata.UrgentReport{}
	}
	response.JSON(w, r, http.StatusOK, models.ReportList{Items: reports, Limit: limit})
}

// GeoJSON handles GET /api/map_data.geojson.
func (h *MapDataHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	fc, err := h.service.GeoJSON(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build geojson")
		response.InternalError(w, r, "failed to export map data")
		return
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		response.InternalError(w, r, "failed to export map data")
		return
	}
	response.Raw(w, r, http.StatusOK, "application/geo+json", body)
}
