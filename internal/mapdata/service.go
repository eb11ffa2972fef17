package mapdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// emptyDocument is served before the first save.
var emptyDocument = json.RawMessage(`{}`)

// ServiceConfig holds configuration for the map-data service.
type ServiceConfig struct {
	// Repository stores snapshots and reports. Required.
	Repository Repository

	// Publisher fans out urgent reports (optional).
	Publisher Publisher

	// Logger for service operations.
	Logger zerolog.Logger

	// PublishTimeout bounds how long a report publish may take (default: 10 seconds).
	PublishTimeout time.Duration

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service stores the shared map snapshot and urgent reports.
type Service struct {
	repo           Repository
	publisher      Publisher
	logger         zerolog.Logger
	publishTimeout time.Duration
	now            func() time.Time
}

// NewService creates a new map-data service.
func NewService(cfg ServiceConfig) *Service {
	publishTimeout := cfg.PublishTimeout
	if publishTimeout == 0 {
		publishTimeout = 10 * time.Second
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:           cfg.Repository,
		publisher:      cfg.Publisher,
		logger:         cfg.Logger,
		publishTimeout: publishTimeout,
		now:            now,
	}
}

// Snapshot returns the stored snapshot JSON exactly as it was saved, or {}
// when nothing has been saved yet.
func (s *Service) Snapshot(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if raw == nil {
		return emptyDocument, nil
	}
	return raw, nil
}

// Document returns the stored snapshot decoded.
func (s *Service) Document(ctx context.Context) (Document, error) {
	raw, err := s.Snapshot(ctx)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding stored snapshot: %w", err)
	}
	return doc, nil
}

// Save validates raw and replaces the stored snapshot with it. The bytes
// are stored as sent so a later load returns exactly what was saved.
func (s *Service) Save(ctx context.Context, raw []byte) error {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return err
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := s.repo.SaveSnapshot(ctx, compact.Bytes()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	s.logger.Info().
		Int("cctv", len(doc.CCTV)).
		Int("criminal", len(doc.Criminal)).
		Int("safe", len(doc.Safe)).
		Int("urgent_route_points", len(doc.UrgentRoute)).
		Msg("map snapshot saved")
	return nil
}

// DecodeDocument parses and validates a snapshot body. Only a JSON object
// is accepted.
func DecodeDocument(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidDocument)
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ReportUrgent records an urgent help report and publishes it. A publish
// failure is logged; the report stays recorded.
func (s *Service) ReportUrgent(ctx context.Context, req UrgentReportRequest) (*UrgentReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report := &UrgentReport{
		ID:              uuid.New().String(),
		CurrentLocation: req.CurrentLocation,
		Destination:     req.Destination,
		Coords:          req.Coords,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("storing urgent report: %w", err)
	}

	s.logger.Warn().
		Str("report_id", report.ID).
		Str("current_location", report.CurrentLocation).
		Str("destination", report.Destination).
		Msg("urgent help requested")

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, report); err != nil {
			s.logger.Error().
				Err(err).
				Str("report_id", report.ID).
				Msg("failed to publish urgent report")
		}
	}

	return report, nil
}

// Reports returns the most recent urgent reports.
func (s *Service) Reports(ctx context.Context, limit int) ([]*UrgentReport, error) {
	reports, err := s.repo.ListReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing urgent reports: %w", err)
	}
	return reports, nil
}
