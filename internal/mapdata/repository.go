package mapdata

import (
	"context"
	"encoding/json"
)

// Repository defines the interface for map-data persistence.
type Repository interface {
	// GetSnapshot returns the stored snapshot JSON, or nil when nothing
	// has been saved yet.
	GetSnapshot(ctx context.Context) (json.RawMessage, error)

	// SaveSnapshot replaces the stored snapshot with raw.
	SaveSnapshot(ctx context.Context, raw json.RawMessage) error

	// CreateReport stores an urgent report.
	CreateReport(ctx context.Context, report *UrgentReport) error

	// ListReports returns the most recent urgent reports, newest first.
	ListReports(ctx context.Context, limit int) ([]*UrgentReport, error)
}
