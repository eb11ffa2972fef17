package mapdata

import (
	"context"
	"encoding/json"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local runs. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	snapshot json.RawMessage
	reports  []*UrgentReport
}

// NewInMemoryRepository creates a new in-memory map-data repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// GetSnapshot returns the stored snapshot JSON.
func (r *InMemoryRepository) GetSnapshot(_ context.Context) (json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.snapshot == nil {
		return nil, nil
	}
	return append(json.RawMessage(nil), r.snapshot...), nil
}

// SaveSnapshot replaces the stored snapshot.
func (r *InMemoryRepository) SaveSnapshot(_ context.Context, raw json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshot = append(json.RawMessage(nil), raw...)
	return nil
}

// CreateReport stores an urgent report.
func (r *InMemoryRepository) CreateReport(_ context.Context, report *UrgentReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *report
	r.reports = append(r.reports, &cpy)
	return nil
}

// ListReports returns the most recent urgent reports, newest first.
func (r *InMemoryRepository) ListReports(_ context.Context, limit int) ([]*UrgentReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	out := make([]*UrgentReport, 0, min(limit, len(r.reports)))
	for i := len(r.reports) - 1; i >= 0 && len(out) < limit; i-- {
		cpy := *r.reports[i]
		out = append(out, &cpy)
	}
	return out, nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
