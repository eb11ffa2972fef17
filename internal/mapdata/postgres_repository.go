package mapdata

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS map_snapshots (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS urgent_reports (
	id               UUID PRIMARY KEY,
	current_location TEXT NOT NULL,
	destination      TEXT NOT NULL,
	coords           JSONB,
	created_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS urgent_reports_created_at_idx ON urgent_reports (created_at DESC);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
// The snapshot is a single jsonb row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL map-data repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// GetSnapshot returns the stored snapshot JSON.
func (r *PostgresRepository) GetSnapshot(ctx context.Context) (json.RawMessage, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM map_snapshots WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// SaveSnapshot replaces the stored snapshot.
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, raw json.RawMessage) error {
	query := `
		INSERT INTO map_snapshots (id, document, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query, []byte(raw))
	return err
}

// CreateReport stores an urgent report.
func (r *PostgresRepository) CreateReport(ctx context.Context, report *UrgentReport) error {
	var coords []byte
	if report.Coords != nil {
		var err error
		coords, err = json.Marshal(report.Coords)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO urgent_reports (id, current_location, destination, coords, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.CurrentLocation,
		report.Destination,
		coords,
		report.CreatedAt,
	)
	return err
}

// ListReports returns the most recent urgent reports, newest first.
func (r *PostgresRepository) ListReports(ctx context.Context, limit int) ([]*UrgentReport, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id::text, current_location, destination, coords, created_at
		FROM urgent_reports
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*UrgentReport
	for rows.Next() {
		var report UrgentReport
		var coords []byte
		if err := rows.Scan(
			&report.ID,
			&report.CurrentLocation,
			&report.Destination,
			&coords,
			&report.CreatedAt,
		); err != nil {
			return nil, err
		}
		if coords != nil {
			report.Coords = &ReportLocation{}
			if err := json.Unmarshal(coords, report.Coords); err != nil {
				return nil, err
			}
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
