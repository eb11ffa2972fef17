// Package mapdata stores the shared map snapshot and urgent help reports, and
// defines the JSON shape both sides of the map-data API agree on.
package mapdata

import (
	"errors"
	"fmt"
	"time"

	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/geo"
)

// Sentinel errors for map-data operations.
var (
	// ErrInvalidDocument indicates a snapshot body that is not a valid map document.
	ErrInvalidDocument = errors.New("invalid map document")
	// ErrInvalidReport indicates an urgent report missing required fields.
	ErrInvalidReport = errors.New("invalid urgent report")
)

// CCTVRecord is a camera on the wire.
type CCTVRecord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	ID  string  `json:"id"`
}

// DangerRecord is a danger zone on the wire. Type carries the label.
type DangerRecord struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Type   string  `json:"type"`
	Radius int     `json:"radius"`
}

// SafeRecord is a safe location on the wire.
type SafeRecord struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Document is the map snapshot as JSON. A nil slice is an absent (or null)
// field; an empty slice is an explicitly empty collection.
type Document struct {
	CCTV        []CCTVRecord   `json:"cctv"`
	Criminal    []DangerRecord `json:"criminal"`
	Safe        []SafeRecord   `json:"safe"`
	UrgentRoute [][2]float64   `json:"urgentRoute"`
}

// FromSnapshot converts a snapshot to its wire form, preserving absent fields.
func FromSnapshot(s asset.Snapshot) Document {
	var doc Document
	if s.CCTV != nil {
		doc.CCTV = make([]CCTVRecord, 0, len(s.CCTV))
		for _, c := range s.CCTV {
			doc.CCTV = append(doc.CCTV, CCTVRecord{Lat: c.Position.Lat, Lng: c.Position.Lng, ID: c.ID})
		}
	}
	if s.Criminal != nil {
		doc.Criminal = make([]DangerRecord, 0, len(s.Criminal))
		for _, d := range s.Criminal {
			doc.Criminal = append(doc.Criminal, DangerRecord{
				Lat: d.Position.Lat, Lng: d.Position.Lng, Type: d.Label, Radius: d.RadiusMeters,
			})
		}
	}
	if s.Safe != nil {
		doc.Safe = make([]SafeRecord, 0, len(s.Safe))
		for _, l := range s.Safe {
			doc.Safe = append(doc.Safe, SafeRecord{
				Name: l.Name, Type: string(l.Kind), Lat: l.Position.Lat, Lng: l.Position.Lng,
			})
		}
	}
	if s.UrgentRoute != nil {
		doc.UrgentRoute = make([][2]float64, 0, len(s.UrgentRoute))
		for _, p := range s.UrgentRoute {
			doc.UrgentRoute = append(doc.UrgentRoute, [2]float64{p.Lat, p.Lng})
		}
	}
	return doc
}

// Snapshot converts the document to a snapshot, preserving absent fields.
func (d Document) Snapshot() asset.Snapshot {
	var s asset.Snapshot
	if d.CCTV != nil {
		s.CCTV = make([]asset.CCTV, 0, len(d.CCTV))
		for _, c := range d.CCTV {
			s.CCTV = append(s.CCTV, asset.CCTV{ID: c.ID, Position: geo.Coordinate{Lat: c.Lat, Lng: c.Lng}})
		}
	}
	if d.Criminal != nil {
		s.Criminal = make([]asset.DangerZone, 0, len(d.Criminal))
		for _, c := range d.Criminal {
			s.Criminal = append(s.Criminal, asset.DangerZone{
				Label: c.Type, Position: geo.Coordinate{Lat: c.Lat, Lng: c.Lng}, RadiusMeters: c.Radius,
			})
		}
	}
	if d.Safe != nil {
		s.Safe = make([]asset.SafeLocation, 0, len(d.Safe))
		for _, l := range d.Safe {
			s.Safe = append(s.Safe, asset.SafeLocation{
				Name: l.Name, Kind: asset.SafeKind(l.Type), Position: geo.Coordinate{Lat: l.Lat, Lng: l.Lng},
			})
		}
	}
	if d.UrgentRoute != nil {
		s.UrgentRoute = make(geo.Path, 0, len(d.UrgentRoute))
		for _, p := range d.UrgentRoute {
			s.UrgentRoute = append(s.UrgentRoute, geo.Coordinate{Lat: p[0], Lng: p[1]})
		}
	}
	return s
}

// Validate checks every coordinate and radius in the document.
func (d Document) Validate() error {
	for i, c := range d.CCTV {
		if err := (geo.Coordinate{Lat: c.Lat, Lng: c.Lng}).Validate(); err != nil {
			return fmt.Errorf("%w: cctv[%d]: %w", ErrInvalidDocument, i, err)
		}
	}
	for i, c := range d.Criminal {
		if err := (geo.Coordinate{Lat: c.Lat, Lng: c.Lng}).Validate(); err != nil {
			return fmt.Errorf("%w: criminal[%d]: %w", ErrInvalidDocument, i, err)
		}
		if c.Radius < 0 {
			return fmt.Errorf("%w: criminal[%d]: negative radius %d", ErrInvalidDocument, i, c.Radius)
		}
	}
	for i, l := range d.Safe {
		if err := (geo.Coordinate{Lat: l.Lat, Lng: l.Lng}).Validate(); err != nil {
			return fmt.Errorf("%w: safe[%d]: %w", ErrInvalidDocument, i, err)
		}
	}
	for i, p := range d.UrgentRoute {
		if err := (geo.Coordinate{Lat: p[0], Lng: p[1]}).Validate(); err != nil {
			return fmt.Errorf("%w: urgentRoute[%d]: %w", ErrInvalidDocument, i, err)
		}
	}
	return nil
}

// ReportLocation is the named start point sent with an urgent report.
type ReportLocation struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// UrgentReportRequest is the body of an urgent help report.
type UrgentReportRequest struct {
	CurrentLocation string          `json:"current_location"`
	Destination     string          `json:"destination"`
	Coords          *ReportLocation `json:"coords,omitempty"`
}

// Validate checks the report has enough to act on.
func (r UrgentReportRequest) Validate() error {
	if r.CurrentLocation == "" && r.Coords == nil {
		return fmt.Errorf("%w: current_location or coords is required", ErrInvalidReport)
	}
	if r.Coords != nil {
		if err := (geo.Coordinate{Lat: r.Coords.Lat, Lng: r.Coords.Lng}).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReport, err)
		}
	}
	return nil
}

// UrgentReport is a stored urgent help report.
type UrgentReport struct {
	ID              string          `json:"id"`
	CurrentLocation string          `json:"current_location"`
	Destination     string          `json:"destination"`
	Coords          *ReportLocation `json:"coords,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
