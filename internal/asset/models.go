// Package asset holds the map assets (cameras, safe locations, danger zones)
// that the map draws and persists.
package asset

import (
	"github.com/saferoute/saferoute/internal/geo"
)

// Type is an asset type an admin can place.
type Type string

const (
	TypeCCTV   Type = "cctv"
	TypePolice Type = "police"
	TypeChauki Type = "chauki"
	TypePatrol Type = "patrol"
	TypeDanger Type = "danger"
)

// Valid reports whether t is a placeable asset type.
func (t Type) Valid() bool {
	switch t {
	case TypeCCTV, TypePolice, TypeChauki, TypePatrol, TypeDanger:
		return true
	}
	return false
}

// SafeKind is the kind of a safe location.
type SafeKind string

const (
	KindPolice SafeKind = "police"
	KindChauki SafeKind = "chauki"
	KindPatrol SafeKind = "patrol"
)

// Collection names one of the three asset collections. The values match the
// snapshot field names.
type Collection string

const (
	CollectionCCTV     Collection = "cctv"
	CollectionCriminal Collection = "criminal"
	CollectionSafe     Collection = "safe"
)

// Danger zone radius limits, in meters.
const (
	MinDangerRadius     = 50
	MaxDangerRadius     = 500
	DefaultDangerRadius = 150
)

// CCTV is a camera.
type CCTV struct {
	ID       string
	Position geo.Coordinate
}

// SafeLocation is a police station, chauki or patrol vehicle.
type SafeLocation struct {
	Name     string
	Kind     SafeKind
	Position geo.Coordinate
}

// DangerZone is a reported hotspot drawn as a marker plus a circle.
type DangerZone struct {
	Label        string
	Position     geo.Coordinate
	RadiusMeters int
}

// Snapshot is the unit of persistence.
//
// A nil field means the field is absent. Store.Snapshot always returns
// non-nil asset slices; UrgentRoute is nil when no urgent route is saved.
type Snapshot struct {
	CCTV        []CCTV
	Criminal    []DangerZone
	Safe        []SafeLocation
	UrgentRoute geo.Path
}

// Empty returns a snapshot with every asset collection present and empty.
func Empty() Snapshot {
	return Snapshot{
		CCTV:     []CCTV{},
		Criminal: []DangerZone{},
		Safe:     []SafeLocation{},
	}
}

// Clone returns a deep copy, preserving nil (absent) fields.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{UrgentRoute: s.UrgentRoute.Clone()}
	if s.CCTV != nil {
		out.CCTV = append(make([]CCTV, 0, len(s.CCTV)), s.CCTV...)
	}
	if s.Criminal != nil {
		out.Criminal = append(make([]DangerZone, 0, len(s.Criminal)), s.Criminal...)
	}
	if s.Safe != nil {
		out.Safe = append(make([]SafeLocation, 0, len(s.Safe)), s.Safe...)
	}
	return out
}

// Counts is the number of assets per collection.
type Counts struct {
	CCTV     int
	Criminal int
	Safe     int
}

// Removed describes the asset taken out by Store.Remove.
type Removed struct {
	Collection Collection
	Position   geo.Coordinate
	Label      string
}
