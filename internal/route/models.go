// Package route composes the displayed route from anchors and user waypoints
// and draws it through the render adapter.
package route

import (
	"errors"

	"github.com/saferoute/saferoute/internal/geo"
)

// Sentinel errors for route composition.
var (
	// ErrMissingEndpoints indicates the start or end input is blank.
	ErrMissingEndpoints = errors.New("start and end locations are required")
	// ErrTooFewPoints indicates the composed path has fewer than two points.
	ErrTooFewPoints = errors.New("route needs at least two points")
	// ErrNoRoute indicates an operation needs a drawn route and there is none.
	ErrNoRoute = errors.New("no route currently drawn")
)

// Notices shown to the user for explicit actions.
const (
	NoticeMissingEndpoints = "Please enter both locations"
	NoticeNoRoute          = "No route currently drawn to save!"
	NoticeUrgentSaved      = "Urgent Route Saved! This path will now be used when 'Urgent Help' is toggled."
	NoticeWaypointsCleared = "Custom waypoints cleared. Recalculating..."
)

// Fixed anchors used by urgent mode and the reference path.
var (
	OriginName      = "DJ Sanghvi College"
	DestinationName = "Vile Parle Police Station"

	Origin      = geo.Coordinate{Lat: 19.1075, Lng: 72.8372}
	Destination = geo.Coordinate{Lat: 19.1020, Lng: 72.8450}
)

// DefaultPath returns the reference path from DJ Sanghvi College to
// Vile Parle Police Station, used when no urgent route is saved.
func DefaultPath() geo.Path {
	return geo.Path{
		Origin,
		{Lat: 19.1075, Lng: 72.8360}, // JVPD junction
		{Lat: 19.1050, Lng: 72.8360}, // SV Road south
		{Lat: 19.1020, Lng: 72.8360},
		{Lat: 19.1020, Lng: 72.8400},
		Destination,
	}
}

// Role is the marker role of a point on the composed route.
type Role int

const (
	// RoleNone marks the first point, which gets no marker.
	RoleNone Role = iota
	// RoleWaypoint marks interior points.
	RoleWaypoint
	// RoleDestination marks the last point.
	RoleDestination
)

func (r Role) String() string {
	switch r {
	case RoleWaypoint:
		return "waypoint"
	case RoleDestination:
		return "destination"
	default:
		return "none"
	}
}

// Waypoint is a user-added via-point.
type Waypoint = geo.Coordinate

// Request is the input to Compose.
type Request struct {
	// Start and End are the raw input values; only blankness is checked.
	Start string
	End   string

	// UrgentRoute replaces the reference path when non-empty.
	UrgentRoute geo.Path

	// Waypoints are appended after the base path in click order.
	Waypoints []Waypoint

	// Silent suppresses the user notice on rejection.
	Silent bool
}

// Status is the outcome of a composition.
type Status int

const (
	StatusDrawn Status = iota
	StatusRejected
)

func (s Status) String() string {
	if s == StatusRejected {
		return "rejected"
	}
	return "drawn"
}

// Point is a path point with its marker role.
type Point struct {
	Position geo.Coordinate
	Role     Role
}

// Result is the outcome of Compose.
type Result struct {
	Status Status
	Err    error

	// Notice is the user-facing message. Empty for silent requests.
	Notice string

	Path   geo.Path
	Points []Point

	// Encoded is the path as an encoded polyline (precision 5).
	Encoded string
}

// Drawn reports whether the result carries a path to draw.
func (r Result) Drawn() bool {
	return r.Status == StatusDrawn
}
