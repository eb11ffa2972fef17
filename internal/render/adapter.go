// Package render defines the map-rendering capability the engine draws through
// and an in-memory Scene implementation of it.
package render

import (
	"github.com/saferoute/saferoute/internal/geo"
)

// Layer is a logical group of drawn items.
type Layer string

const (
	// LayerAssets holds CCTV, safe-location and danger-zone visuals.
	LayerAssets Layer = "assets"
	// LayerRoute holds the route polyline and its role markers.
	LayerRoute Layer = "route"
	// LayerWaypoints holds the via-point markers placed in customize mode.
	LayerWaypoints Layer = "waypoints"
	// LayerUser holds the start-position marker.
	LayerUser Layer = "user"
)

// Icon identifies the marker glyph.
type Icon string

// Marker icons.
const (
	IconUser        Icon = "user"
	IconCCTV        Icon = "cctv"
	IconPolice      Icon = "police"
	IconChauki      Icon = "chauki"
	IconPatrol      Icon = "patrol"
	IconDanger      Icon = "danger"
	IconViaPoint    Icon = "via-point"
	IconWaypoint    Icon = "route-waypoint"
	IconDestination Icon = "route-destination"
)

// Handle identifies one drawn item so it can be removed later.
type Handle string

// MarkerSpec describes a marker to place.
type MarkerSpec struct {
	Position geo.Coordinate
	Icon     Icon
	Popup    string
	// Deletable adds the "Delete Asset" action to the popup.
	Deletable bool
}

// LineStyle describes how a polyline is stroked.
type LineStyle struct {
	Color   string
	Weight  int
	Opacity float64
}

// Route line styles.
var (
	SearchLine = LineStyle{Color: "#1e40af", Weight: 5, Opacity: 0.8}
	UrgentLine = LineStyle{Color: "#ef4444", Weight: 5, Opacity: 0.8}
)

// Adapter is the capability surface the engine needs from a map library.
// Implementations are driven from a single goroutine.
type Adapter interface {
	// PlaceMarker adds a marker to a layer.
	PlaceMarker(layer Layer, spec MarkerSpec) Handle
	// PlaceCircle adds a circle of radiusMeters around center.
	PlaceCircle(layer Layer, center geo.Coordinate, radiusMeters int) Handle
	// DrawPolyline adds a polyline through path.
	DrawPolyline(layer Layer, path geo.Path, style LineStyle) Handle
	// FitBounds moves the viewport so that bounds are visible.
	FitBounds(bounds geo.Bounds)
	// Remove deletes a single item. Unknown handles are ignored.
	Remove(h Handle)
	// ClearLayer removes every item in a layer.
	ClearLayer(layer Layer)
	// SetLayerVisible shows or hides a layer without removing its items.
	SetLayerVisible(layer Layer, visible bool)
	// Markers enumerates the markers currently placed in a layer.
	Markers(layer Layer) []Marker
}

// Marker is a placed marker.
type Marker struct {
	Handle Handle
	Layer  Layer
	MarkerSpec
}

// Circle is a placed circle.
type Circle struct {
	Handle       Handle
	Layer        Layer
	Center       geo.Coordinate
	RadiusMeters int
}

// Polyline is a drawn polyline.
type Polyline struct {
	Handle Handle
	Layer  Layer
	Path   geo.Path
	Style  LineStyle
}
