package route

import (
	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/render"
)

const (
	popupDestination = "Safe Destination\nPolice Station"
	popupWaypoint    = "Safe Waypoint\nCCTV Coverage"
	popupViaPoint    = "Custom Waypoint"
	popupStart       = "You are here"
)

// Layer owns the route visuals: one polyline, its role markers, the
// customize via-point markers and the start marker. Drawing a new route
// replaces the previous one.
type Layer struct {
	renderer render.Adapter

	line    render.Handle
	path    geo.Path
	markers []render.Handle
	via     []render.Handle
	start   render.Handle
}

// NewLayer creates a route layer drawing through renderer.
func NewLayer(renderer render.Adapter) *Layer {
	return &Layer{renderer: renderer}
}

// Draw replaces the current route with res and fits the viewport to it.
// Rejected results leave the current drawing untouched.
func (l *Layer) Draw(res Result, style render.LineStyle) {
	if !res.Drawn() {
		return
	}
	l.Clear()

	l.line = l.renderer.DrawPolyline(render.LayerRoute, res.Path, style)
	l.path = res.Path.Clone()
	l.renderer.FitBounds(res.Path.Bounds())

	for _, p := range res.Points {
		var spec render.MarkerSpec
		switch p.Role {
		case RoleDestination:
			spec = render.MarkerSpec{Position: p.Position, Icon: render.IconDestination, Popup: popupDestination}
		case RoleWaypoint:
			spec = render.MarkerSpec{Position: p.Position, Icon: render.IconWaypoint, Popup: popupWaypoint}
		default:
			continue
		}
		l.markers = append(l.markers, l.renderer.PlaceMarker(render.LayerRoute, spec))
	}
}

// Clear removes the polyline and its role markers.
func (l *Layer) Clear() {
	if l.line != "" {
		l.renderer.Remove(l.line)
		l.line = ""
	}
	for _, h := range l.markers {
		l.renderer.Remove(h)
	}
	l.markers = nil
	l.path = nil
}

// Path returns the drawn path, or nil when nothing is drawn.
func (l *Layer) Path() geo.Path {
	return l.path.Clone()
}

// HasRoute reports whether a route is drawn.
func (l *Layer) HasRoute() bool {
	return l.line != ""
}

// AddViaPoint marks a customize click.
func (l *Layer) AddViaPoint(pos geo.Coordinate) {
	l.via = append(l.via, l.renderer.PlaceMarker(render.LayerWaypoints, render.MarkerSpec{
		Position: pos,
		Icon:     render.IconViaPoint,
		Popup:    popupViaPoint,
	}))
}

// ClearViaPoints removes every via-point marker.
func (l *Layer) ClearViaPoints() {
	for _, h := range l.via {
		l.renderer.Remove(h)
	}
	l.via = nil
}

// SetStart moves the start marker to pos.
func (l *Layer) SetStart(pos geo.Coordinate) {
	if l.start != "" {
		l.renderer.Remove(l.start)
	}
	l.start = l.renderer.PlaceMarker(render.LayerUser, render.MarkerSpec{
		Position: pos,
		Icon:     render.IconUser,
		Popup:    popupStart,
	})
}
