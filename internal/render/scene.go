package render

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/saferoute/saferoute/internal/geo"
)

// Scene is an in-memory Adapter. It records what would be on screen and is
// used by tests and by the headless editor.
type Scene struct {
	mu sync.RWMutex

	seq       int
	markers   map[Handle]*Marker
	circles   map[Handle]*Circle
	polylines map[Handle]*Polyline
	order     map[Handle]int
	hidden    map[Layer]bool
	viewport  geo.Bounds
	fitCount  int
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{
		markers:   make(map[Handle]*Marker),
		circles:   make(map[Handle]*Circle),
		polylines: make(map[Handle]*Polyline),
		order:     make(map[Handle]int),
		hidden:    make(map[Layer]bool),
	}
}

func (s *Scene) nextHandle(prefix string) Handle {
	s.seq++
	h := Handle(prefix + "_" + uuid.New().String()[:13])
	s.order[h] = s.seq
	return h
}

// PlaceMarker adds a marker to a layer.
func (s *Scene) PlaceMarker(layer Layer, spec MarkerSpec) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.nextHandle("mrk")
	s.markers[h] = &Marker{Handle: h, Layer: layer, MarkerSpec: spec}
	return h
}

// PlaceCircle adds a circle to a layer.
func (s *Scene) PlaceCircle(layer Layer, center geo.Coordinate, radiusMeters int) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.nextHandle("cir")
	s.circles[h] = &Circle{Handle: h, Layer: layer, Center: center, RadiusMeters: radiusMeters}
	return h
}

// DrawPolyline adds a polyline to a layer.
func (s *Scene) DrawPolyline(layer Layer, path geo.Path, style LineStyle) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.nextHandle("pln")
	s.polylines[h] = &Polyline{Handle: h, Layer: layer, Path: path.Clone(), Style: style}
	return h
}

// FitBounds records the requested viewport.
func (s *Scene) FitBounds(bounds geo.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = bounds
	s.fitCount++
}

// Remove deletes a single item.
func (s *Scene) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.markers, h)
	delete(s.circles, h)
	delete(s.polylines, h)
	delete(s.order, h)
}

// ClearLayer removes every item in a layer.
func (s *Scene) ClearLayer(layer Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, m := range s.markers {
		if m.Layer == layer {
			delete(s.markers, h)
			delete(s.order, h)
		}
	}
	for h, c := range s.circles {
		if c.Layer == layer {
			delete(s.circles, h)
			delete(s.order, h)
		}
	}
	for h, p := range s.polylines {
		if p.Layer == layer {
			delete(s.polylines, h)
			delete(s.order, h)
		}
	}
}

// SetLayerVisible shows or hides a layer.
func (s *Scene) SetLayerVisible(layer Layer, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hidden[layer] = !visible
}

// Visible reports whether a layer is shown. Layers are visible by default.
func (s *Scene) Visible(layer Layer) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.hidden[layer]
}

// Markers returns the markers in a layer in placement order.
func (s *Scene) Markers(layer Layer) []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Marker, 0)
	for _, m := range s.markers {
		if m.Layer == layer {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].Handle] < s.order[out[j].Handle] })
	return out
}

// Circles returns the circles in a layer in placement order.
func (s *Scene) Circles(layer Layer) []Circle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Circle, 0)
	for _, c := range s.circles {
		if c.Layer == layer {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].Handle] < s.order[out[j].Handle] })
	return out
}

// Polylines returns the polylines in a layer in drawing order.
func (s *Scene) Polylines(layer Layer) []Polyline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Polyline, 0)
	for _, p := range s.polylines {
		if p.Layer == layer {
			cpy := *p
			cpy.Path = p.Path.Clone()
			out = append(out, cpy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].Handle] < s.order[out[j].Handle] })
	return out
}

// Viewport returns the last bounds passed to FitBounds and how many times it was called.
func (s *Scene) Viewport() (geo.Bounds, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.viewport, s.fitCount
}

// Ensure Scene implements Adapter.
var _ Adapter = (*Scene)(nil)
