// Package geo provides the coordinate primitives shared by the map engine.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Epsilon is the per-axis tolerance, in degrees, used for coordinate equality.
// 1e-6 degrees is roughly 11 cm at the equator.
const Epsilon = 1e-6

// ErrInvalidCoordinates indicates a latitude or longitude out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinate represents a geographic point in WGS84 degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Equal reports whether two coordinates are the same point within Epsilon.
func (c Coordinate) Equal(o Coordinate) bool {
	return math.Abs(c.Lat-o.Lat) < Epsilon && math.Abs(c.Lng-o.Lng) < Epsilon
}

// Validate checks that the coordinate is within valid ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]: %w", c.Lat, ErrInvalidCoordinates)
	}
	if math.IsNaN(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]: %w", c.Lng, ErrInvalidCoordinates)
	}
	return nil
}

// Label formats the coordinate the way the start input shows a map pick.
func (c Coordinate) Label() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}

// Point converts to an orb point. orb uses [lng, lat] order.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Path is an ordered sequence of coordinates.
type Path []Coordinate

// Clone returns an independent copy of the path. A nil path stays nil.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both paths have the same points in the same order.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// LineString converts the path to an orb line string.
func (p Path) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(p))
	for _, c := range p {
		ls = append(ls, c.Point())
	}
	return ls
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	SouthWest Coordinate
	NorthEast Coordinate
}

// Bounds returns the bounding box of the path. The zero Bounds is returned
// for an empty path.
func (p Path) Bounds() Bounds {
	if len(p) == 0 {
		return Bounds{}
	}
	b := p.LineString().Bound()
	return Bounds{
		SouthWest: FromPoint(b.Min),
		NorthEast: FromPoint(b.Max),
	}
}

const earthRadiusMeters = 6371000

// Distance returns the haversine distance between two coordinates in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Length returns the total length of the path in meters.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += Distance(p[i-1], p[i])
	}
	return total
}
