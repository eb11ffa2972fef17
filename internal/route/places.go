package route

import (
	"strings"

	"github.com/saferoute/saferoute/internal/geo"
)

// PlaceType categorizes a named place.
type PlaceType string

const (
	PlaceLandmark PlaceType = "landmark"
	PlacePolice   PlaceType = "police"
	PlaceTransit  PlaceType = "transit"
)

// Place is a named location offered as a start or end suggestion.
type Place struct {
	Name     string
	Type     PlaceType
	Position geo.Coordinate
}

// Places is a searchable list of named places.
type Places []Place

// DefaultPlaces returns the built-in suggestions around Vile Parle.
func DefaultPlaces() Places {
	return Places{
		{"DJ Sanghvi College", PlaceLandmark, Origin},
		{"Vile Parle Police Station", PlacePolice, Destination},
		{"Juhu Police Station", PlacePolice, geo.Coordinate{Lat: 19.1050, Lng: 72.8280}},
		{"Santacruz Police Station", PlacePolice, geo.Coordinate{Lat: 19.0840, Lng: 72.8360}},
		{"Andheri Police Station", PlacePolice, geo.Coordinate{Lat: 19.1190, Lng: 72.8460}},
		{"Khar Police Station", PlacePolice, geo.Coordinate{Lat: 19.0700, Lng: 72.8340}},
		{"Bandra Police Station", PlacePolice, geo.Coordinate{Lat: 19.0550, Lng: 72.8300}},
		{"Vile Parle Station (East)", PlaceTransit, geo.Coordinate{Lat: 19.1000, Lng: 72.8430}},
		{"Vile Parle Station (West)", PlaceTransit, geo.Coordinate{Lat: 19.1000, Lng: 72.8420}},
		{"Andheri Station", PlaceTransit, geo.Coordinate{Lat: 19.1195, Lng: 72.8465}},
		{"Santacruz Station", PlaceTransit, geo.Coordinate{Lat: 19.0820, Lng: 72.8400}},
		{"Juhu Beach", PlaceLandmark, geo.Coordinate{Lat: 19.0980, Lng: 72.8260}},
		{"Versova Beach", PlaceLandmark, geo.Coordinate{Lat: 19.1300, Lng: 72.8150}},
		{"Mithibai College", PlaceLandmark, geo.Coordinate{Lat: 19.1030, Lng: 72.8380}},
		{"NMIMS University", PlaceLandmark, geo.Coordinate{Lat: 19.1035, Lng: 72.8375}},
		{"PVR Juhu", PlaceLandmark, geo.Coordinate{Lat: 19.1060, Lng: 72.8290}},
		{"JW Marriott Juhu", PlaceLandmark, geo.Coordinate{Lat: 19.1010, Lng: 72.8250}},
		{"Infinity Mall Andheri", PlaceLandmark, geo.Coordinate{Lat: 19.1400, Lng: 72.8300}},
	}
}

// Search returns the places whose name contains query, case-insensitively,
// in list order. A blank query matches nothing.
func (p Places) Search(query string) []Place {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []Place
	for _, place := range p {
		if strings.Contains(strings.ToLower(place.Name), q) {
			matches = append(matches, place)
		}
	}
	return matches
}

// Lookup returns the place with exactly this name, ignoring case.
func (p Places) Lookup(name string) (Place, bool) {
	name = strings.TrimSpace(name)
	for _, place := range p {
		if strings.EqualFold(place.Name, name) {
			return place, true
		}
	}
	return Place{}, false
}
