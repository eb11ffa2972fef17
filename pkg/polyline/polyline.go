// Package polyline implements Google's encoded polyline algorithm.
// The format is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"
)

// DefaultPrecision is the number of decimal places used by Google and Leaflet plugins.
const DefaultPrecision = 5

// ErrMalformed is returned by DecodeStrict when the input ends mid-value
// or has an odd number of values.
var ErrMalformed = errors.New("malformed polyline")

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Encode encodes coordinates using DefaultPrecision.
func Encode(coords []Coordinate) string {
	return EncodeWithPrecision(coords, DefaultPrecision)
}

// Decode decodes a string produced with DefaultPrecision.
// Trailing garbage is ignored; use DecodeStrict to detect it.
func Decode(encoded string) []Coordinate {
	coords, _ := decode(encoded, DefaultPrecision, false)
	return coords
}

// DecodeStrict is Decode but rejects truncated input.
func DecodeStrict(encoded string, precision int) ([]Coordinate, error) {
	return decode(encoded, precision, true)
}

// EncodeWithPrecision encodes coordinates with the given number of decimal places.
func EncodeWithPrecision(coords []Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	buf := make([]byte, 0, len(coords)*6)
	prevLat, prevLng := 0, 0

	for _, c := range coords {
		lat := int(math.Round(c.Lat * factor))
		lng := int(math.Round(c.Lng * factor))

		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return string(buf)
}

func decode(encoded string, precision int, strict bool) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)
	var coords []Coordinate
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		dLat, next, ok := readValue(encoded, index)
		if !ok && strict {
			return nil, ErrMalformed
		}
		index = next
		if index >= len(encoded) && strict {
			return nil, ErrMalformed
		}

		dLng, next, ok := readValue(encoded, index)
		if !ok && strict {
			return nil, ErrMalformed
		}
		index = next

		lat += dLat
		lng += dLng
		coords = append(coords, Coordinate{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}

	return coords, nil
}

// readValue reads one zig-zag encoded value starting at index.
// ok is false when the input ended before the value's final chunk.
func readValue(encoded string, index int) (value, next int, ok bool) {
	shift, result := 0, 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			ok = true
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, ok
	}
	return result >> 1, index, ok
}

func appendValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
