package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/geo"
)

func TestCoordinate_Equal(t *testing.T) {
	base := geo.Coordinate{Lat: 19.1075, Lng: 72.8372}

	tests := []struct {
		name  string
		other geo.Coordinate
		want  bool
	}{
		{"identical", base, true},
		{"within epsilon", geo.Coordinate{Lat: 19.1075 + 5e-7, Lng: 72.8372 - 5e-7}, true},
		{"latitude beyond epsilon", geo.Coordinate{Lat: 19.1075 + 2e-6, Lng: 72.8372}, false},
		{"longitude beyond epsilon", geo.Coordinate{Lat: 19.1075, Lng: 72.8372 + 2e-6}, false},
		{"far away", geo.Coordinate{Lat: 19.1020, Lng: 72.8450}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Equal(tt.other))
			assert.Equal(t, tt.want, tt.other.Equal(base))
		})
	}
}

func TestCoordinate_Validate(t *testing.T) {
	require.NoError(t, geo.Coordinate{Lat: 19.1, Lng: 72.8}.Validate())
	assert.ErrorIs(t, geo.Coordinate{Lat: 91, Lng: 0}.Validate(), geo.ErrInvalidCoordinates)
	assert.ErrorIs(t, geo.Coordinate{Lat: 0, Lng: -181}.Validate(), geo.ErrInvalidCoordinates)
}

func TestCoordinate_Label(t *testing.T) {
	assert.Equal(t, "19.1075, 72.8372", geo.Coordinate{Lat: 19.10751, Lng: 72.83719}.Label())
}

func TestPath_Bounds(t *testing.T) {
	path := geo.Path{
		{Lat: 19.1075, Lng: 72.8372},
		{Lat: 19.1020, Lng: 72.8360},
		{Lat: 19.1020, Lng: 72.8450},
	}

	b := path.Bounds()
	assert.InDelta(t, 19.1020, b.SouthWest.Lat, 1e-9)
	assert.InDelta(t, 72.8360, b.SouthWest.Lng, 1e-9)
	assert.InDelta(t, 19.1075, b.NorthEast.Lat, 1e-9)
	assert.InDelta(t, 72.8450, b.NorthEast.Lng, 1e-9)

	assert.Equal(t, geo.Bounds{}, geo.Path{}.Bounds())
}

func TestPath_CloneAndEqual(t *testing.T) {
	path := geo.Path{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	cpy := path.Clone()
	require.True(t, path.Equal(cpy))

	cpy[0].Lat = 9
	assert.False(t, path.Equal(cpy))
	assert.InDelta(t, 1.0, path[0].Lat, 1e-12)
	assert.Nil(t, geo.Path(nil).Clone())
}

func TestPath_Length(t *testing.T) {
	// One degree of latitude is ~111.2 km.
	path := geo.Path{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}}
	assert.InDelta(t, 111195, path.Length(), 100)
	assert.Zero(t, geo.Path{{Lat: 0, Lng: 0}}.Length())
}
