package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/render"
)

func TestScene_PlaceAndRemove(t *testing.T) {
	scene := render.NewScene()
	pos := geo.Coordinate{Lat: 19.1055, Lng: 72.8395}

	m := scene.PlaceMarker(render.LayerAssets, render.MarkerSpec{Position: pos, Icon: render.IconDanger})
	c := scene.PlaceCircle(render.LayerAssets, pos, 150)
	require.NotEqual(t, m, c)

	markers := scene.Markers(render.LayerAssets)
	require.Len(t, markers, 1)
	assert.Equal(t, render.IconDanger, markers[0].Icon)
	require.Len(t, scene.Circles(render.LayerAssets), 1)
	assert.Equal(t, 150, scene.Circles(render.LayerAssets)[0].RadiusMeters)

	scene.Remove(m)
	assert.Empty(t, scene.Markers(render.LayerAssets))
	assert.Len(t, scene.Circles(render.LayerAssets), 1)

	// Unknown handles are ignored.
	scene.Remove("mrk_missing")
}

func TestScene_MarkersKeepPlacementOrder(t *testing.T) {
	scene := render.NewScene()
	for i := 0; i < 5; i++ {
		scene.PlaceMarker(render.LayerRoute, render.MarkerSpec{
			Position: geo.Coordinate{Lat: float64(i), Lng: 0},
		})
	}

	markers := scene.Markers(render.LayerRoute)
	require.Len(t, markers, 5)
	for i, m := range markers {
		assert.InDelta(t, float64(i), m.Position.Lat, 1e-12)
	}
}

func TestScene_ClearLayerOnlyTouchesThatLayer(t *testing.T) {
	scene := render.NewScene()
	scene.PlaceMarker(render.LayerAssets, render.MarkerSpec{Icon: render.IconCCTV})
	scene.PlaceCircle(render.LayerAssets, geo.Coordinate{}, 100)
	scene.PlaceMarker(render.LayerRoute, render.MarkerSpec{Icon: render.IconDestination})
	scene.DrawPolyline(render.LayerRoute, geo.Path{{Lat: 1}, {Lat: 2}}, render.SearchLine)

	scene.ClearLayer(render.LayerAssets)

	assert.Empty(t, scene.Markers(render.LayerAssets))
	assert.Empty(t, scene.Circles(render.LayerAssets))
	assert.Len(t, scene.Markers(render.LayerRoute), 1)
	assert.Len(t, scene.Polylines(render.LayerRoute), 1)
}

func TestScene_VisibilityAndViewport(t *testing.T) {
	scene := render.NewScene()
	assert.True(t, scene.Visible(render.LayerAssets))

	scene.SetLayerVisible(render.LayerAssets, false)
	assert.False(t, scene.Visible(render.LayerAssets))

	bounds := geo.Path{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}.Bounds()
	scene.FitBounds(bounds)
	got, count := scene.Viewport()
	assert.Equal(t, bounds, got)
	assert.Equal(t, 1, count)
}

func TestScene_PolylineIsCopied(t *testing.T) {
	scene := render.NewScene()
	path := geo.Path{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	scene.DrawPolyline(render.LayerRoute, path, render.UrgentLine)

	path[0].Lat = 99
	lines := scene.Polylines(render.LayerRoute)
	require.Len(t, lines, 1)
	assert.InDelta(t, 1.0, lines[0].Path[0].Lat, 1e-12)
	assert.Equal(t, render.UrgentLine, lines[0].Style)
}
