package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaces_Search(t *testing.T) {
	places := DefaultPlaces()

	tests := []struct {
		query string
		want  []string
	}{
		{"juhu", []string{"Juhu Police Station", "Juhu Beach", "PVR Juhu", "JW Marriott Juhu"}},
		{"VILE PARLE", []string{"Vile Parle Police Station", "Vile Parle Station (East)", "Vile Parle Station (West)"}},
		{"nowhere", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, p := range places.Search(tt.query) {
				got = append(got, p.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaces_Lookup(t *testing.T) {
	places := DefaultPlaces()

	p, ok := places.Lookup("dj sanghvi college")
	require.True(t, ok)
	assert.True(t, p.Position.Equal(Origin))
	assert.Equal(t, PlaceLandmark, p.Type)

	_, ok = places.Lookup("DJ Sanghvi")
	assert.False(t, ok)
}
