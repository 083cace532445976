package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         Point{Lat: 6.5, Lng: 3.3},
			b:         Point{Lat: 6.5, Lng: 3.3},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "lagos to abuja",
			a:         Point{Lat: 6.5244, Lng: 3.3792},
			b:         Point{Lat: 9.0765, Lng: 7.3986},
			wantKm:    523,
			tolerance: 15,
		},
		{
			name:      "short hop within a city",
			a:         Point{Lat: 6.5, Lng: 3.3},
			b:         Point{Lat: 6.51, Lng: 3.31},
			wantKm:    1.57,
			tolerance: 0.1,
		},
		{
			name:      "across the antimeridian",
			a:         Point{Lat: 0, Lng: 179.5},
			b:         Point{Lat: 0, Lng: -179.5},
			wantKm:    111.2,
			tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.a, tt.b)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestHaversineDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 6.5244, Lng: 3.3792}
	b := Point{Lat: 9.0765, Lng: 7.3986}

	assert.Equal(t, HaversineDistance(a, b), HaversineDistance(b, a))
}

func TestWithinRadius(t *testing.T) {
	pickup := Point{Lat: 6.5, Lng: 3.3}

	ok, err := WithinRadius(pickup, Point{Lat: 6.51, Lng: 3.31}, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	// roughly 50km north
	ok, err = WithinRadius(pickup, Point{Lat: 6.95, Lng: 3.3}, 0.01)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithinRadiusSymmetric(t *testing.T) {
	a := Point{Lat: 6.5, Lng: 3.3}
	b := Point{Lat: 6.52, Lng: 3.33}

	for _, radius := range []float64{0.01, 1, 5, 100} {
		ab, err := WithinRadius(a, b, radius)
		require.NoError(t, err)
		ba, err := WithinRadius(b, a, radius)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	}
}

func TestWithinRadiusInvalidCoordinates(t *testing.T) {
	valid := Point{Lat: 6.5, Lng: 3.3}

	tests := []struct {
		name  string
		point Point
		field string
	}{
		{"latitude too high", Point{Lat: 91, Lng: 0}, "latitude"},
		{"latitude too low", Point{Lat: -90.5, Lng: 0}, "latitude"},
		{"longitude too high", Point{Lat: 0, Lng: 180.1}, "longitude"},
		{"longitude too low", Point{Lat: 0, Lng: -181}, "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WithinRadius(valid, tt.point, 5)
			require.Error(t, err)

			var coordErr *InvalidCoordinateError
			require.ErrorAs(t, err, &coordErr)
			assert.Equal(t, tt.field, coordErr.Field)

			// order of arguments must not matter for validation either
			_, err = WithinRadius(tt.point, valid, 5)
			require.Error(t, err)
		})
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	center := Point{Lat: 6.5, Lng: 3.3}
	bbox := GetBoundingBox(center, 5)

	// any point within the radius must be inside the box
	near := Point{Lat: 6.51, Lng: 3.31}
	assert.True(t, IsPointInBoundingBox(near, bbox))

	far := Point{Lat: 7.5, Lng: 3.3}
	assert.False(t, IsPointInBoundingBox(far, bbox))
}
