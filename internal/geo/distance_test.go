package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_SamePointIsZero(t *testing.T) {
	p := Point{Latitude: -6.1754, Longitude: 106.8272}
	assert.Zero(t, DistanceMeters(p, p))
}

func TestDistanceMeters_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		want      float64
		tolerance float64
	}{
		{
			name:      "Monas to Bundaran HI",
			a:         Point{Latitude: -6.1754, Longitude: 106.8272},
			b:         Point{Latitude: -6.1931, Longitude: 106.8230},
			want:      2020,
			tolerance: 100,
		},
		{
			name:      "Jakarta to Surabaya",
			a:         Point{Latitude: -6.2088, Longitude: 106.8456},
			b:         Point{Latitude: -7.2575, Longitude: 112.7521},
			want:      663000,
			tolerance: 5000,
		},
		{
			name:      "one degree of latitude at the equator",
			a:         Point{Latitude: 0, Longitude: 106},
			b:         Point{Latitude: 1, Longitude: 106},
			want:      111195,
			tolerance: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceMeters(tt.a, tt.b), tt.tolerance)
		})
	}
}

func TestDistanceMeters_IsSymmetric(t *testing.T) {
	a := Point{Latitude: -6.1754, Longitude: 106.8272}
	b := Point{Latitude: -6.1931, Longitude: 106.8230}

	assert.InDelta(t, DistanceMeters(a, b), DistanceMeters(b, a), 1e-9)
}

func TestDistanceKm(t *testing.T) {
	a := Point{Latitude: 0, Longitude: 106}
	b := Point{Latitude: 1, Longitude: 106}

	assert.InDelta(t, 111.195, DistanceKm(a, b), 0.2)
}
