package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPoint_HasCoords(t *testing.T) {
	tests := []struct {
		name     string
		point    GeoPoint
		expected bool
	}{
		{"valid", vellore, true},
		{"origin is treated as missing", GeoPoint{Name: "Null Island"}, false},
		{"latitude out of range", GeoPoint{Lat: 91, Lon: 10}, false},
		{"longitude out of range", GeoPoint{Lat: 10, Lon: -181}, false},
		{"NaN", GeoPoint{Lat: math.NaN(), Lon: 10}, false},
		{"infinite", GeoPoint{Lat: 10, Lon: math.Inf(1)}, false},
		{"equator is fine", GeoPoint{Lat: 0, Lon: 32.58}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.point.HasCoords())
		})
	}
}

func TestCleanPoints(t *testing.T) {
	moved := GeoPoint{Name: "Vellore", Lat: 1, Lon: 1}
	missing := GeoPoint{Name: "Nowhere"}

	out := CleanPoints([]GeoPoint{vellore, missing, katpadi, moved})

	assert.Equal(t, []GeoPoint{vellore, katpadi}, out)
}

func TestCleanPoints_MissingFirstDoesNotShadowLaterMatch(t *testing.T) {
	out := CleanPoints([]GeoPoint{{Name: "Vellore"}, vellore})
	assert.Equal(t, []GeoPoint{vellore}, out)
}

func TestLocated_KeepsDuplicates(t *testing.T) {
	out := Located([]GeoPoint{vellore, {Name: "Nowhere"}, vellore})
	assert.Equal(t, []GeoPoint{vellore, vellore}, out)
}
