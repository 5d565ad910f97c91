package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull_Square(t *testing.T) {
	points := []GeoPoint{
		{Name: "sw", Lat: 0.1, Lon: 0.1},
		{Name: "ne", Lat: 1, Lon: 1},
		{Name: "center", Lat: 0.5, Lon: 0.5},
		{Name: "nw", Lat: 1, Lon: 0.1},
		{Name: "se", Lat: 0.1, Lon: 1},
	}

	hull := ConvexHull(points)

	require.Len(t, hull, 4)
	names := make([]string, len(hull))
	for i, p := range hull {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"sw", "se", "ne", "nw"}, names)
}

func TestConvexHull_Degenerate(t *testing.T) {
	assert.Nil(t, ConvexHull(nil))
	assert.Nil(t, ConvexHull([]GeoPoint{vellore, katpadi}))
	assert.Nil(t, ConvexHull([]GeoPoint{vellore, vellore, vellore}))

	collinear := []GeoPoint{
		{Lat: 1, Lon: 1},
		{Lat: 2, Lon: 2},
		{Lat: 3, Lon: 3},
	}
	assert.Nil(t, ConvexHull(collinear))
}

func TestConvexHull_DoesNotMutateInput(t *testing.T) {
	points := []GeoPoint{chennai, vellore, madurai}
	before := append([]GeoPoint(nil), points...)

	ConvexHull(points)

	assert.Equal(t, before, points)
}
