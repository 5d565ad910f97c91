package domain

import "math"

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points in km.
func HaversineKM(a, b GeoPoint) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

// PairwiseExtremes returns the farthest and closest pairwise distances. Each
// distance is rounded to two decimals before comparison. Fewer than two
// points yields zeros.
func PairwiseExtremes(points []GeoPoint) SpatialInsight {
	var insight SpatialInsight
	first := true
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			d := round2(HaversineKM(points[i], points[j]))
			if first {
				insight.MaxDistanceKM, insight.MinDistanceKM = d, d
				first = false
				continue
			}
			insight.MaxDistanceKM = math.Max(insight.MaxDistanceKM, d)
			insight.MinDistanceKM = math.Min(insight.MinDistanceKM, d)
		}
	}
	return insight
}

// Bounds is a lat/lon bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// BoundingBox returns the smallest box containing every point. The zero box
// is returned for no points.
func BoundingBox(points []GeoPoint) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLat: points[0].Lat, MaxLat: points[0].Lat, MinLon: points[0].Lon, MaxLon: points[0].Lon}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
