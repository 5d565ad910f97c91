package domain

import "sort"

// ConvexHull returns the hull of the points in counter-clockwise order using
// Andrew's monotone chain, treating lon as x and lat as y. Collinear points
// on the boundary are dropped. Fewer than three distinct points returns nil.
func ConvexHull(points []GeoPoint) []GeoPoint {
	pts := make([]GeoPoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Lon != pts[j].Lon {
			return pts[i].Lon < pts[j].Lon
		}
		return pts[i].Lat < pts[j].Lat
	})
	pts = dedupeCoords(pts)
	if len(pts) < 3 {
		return nil
	}

	hull := make([]GeoPoint, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}
	return hull
}

func cross(o, a, b GeoPoint) float64 {
	return (a.Lon-o.Lon)*(b.Lat-o.Lat) - (a.Lat-o.Lat)*(b.Lon-o.Lon)
}

func dedupeCoords(sorted []GeoPoint) []GeoPoint {
	out := make([]GeoPoint, 0, len(sorted))
	for _, p := range sorted {
		if n := len(out); n > 0 && out[n-1].Lat == p.Lat && out[n-1].Lon == p.Lon {
			continue
		}
		out = append(out, p)
	}
	return out
}
