package domain

// CleanPoints drops points without usable coordinates and keeps the first
// point seen for each name.
func CleanPoints(points []GeoPoint) []GeoPoint {
	seen := make(map[string]struct{}, len(points))
	out := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		if !p.HasCoords() {
			continue
		}
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Located returns the points that carry usable coordinates, keeping
// duplicates.
func Located(points []GeoPoint) []GeoPoint {
	out := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		if p.HasCoords() {
			out = append(out, p)
		}
	}
	return out
}
