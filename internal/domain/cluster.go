package domain

import "math"

// Default clustering parameters, in degrees and points.
const (
	DefaultClusterEpsilon   = 0.3
	DefaultClusterMinPoints = 1
)

// Cluster groups points with DBSCAN over (lat, lon) treated as a flat plane.
// Fewer than two points yields an empty mapping. A point counts toward its
// own neighborhood, so minPoints <= 1 makes every point a core point.
func Cluster(points []GeoPoint, eps float64, minPoints int) Clusters {
	clusters := make(Clusters)
	if len(points) < 2 {
		return clusters
	}
	if minPoints < 1 {
		minPoints = 1
	}

	const unvisited = -2
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}

	next := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPoints {
			labels[i] = NoiseCluster
			continue
		}

		id := next
		next++
		labels[i] = id

		// Expand the cluster breadth-first from the seed's neighborhood.
		queue := append([]int(nil), neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == NoiseCluster {
				labels[j] = id // border point
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = id

			more := regionQuery(points, j, eps)
			if len(more) >= minPoints {
				queue = append(queue, more...)
			}
		}
	}

	for i, p := range points {
		clusters[labels[i]] = append(clusters[labels[i]], p)
	}
	return clusters
}

// regionQuery returns the indexes within eps of points[i], including i.
func regionQuery(points []GeoPoint, i int, eps float64) []int {
	var out []int
	for j := range points {
		if planarDistance(points[i], points[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}

func planarDistance(a, b GeoPoint) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}
