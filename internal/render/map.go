// Package render draws analysis results as a standalone Leaflet HTML map.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/insightatlas/insight-atlas/internal/domain"
)

// Marker colors by city risk score.
const (
	ColorHigh   = "red"
	ColorMedium = "orange"
	ColorLow    = "green"
)

// RiskColor maps a risk score to a marker color: above 75 red, above 40
// orange, otherwise green.
func RiskColor(score float64) string {
	switch {
	case score > 75:
		return ColorHigh
	case score > 40:
		return ColorMedium
	default:
		return ColorLow
	}
}

type marker struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Risk   float64 `json:"risk"`
	Events int     `json:"events"`
	Color  string  `json:"color"`
}

type polygon struct {
	Cluster int          `json:"cluster"`
	Coords  [][2]float64 `json:"coords"`
}

type mapData struct {
	Center   [2]float64
	Markers  []marker
	Lines    []polygon
	Hulls    []polygon
	Heat     [][3]float64
	Clusters int
}

// MapRenderer renders points, per-city stats, and clusters to HTML.
type MapRenderer struct {
	tmpl *template.Template
}

// NewMapRenderer parses the page template.
func NewMapRenderer() *MapRenderer {
	return &MapRenderer{tmpl: template.Must(template.New("map").Parse(pageTemplate))}
}

// Render returns a complete HTML document, or "" when there are no points.
func (r *MapRenderer) Render(points []domain.GeoPoint, summary domain.CitySummary, clusters domain.Clusters) (string, error) {
	if len(points) == 0 {
		return "", nil
	}

	data := buildMapData(points, summary, clusters)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render map: %w", err)
	}
	return buf.String(), nil
}

func buildMapData(points []domain.GeoPoint, summary domain.CitySummary, clusters domain.Clusters) mapData {
	data := mapData{Clusters: len(clusters)}
	var sumLat, sumLon float64
	for _, p := range points {
		stats := summary[p.Name]
		data.Markers = append(data.Markers, marker{
			Name:   p.Name,
			Lat:    p.Lat,
			Lon:    p.Lon,
			Risk:   stats.RiskScore,
			Events: stats.Events,
			Color:  RiskColor(stats.RiskScore),
		})
		data.Heat = append(data.Heat, [3]float64{p.Lat, p.Lon, heatWeight(stats.RiskScore)})
		sumLat += p.Lat
		sumLon += p.Lon
	}
	data.Center = [2]float64{sumLat / float64(len(points)), sumLon / float64(len(points))}

	for _, id := range sortedIDs(clusters) {
		members := clusters[id]
		if len(members) >= 2 {
			data.Lines = append(data.Lines, polygon{Cluster: id, Coords: latLons(members)})
		}
		if id == domain.NoiseCluster || len(members) < 3 {
			continue
		}
		if hull := domain.ConvexHull(members); hull != nil {
			data.Hulls = append(data.Hulls, polygon{Cluster: id, Coords: latLons(hull)})
		}
	}
	return data
}

func heatWeight(score float64) float64 {
	if score <= 0 {
		return 0.1
	}
	return score / 100
}

func sortedIDs(clusters domain.Clusters) []int {
	ids := make([]int, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func latLons(points []domain.GeoPoint) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p.Lat, p.Lon}
	}
	return out
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Insight Atlas</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map" data-clusters="{{.Clusters}}"></div>
<script>
var center = {{.Center}};
var markers = {{.Markers}};
var lines = {{.Lines}};
var hulls = {{.Hulls}};
var heat = {{.Heat}};

var map = L.map("map").setView(center, 6);
L.tileLayer("https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", {
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);

// Popups are built from text nodes so place names are never parsed as HTML.
function popup(m) {
  var el = document.createElement("div");
  var name = document.createElement("b");
  name.textContent = m.name;
  el.appendChild(name);
  [["Risk", m.risk], ["Events", m.events]].forEach(function (row) {
    el.appendChild(document.createElement("br"));
    el.appendChild(document.createTextNode(row[0] + ": " + row[1]));
  });
  return el;
}

(markers || []).forEach(function (m) {
  L.circleMarker([m.lat, m.lon], {radius: 8, color: m.color, fillColor: m.color, fillOpacity: 0.8})
    .bindPopup(popup(m))
    .addTo(map);
});
(lines || []).forEach(function (l) {
  L.polyline(l.coords, {color: "blue", weight: 2, opacity: 0.6}).addTo(map);
});
(hulls || []).forEach(function (h) {
  L.polygon(h.coords, {color: "#3186cc", fillColor: "#3186cc", opacity: 0.4, weight: 2, fillOpacity: 0.2})
    .bindTooltip("Cluster " + h.cluster)
    .addTo(map);
});
if (heat && heat.length && L.heatLayer) {
  L.heatLayer(heat, {radius: 25}).addTo(map);
}
</script>
</body>
</html>
`
