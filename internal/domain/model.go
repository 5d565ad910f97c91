package domain

import (
	"math"
	"time"
)

// NoiseCluster is the cluster id reserved for points that belong to no dense
// neighborhood.
const NoiseCluster = -1

// GeoPoint is a named WGS-84 coordinate produced by the geocoding stage.
type GeoPoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// HasCoords reports whether both coordinates are present and within range.
func (p GeoPoint) HasCoords() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	if p.Lat == 0 && p.Lon == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Entity is a single named-entity mention with its recognizer label.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Entities is the output of an EntityExtractor. Locations and Organizations
// are deduplicated and keep first-seen order.
type Entities struct {
	Locations     []string `json:"locations"`
	Organizations []string `json:"organizations"`
	Entities      []Entity `json:"entities"`
}

// RiskAssessment is the output of a RiskClassifier.
type RiskAssessment struct {
	Risks      []string `json:"risks"`
	Confidence float64  `json:"confidence"`
}

// Clusters maps a call-scoped cluster id to its member points.
type Clusters map[int][]GeoPoint

// CityStats is the per-city entry of a CitySummary.
type CityStats struct {
	Events    int     `json:"events"`
	RiskScore float64 `json:"risk_score"`
}

// CitySummary maps a city name to its event count and risk score.
type CitySummary map[string]CityStats

// SpatialInsight holds the farthest and closest pairwise distances in km.
type SpatialInsight struct {
	MaxDistanceKM float64 `json:"max_distance_km"`
	MinDistanceKM float64 `json:"min_distance_km"`
}

// DecodeTier records which parser stage produced the dashboard object.
type DecodeTier string

const (
	DecodeStrict    DecodeTier = "strict"
	DecodeLenient   DecodeTier = "lenient"
	DecodeExtracted DecodeTier = "extracted"
	DecodeFailed    DecodeTier = "failed"
	DecodeRecovered DecodeTier = "recovered"
)

// Narrative is the free-text half of a model response.
type Narrative struct {
	Raw      string   `json:"raw"`
	Sections Sections `json:"sections"`
}

// BackendStatus describes how the generative-text call went. Reason is empty
// on success.
type BackendStatus struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NarrativeReport is the parsed model response. Dashboard always holds an
// object: the decoded JSON, or {"error": reason} when decoding failed.
type NarrativeReport struct {
	Dashboard map[string]any `json:"dashboard"`
	Narrative Narrative      `json:"narrative"`
	Tier      DecodeTier     `json:"decode_tier"`
	Backend   *BackendStatus `json:"backend,omitempty"`
}

// DashboardError returns the failure reason stored in an error placeholder
// dashboard, if any.
func (r NarrativeReport) DashboardError() (string, bool) {
	if r.Tier != DecodeFailed && r.Tier != DecodeRecovered {
		return "", false
	}
	msg, ok := r.Dashboard["error"].(string)
	return msg, ok
}

// ScoredRisk is a RiskAssessment together with its computed index.
type ScoredRisk struct {
	RiskAssessment
	RiskIndex float64 `json:"risk_index"`
}

// AnalysisResult is the full response for one analyzed incident text.
type AnalysisResult struct {
	ID             string          `json:"id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Entities       Entities        `json:"entities"`
	Risk           ScoredRisk      `json:"risk"`
	GeoPoints      []GeoPoint      `json:"geo_points"`
	Clusters       Clusters        `json:"clusters"`
	CitySummary    CitySummary     `json:"city_summary"`
	SpatialInsight SpatialInsight  `json:"spatial_insight"`
	Story          NarrativeReport `json:"story"`
	MapHTML        string          `json:"map_html,omitempty"`
}
