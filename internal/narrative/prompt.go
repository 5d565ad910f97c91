package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insightatlas/insight-atlas/internal/domain"
)

// Separator divides the dashboard JSON from the narrative in a model response.
const Separator = "---NARRATIVE_START---"

// DefaultRole is the opening line of every prompt unless overridden.
const DefaultRole = "You are a geospatial risk intelligence analyst."

// Headings are the narrative sections the model is asked to produce, in order.
var Headings = []string{
	"Event Summary",
	"Spatial Pattern Insight",
	"Severity Interpretation",
	"Predicted Next Impact Zones",
	"Recommended Immediate Actions",
}

// Facts is everything the model may state about an incident.
type Facts struct {
	Locations  []string
	Risks      []string
	Confidence float64
	RiskIndex  float64
	Points     []domain.GeoPoint
	Summary    domain.CitySummary
	Clusters   domain.Clusters
	Insight    domain.SpatialInsight
}

// BuildPrompt renders the constrained instruction text for facts. role
// replaces DefaultRole when non-empty.
func BuildPrompt(facts Facts, role string) string {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}

	var b strings.Builder
	b.WriteString(role)
	b.WriteString("\nFollow every rule below without exception.\n\n")

	b.WriteString("RULES\n")
	b.WriteString("1. Do not create, rename, or add locations. Use only the names in \"Geo points\".\n")
	b.WriteString("2. Do not create or modify coordinates. Use the exact lat/lon given in \"Geo points\".\n")
	b.WriteString("3. Do not create or modify clusters. Use cluster ids exactly as given.\n")
	b.WriteString("4. Do not invent distances, bounding boxes, or risk scores. Use only the values below or obvious calculations on them.\n")
	b.WriteString("5. Do not wrap JSON in backticks or markdown code fences. Output raw JSON only.\n")
	b.WriteString("6. The dashboard must be valid, parseable JSON.\n\n")

	b.WriteString("FACTS (use exactly as given)\n")
	fmt.Fprintf(&b, "Locations: %s\n", encode(nonNil(facts.Locations)))
	fmt.Fprintf(&b, "Risks detected: %s\n", encode(nonNil(facts.Risks)))
	fmt.Fprintf(&b, "Confidence: %s\n", encode(facts.Confidence))
	fmt.Fprintf(&b, "Risk Index Score: %s\n", encode(facts.RiskIndex))
	fmt.Fprintf(&b, "Geo points: %s\n", encode(nonNilPoints(facts.Points)))
	fmt.Fprintf(&b, "City summary: %s\n", encode(nonNilSummary(facts.Summary)))
	fmt.Fprintf(&b, "Clusters: %s\n", encode(nonNilClusters(facts.Clusters)))
	fmt.Fprintf(&b, "Cluster count: %d\n", len(facts.Clusters))
	fmt.Fprintf(&b, "Bounding box: %s\n", encode(domain.BoundingBox(facts.Points)))
	fmt.Fprintf(&b, "Farthest distance: %s km\n", encode(facts.Insight.MaxDistanceKM))
	fmt.Fprintf(&b, "Closest distance: %s km\n\n", encode(facts.Insight.MinDistanceKM))

	b.WriteString("DASHBOARD JSON STRUCTURE\n")
	b.WriteString(dashboardSchema(facts))
	b.WriteString("\n\n")

	b.WriteString("NARRATIVE SECTIONS (markdown headings starting with a single #)\n")
	for i, h := range Headings {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	b.WriteString("Tone: crisp, analytical, executive-friendly, zero fluff.\n\n")

	b.WriteString("OUTPUT FORMAT\n")
	b.WriteString("1. First output the dashboard JSON (raw JSON, no code fences).\n")
	fmt.Fprintf(&b, "2. Then output exactly: %s\n", Separator)
	b.WriteString("3. Then output the narrative.\n\n")
	b.WriteString("Example:\n{\n  \"title\": \"...\"\n}\n")
	b.WriteString(Separator)
	fmt.Fprintf(&b, "\n# %s\n...\n", Headings[0])

	return b.String()
}

func dashboardSchema(facts Facts) string {
	return fmt.Sprintf(`{
  "title": "Geospatial Risk Intelligence Report",
  "event": {
    "locations": %s,
    "risks": %s,
    "confidence": %s,
    "summary": "<short summary>"
  },
  "map_layers": {
    "points": [
      {"name": "<from geo points>", "lat": <float>, "lon": <float>, "risk_score": <float>, "cluster_id": <int>}
    ],
    "risk_radius_km": <float>,
    "bounding_box": {"min_lat": <float>, "max_lat": <float>, "min_lon": <float>, "max_lon": <float>}
  },
  "spatial_insights": ["<insight 1>", "<insight 2>", "<insight 3>"],
  "predicted_impact_zones": [
    {"name": "<area>", "reason": "<why>"}
  ],
  "risk_interpretation": {
    "severity_level": "<Low/Moderate/High>",
    "explanation": "<reason>",
    "factors": ["<factor 1>", "<factor 2>"]
  },
  "recommended_actions": ["<action 1>", "<action 2>", "<action 3>", "<action 4>"]
}`, encode(nonNil(facts.Locations)), encode(nonNil(facts.Risks)), encode(facts.Confidence))
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPoints(p []domain.GeoPoint) []domain.GeoPoint {
	if p == nil {
		return []domain.GeoPoint{}
	}
	return p
}

func nonNilSummary(s domain.CitySummary) domain.CitySummary {
	if s == nil {
		return domain.CitySummary{}
	}
	return s
}

func nonNilClusters(c domain.Clusters) domain.Clusters {
	if c == nil {
		return domain.Clusters{}
	}
	return c
}
