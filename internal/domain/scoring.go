package domain

import "math"

// defaultRiskWeight applies to any category missing from riskWeights.
const defaultRiskWeight = 0.5

var riskWeights = map[string]float64{
	"flood":          0.8,
	"fire":           0.9,
	"protest":        0.6,
	"health":         1.0,
	"infrastructure": 0.7,
}

// RiskWeight returns the severity weight for a risk category.
func RiskWeight(label string) float64 {
	if w, ok := riskWeights[label]; ok {
		return w
	}
	return defaultRiskWeight
}

// Score computes the risk index: the mean label weight (duplicates counted)
// times confidence, scaled to [0, 100] and rounded to two decimals. Confidence
// is clamped to [0, 1]. No labels scores 0.
func Score(risks []string, confidence float64) float64 {
	if len(risks) == 0 {
		return 0
	}
	confidence = clamp(confidence, 0, 1)

	var total float64
	for _, r := range risks {
		total += RiskWeight(r)
	}
	avg := total / float64(len(risks))
	return round2(avg * confidence * 100)
}

// Summarize counts occurrences per point name and stamps every city with the
// global score.
func Summarize(points []GeoPoint, score float64) CitySummary {
	summary := make(CitySummary)
	for _, p := range points {
		stats := summary[p.Name]
		stats.Events++
		stats.RiskScore = score
		summary[p.Name] = stats
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
