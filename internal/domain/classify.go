package domain

import (
	"context"
	"math"
	"regexp"
)

// riskPatterns lists categories in the order they are reported. Keywords are
// matched case-insensitively on word starts so "flooding" hits "flood".
var riskPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"flood", regexp.MustCompile(`(?i)\b(flood\w*|inundat\w*|submerged|deluge|heavy rain\w*|waterlog\w*|overflow\w*)`)},
	{"fire", regexp.MustCompile(`(?i)\b(fire\w*|wildfire\w*|blaze\w*|burn\w*|arson|smoke)`)},
	{"protest", regexp.MustCompile(`(?i)\b(protest\w*|demonstrat\w*|riot\w*|rally|rallies|unrest|agitation)`)},
	{"health", regexp.MustCompile(`(?i)\b(outbreak\w*|epidemic\w*|pandemic\w*|disease\w*|infect\w*|cholera|dengue|malaria|hospitali[sz]\w*)`)},
	{"infrastructure", regexp.MustCompile(`(?i)\b(infrastructure|bridges?|roads?|power outage\w*|blackout\w*|collaps\w*|pipeline burst)`)},
	{"earthquake", regexp.MustCompile(`(?i)\b(earthquake\w*|tremor\w*|seismic)`)},
	{"storm", regexp.MustCompile(`(?i)\b(cyclone\w*|hurricane\w*|typhoon\w*|storm\w*|tornado\w*)`)},
}

const (
	baseKeywordConfidence = 0.5
	perHitConfidence      = 0.1
	maxKeywordConfidence  = 0.95
)

// KeywordClassifier is a RiskClassifier that matches category keyword
// patterns. Confidence grows with the number of keyword hits.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (KeywordClassifier) Classify(_ context.Context, text string) (RiskAssessment, error) {
	var risks []string
	hits := 0
	for _, p := range riskPatterns {
		n := len(p.re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		risks = append(risks, p.label)
		hits += n
	}
	if len(risks) == 0 {
		return RiskAssessment{Risks: []string{}}, nil
	}

	conf := math.Min(maxKeywordConfidence, baseKeywordConfidence+perHitConfidence*float64(hits))
	return RiskAssessment{Risks: risks, Confidence: round2(conf)}, nil
}
