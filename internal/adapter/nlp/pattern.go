package nlp

import (
	"context"
	"regexp"
	"strings"

	"github.com/insightatlas/insight-atlas/internal/domain"
)

var (
	// A run of capitalized words following a spatial preposition.
	locationPattern = regexp.MustCompile(`\b(?:in|at|near|across|from|around|outside|towards?|throughout)[ \t]+([A-Z][\p{L}'-]*(?:[ \t]+[A-Z][\p{L}'-]*)*)`)
	// A run of capitalized words ending in an institutional noun.
	organizationPattern = regexp.MustCompile(`\b((?:[A-Z][\p{L}&-]*[ \t]+)*(?:Department|Ministry|Agency|Authority|Corporation|Council|Committee|Commission|Services|Board|Police|Hospital|University|Force|Inc\.?|Ltd\.?|Corp\.?))\b`)
)

// PatternExtractor is a dependency-free EntityExtractor used when no NLP
// service is configured. It recognizes capitalized place names after spatial
// prepositions and organizations ending in an institutional noun.
type PatternExtractor struct{}

// NewPatternExtractor creates a PatternExtractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

func (PatternExtractor) Extract(_ context.Context, text string) (domain.Entities, error) {
	var b entityBuilder

	orgs := organizationPattern.FindAllStringSubmatch(text, -1)
	orgNames := make(map[string]struct{}, len(orgs))
	for _, m := range orgs {
		name := strings.TrimPrefix(strings.TrimSpace(m[1]), "The ")
		orgNames[name] = struct{}{}
		b.addOrganization(name, "ORG")
	}

	for _, m := range locationPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimRight(strings.TrimSpace(m[1]), ".'")
		if _, isOrg := orgNames[name]; isOrg {
			continue
		}
		b.addLocation(name, "LOC")
	}
	return b.result(), nil
}
