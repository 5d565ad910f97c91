package narrative

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/insightatlas/insight-atlas/internal/domain"
)

var (
	quoteReplacer = strings.NewReplacer(
		"'", `"`,
		"‘", `"`,
		"’", `"`,
		"“", `"`,
		"”", `"`,
	)
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// Parse splits a model response into its dashboard object and narrative
// sections. It never panics: malformed dashboards degrade to an
// {"error": reason} object and the narrative text is always kept.
func Parse(raw string) (report domain.NarrativeReport) {
	defer func() {
		if r := recover(); r != nil {
			report = domain.NarrativeReport{
				Dashboard: map[string]any{"error": fmt.Sprintf("response parsing failed: %v", r)},
				Narrative: domain.Narrative{Raw: raw, Sections: domain.Sections{}},
				Tier:      domain.DecodeRecovered,
			}
		}
	}()

	head, tail, found := strings.Cut(raw, Separator)
	narrativeRaw := tail
	if !found {
		narrativeRaw = raw
	}

	dashboard, tier := decodeDashboard(head)
	return domain.NarrativeReport{
		Dashboard: dashboard,
		Narrative: domain.Narrative{Raw: narrativeRaw, Sections: splitSections(tail)},
		Tier:      tier,
	}
}

// decodeDashboard tries a strict decode, then one with quotes normalized,
// then the widest brace-delimited span with quotes normalized.
func decodeDashboard(head string) (map[string]any, domain.DecodeTier) {
	obj, err := decodeObject(head)
	if err == nil {
		return obj, domain.DecodeStrict
	}

	normalized := quoteReplacer.Replace(head)
	if obj, lerr := decodeObject(normalized); lerr == nil {
		return obj, domain.DecodeLenient
	}

	if span := objectPattern.FindString(head); span != "" {
		obj, xerr := decodeObject(quoteReplacer.Replace(span))
		if xerr == nil {
			return obj, domain.DecodeExtracted
		}
		err = xerr
	}

	return map[string]any{"error": "dashboard is not valid JSON: " + err.Error()}, domain.DecodeFailed
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("expected a JSON object, got null")
	}
	return obj, nil
}

// splitSections splits narrative text on lines that open with exactly one
// '#'. Text before the first heading is ignored.
func splitSections(text string) domain.Sections {
	sections := domain.Sections{}
	var (
		title   string
		body    []string
		inBlock bool
	)
	flush := func() {
		if inBlock {
			sections.Set(title, trimBlankLines(body))
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if isHeading(line) {
			flush()
			title = strings.TrimSpace(line[1:])
			body = body[:0]
			inBlock = true
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##")
}

func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
