package narrative

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightatlas/insight-atlas/internal/domain"
)

func TestParse_RoundTrip(t *testing.T) {
	report := Parse(`{"title":"Report","count":2}` + Separator + "#Heading\nbody")

	assert.Equal(t, domain.DecodeStrict, report.Tier)
	assert.Equal(t, map[string]any{"title": "Report", "count": 2.0}, report.Dashboard)
	assert.Equal(t, domain.Sections{{Title: "Heading", Body: "body"}}, report.Narrative.Sections)
	assert.Equal(t, "#Heading\nbody", report.Narrative.Raw)
}

func TestParse_LenientSingleQuotes(t *testing.T) {
	report := Parse("{'title': 'Flood watch', 'event': {'risks': ['flood']}}\n" + Separator + "\n# Event Summary\nRain.")

	assert.Equal(t, domain.DecodeLenient, report.Tier)
	assert.Equal(t, "Flood watch", report.Dashboard["title"])
	assert.Equal(t, map[string]any{"risks": []any{"flood"}}, report.Dashboard["event"])
}

func TestParse_LenientCurlyQuotes(t *testing.T) {
	report := Parse("{“title”: “Storm”}" + Separator)

	assert.Equal(t, domain.DecodeLenient, report.Tier)
	assert.Equal(t, "Storm", report.Dashboard["title"])
}

func TestParse_ExtractsFromFencedJSON(t *testing.T) {
	head := "Here is the dashboard:\n```json\n{\"title\": \"Fenced\", \"nested\": {\"a\": 1}}\n```\n"
	report := Parse(head + Separator + "\n# Event Summary\nDetails.")

	assert.Equal(t, domain.DecodeExtracted, report.Tier)
	assert.Equal(t, "Fenced", report.Dashboard["title"])
	assert.Equal(t, map[string]any{"a": 1.0}, report.Dashboard["nested"])
}

func TestParse_FailureKeepsNarrative(t *testing.T) {
	tail := "\n# Event Summary\nStill readable."
	report := Parse("{\"title\": " + Separator + tail)

	assert.Equal(t, domain.DecodeFailed, report.Tier)
	msg, ok := report.DashboardError()
	require.True(t, ok)
	assert.NotEmpty(t, msg)
	assert.Equal(t, tail, report.Narrative.Raw)
	assert.Equal(t, domain.Sections{{Title: "Event Summary", Body: "Still readable."}}, report.Narrative.Sections)
}

func TestParse_NoSeparator(t *testing.T) {
	input := "LLM Request Failed: status 401: unauthorized"
	report := Parse(input)

	assert.Equal(t, domain.DecodeFailed, report.Tier)
	assert.Equal(t, input, report.Narrative.Raw)
	assert.Empty(t, report.Narrative.Sections)
	assert.Contains(t, report.Dashboard, "error")
}

func TestParse_NoSeparatorButValidJSON(t *testing.T) {
	input := `{"title":"Only JSON"}`
	report := Parse(input)

	assert.Equal(t, domain.DecodeStrict, report.Tier)
	assert.Equal(t, "Only JSON", report.Dashboard["title"])
	assert.Equal(t, input, report.Narrative.Raw)
	assert.Empty(t, report.Narrative.Sections)
}

func TestParse_NonObjectDashboardFails(t *testing.T) {
	for _, head := range []string{"[1,2]", "null", "42", `"text"`} {
		report := Parse(head + Separator)
		assert.Equal(t, domain.DecodeFailed, report.Tier, head)
		_, ok := report.DashboardError()
		assert.True(t, ok, head)
	}
}

func TestParse_OnlyFirstSeparatorSplits(t *testing.T) {
	tail := "\n# A\none " + Separator + " two"
	report := Parse(`{}` + Separator + tail)

	assert.Equal(t, tail, report.Narrative.Raw)
	body, ok := report.Narrative.Sections.Get("A")
	require.True(t, ok)
	assert.Equal(t, "one "+Separator+" two", body)
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"no braces at all",
		"{",
		"}",
		"{{{{",
		"{\"a\": [1, 2",
		Separator,
		Separator + Separator,
		"\x00\xff\xfe",
		strings.Repeat("{", 1000) + strings.Repeat("}", 999),
		"{'a': 'it's broken'}" + Separator + "#",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			report := Parse(in)
			assert.NotNil(t, report.Dashboard)
			if _, tail, found := strings.Cut(in, Separator); found {
				assert.Equal(t, tail, report.Narrative.Raw)
			} else {
				assert.Equal(t, in, report.Narrative.Raw)
			}
		}, "input %q", in)
	}
}

func TestSplitSections(t *testing.T) {
	text := strings.Join([]string{
		"preamble is ignored",
		"# Event Summary",
		"",
		"Flooding in Vellore.",
		"## Details",
		"Two districts affected.",
		"",
		"#Spatial Pattern Insight  ",
		"Clustered along the river.",
		"# Event Summary",
		"Revised summary.",
		"# Empty",
	}, "\n")

	sections := splitSections(text)

	assert.Equal(t, domain.Sections{
		{Title: "Event Summary", Body: "Revised summary."},
		{Title: "Spatial Pattern Insight", Body: "Clustered along the river."},
		{Title: "Empty", Body: ""},
	}, sections)
}

func TestSplitSections_KeepsSubheadingsInBody(t *testing.T) {
	sections := splitSections("# Actions\r\n1. Evacuate\r\n## Phase two\r\n2. Rebuild\r\n")

	body, ok := sections.Get("Actions")
	require.True(t, ok)
	assert.Equal(t, "1. Evacuate\n## Phase two\n2. Rebuild", body)
}

func TestSplitSections_NoHeadings(t *testing.T) {
	assert.Empty(t, splitSections("just prose\nwith lines"))
}
