package pipeline

import (
	"context"
	"fmt"

	"github.com/insightatlas/insight-atlas/internal/analysis"
	"github.com/insightatlas/insight-atlas/internal/domain"
)

// Analyzer runs the full analysis for one incident text.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (domain.AnalysisResult, error)
}

// AnalysisTransformer decodes an incident message, analyzes it, and encodes
// the result for the sink topic. Stream messages carry no per-request token,
// so the synthesizer's default token applies.
type AnalysisTransformer struct {
	analyzer Analyzer
}

// NewTransformer creates an AnalysisTransformer.
func NewTransformer(analyzer Analyzer) *AnalysisTransformer {
	return &AnalysisTransformer{analyzer: analyzer}
}

func (t *AnalysisTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	msg, err := domain.ParseIncident(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	result, err := t.analyzer.Analyze(ctx, analysis.Request{
		ID:     msg.ID,
		Text:   msg.Text,
		Source: "stream",
	})
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("analyze incident %q: %w", msg.ID, err)
	}

	out, err := domain.SerializeResult(result)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	out.Headers["source_topic"] = raw.Topic
	return out, nil
}
