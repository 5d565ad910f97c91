// Package analysis runs one incident text through every stage in data-flow
// order: extraction, classification, geocoding, clustering, scoring, spatial
// insight, narrative synthesis, and map rendering.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/narrative"
	"github.com/insightatlas/insight-atlas/internal/observability"
)

// Synthesizer produces the narrative report for computed facts.
type Synthesizer interface {
	Synthesize(ctx context.Context, facts narrative.Facts, token string) domain.NarrativeReport
}

// MapRenderer draws points, per-city stats, and clusters as HTML.
type MapRenderer interface {
	Render(points []domain.GeoPoint, summary domain.CitySummary, clusters domain.Clusters) (string, error)
}

// Request is one analysis call.
type Request struct {
	ID    string
	Text  string
	Token string
	// Source labels metrics: "http" or "stream".
	Source string
}

// Params holds clustering parameters.
type Params struct {
	Epsilon   float64
	MinPoints int
}

// Analyzer wires the collaborators together. Geocoder and Renderer may be nil.
type Analyzer struct {
	extractor   domain.EntityExtractor
	classifier  domain.RiskClassifier
	geocoder    domain.Geocoder
	synthesizer Synthesizer
	renderer    MapRenderer
	params      Params
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Deps groups the Analyzer's collaborators.
type Deps struct {
	Extractor   domain.EntityExtractor
	Classifier  domain.RiskClassifier
	Geocoder    domain.Geocoder
	Synthesizer Synthesizer
	Renderer    MapRenderer
}

// New creates an Analyzer. Zero params fall back to the default clustering
// parameters.
func New(deps Deps, params Params, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	if params.Epsilon <= 0 {
		params.Epsilon = domain.DefaultClusterEpsilon
	}
	if params.MinPoints < 1 {
		params.MinPoints = domain.DefaultClusterMinPoints
	}
	return &Analyzer{
		extractor:   deps.Extractor,
		classifier:  deps.Classifier,
		geocoder:    deps.Geocoder,
		synthesizer: deps.Synthesizer,
		renderer:    deps.Renderer,
		params:      params,
		logger:      logger,
		metrics:     metrics,
	}
}

// Analyze runs the full pipeline. Only an empty text or an extractor or
// classifier failure returns an error; every later stage degrades in place.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (domain.AnalysisResult, error) {
	source := req.Source
	if source == "" {
		source = "http"
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		a.metrics.Analyses.WithLabelValues(source, "invalid").Inc()
		return domain.AnalysisResult{}, domain.ErrEmptyText
	}

	start := time.Now()
	result, err := a.analyze(ctx, req.ID, text, req.Token)
	a.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.Analyses.WithLabelValues(source, "error").Inc()
		return domain.AnalysisResult{}, err
	}
	a.metrics.Analyses.WithLabelValues(source, "success").Inc()

	a.logger.Info("analysis completed",
		"analysis_id", result.ID,
		"locations", len(result.Entities.Locations),
		"geo_points", len(result.GeoPoints),
		"clusters", len(result.Clusters),
		"risk_index", result.Risk.RiskIndex,
		"decode_tier", result.Story.Tier,
		"duration", time.Since(start),
	)
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, id, text, token string) (domain.AnalysisResult, error) {
	if id == "" {
		id = uuid.NewString()
	}
	logger := a.logger.With("analysis_id", id)

	entities, err := a.extractor.Extract(ctx, text)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("extract entities: %w", err)
	}

	risk, err := a.classifier.Classify(ctx, text)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("classify risk: %w", err)
	}
	if risk.Risks == nil {
		risk.Risks = []string{}
	}

	geocoded := domain.GeocodeLocations(ctx, entities.Locations, a.geocoder, logger)
	located := domain.Located(geocoded)
	points := domain.CleanPoints(geocoded)

	clusters := domain.Cluster(points, a.params.Epsilon, a.params.MinPoints)
	riskIndex := domain.Score(risk.Risks, risk.Confidence)
	summary := domain.Summarize(located, riskIndex)
	insight := domain.PairwiseExtremes(points)

	story := a.synthesizer.Synthesize(ctx, narrative.Facts{
		Locations:  entities.Locations,
		Risks:      risk.Risks,
		Confidence: risk.Confidence,
		RiskIndex:  riskIndex,
		Points:     points,
		Summary:    summary,
		Clusters:   clusters,
		Insight:    insight,
	}, token)

	var mapHTML string
	if a.renderer != nil {
		mapHTML, err = a.renderer.Render(points, summary, clusters)
		if err != nil {
			logger.Warn("map rendering failed", "error", err)
			mapHTML = ""
		}
	}

	return domain.AnalysisResult{
		ID:          id,
		GeneratedAt: domain.Now(),
		Entities:    entities,
		Risk: domain.ScoredRisk{
			RiskAssessment: risk,
			RiskIndex:      riskIndex,
		},
		GeoPoints:      points,
		Clusters:       clusters,
		CitySummary:    summary,
		SpatialInsight: insight,
		Story:          story,
		MapHTML:        mapHTML,
	}, nil
}

// CheckReadiness reports an error if a required collaborator is missing.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	switch {
	case a.extractor == nil:
		return errors.New("entity extractor not configured")
	case a.classifier == nil:
		return errors.New("risk classifier not configured")
	case a.synthesizer == nil:
		return errors.New("narrative synthesizer not configured")
	}
	return nil
}
