package narrative

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/observability"
)

// Options configures a Synthesizer.
type Options struct {
	// DefaultToken is used when a request supplies no token of its own.
	DefaultToken string
	// Role replaces DefaultRole as the prompt's opening line.
	Role string
}

// Synthesizer builds the prompt, calls the backend once, and parses the
// response.
type Synthesizer struct {
	backend Backend
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSynthesizer creates a Synthesizer around backend.
func NewSynthesizer(backend Backend, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Synthesizer {
	return &Synthesizer{
		backend: backend,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Synthesize produces a NarrativeReport for facts. token overrides the
// default token when non-empty. Backend failures are reported on the
// result, never as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, facts Facts, token string) domain.NarrativeReport {
	if strings.TrimSpace(token) == "" {
		token = s.opts.DefaultToken
	}

	completion := s.complete(ctx, BuildPrompt(facts, s.opts.Role), token)

	report := Parse(completion.Output())
	report.Backend = backendStatus(completion)
	s.metrics.DecodeTiers.WithLabelValues(string(report.Tier)).Inc()

	if reason, failed := report.DashboardError(); failed {
		s.logger.Warn("narrative dashboard degraded", "tier", report.Tier, "reason", reason)
	}
	return report
}

func (s *Synthesizer) complete(ctx context.Context, prompt, token string) Completion {
	if strings.TrimSpace(token) == "" {
		s.metrics.BackendRequests.WithLabelValues(string(ReasonMissingCredential)).Inc()
		s.logger.Warn("no backend token configured, skipping narrative generation")
		return Failed(ReasonMissingCredential, 0, "")
	}

	start := time.Now()
	completion := s.backend.Complete(ctx, prompt, token)
	s.metrics.BackendDuration.Observe(time.Since(start).Seconds())

	if completion.OK() {
		s.metrics.BackendRequests.WithLabelValues("success").Inc()
		return completion
	}

	f := completion.Failure
	s.metrics.BackendRequests.WithLabelValues(string(f.Reason)).Inc()
	s.logger.Warn("backend request failed", "reason", f.Reason, "status", f.Status, "detail", f.Detail)
	return completion
}

func backendStatus(c Completion) *domain.BackendStatus {
	if c.OK() {
		return &domain.BackendStatus{OK: true}
	}
	return &domain.BackendStatus{
		Reason: string(c.Failure.Reason),
		Status: c.Failure.Status,
		Detail: c.Failure.Detail,
	}
}
