// Package pipeline consumes incident reports from a stream, analyzes each
// one, and publishes the results.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw incident messages.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw incident message into a publishable result.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader publishes analysis results.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline runs the consume-analyze-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	running     atomic.Bool
}

// New creates a Pipeline.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness reports an error until Run has started.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("incident stream consumer is not running")
	}
	return nil
}

// Run consumes batches until ctx is cancelled. Extract and publish failures
// are retried with exponential backoff; a message that fails analysis is
// logged and skipped, and committed with the rest of its batch.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("incident stream consumer started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	backoff := initialBackoff
	for ctx.Err() == nil {
		if !p.step(ctx, &backoff) {
			break
		}
	}
	p.logger.Info("incident stream consumer stopping", "reason", ctx.Err())
	return nil
}

// step handles one batch. It returns false once the loop should end.
func (p *Pipeline) step(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.wait(ctx, backoff)
	}
	if len(batch) == 0 {
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	*backoff = initialBackoff

	results := p.analyzeBatch(ctx, batch)
	if len(results) == 0 {
		p.commitAll(ctx, batch)
		return true
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		p.logger.Error("publish results failed", "error", err, "batch_size", len(results))
		return p.wait(ctx, backoff)
	}
	p.metrics.MessagesProduced.Add(float64(len(results)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())

	p.commitAll(ctx, batch)
	return true
}

// analyzeBatch transforms each message and drops the ones that fail. Nothing
// is committed here; offsets advance in batch order once results publish.
func (p *Pipeline) analyzeBatch(ctx context.Context, batch []domain.RawEvent) []domain.OutputEvent {
	results := make([]domain.OutputEvent, 0, len(batch))

	for _, raw := range batch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("incident analysis failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			continue
		}
		results = append(results, out)
	}
	return results
}

// wait sleeps for the current backoff and doubles it. It returns false if ctx
// ends first.
func (p *Pipeline) wait(ctx context.Context, backoff *time.Duration) bool {
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitAll(ctx context.Context, batch []domain.RawEvent) {
	for _, raw := range batch {
		p.commit(ctx, raw)
	}
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
