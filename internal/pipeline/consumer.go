package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw reading messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// PayloadIngester processes one raw reading payload.
type PayloadIngester interface {
	Ingest(ctx context.Context, payload []byte) (IngestResult, error)
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Consumer feeds readings published on the message bus through the same
// ingestion path as the HTTP endpoint.
type Consumer struct {
	extractor BatchExtractor
	ingester  PayloadIngester
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// NewConsumer creates a Consumer with the given source and ingester.
func NewConsumer(e BatchExtractor, in PayloadIngester, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Consumer {
	return &Consumer{
		extractor: e,
		ingester:  in,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Run executes the consume loop until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("reading consumer started", "batch_size", c.batchSize)
	c.metrics.ConsumerRunning.Set(1)
	defer c.metrics.ConsumerRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("reading consumer stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !c.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-ingest-commit cycle. Returns false if the consumer should stop.
func (c *Consumer) processBatch(ctx context.Context, backoff *time.Duration) bool {
	batch, err := c.extractor.ExtractBatch(ctx, c.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("extract batch failed", "error", err)
		return c.backoffOrStop(ctx, backoff)
	}

	if len(batch) > 0 {
		*backoff = initialBackoff
	}

	for _, raw := range batch {
		if !c.ingestMessage(ctx, raw, backoff) {
			return false
		}
	}
	return ctx.Err() == nil
}

// ingestMessage ingests one message, retrying with backoff while the store
// fails. Malformed payloads are skipped and committed so they are not
// redelivered. Returns false if the consumer should stop.
func (c *Consumer) ingestMessage(ctx context.Context, raw domain.RawMessage, backoff *time.Duration) bool {
	for {
		_, err := c.ingester.Ingest(ctx, raw.Value)
		switch {
		case err == nil:
			c.metrics.KafkaMessages.WithLabelValues("ingested").Inc()
			*backoff = initialBackoff
			c.commitOffset(ctx, raw)
			return true
		case errors.Is(err, domain.ErrValidation):
			c.logger.Warn("invalid reading message, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			c.metrics.KafkaMessages.WithLabelValues("skipped").Inc()
			c.commitOffset(ctx, raw)
			return true
		default:
			c.logger.Error("ingest message failed, retrying",
				"error", err,
				"offset", raw.Offset,
				"backoff", *backoff,
			)
			c.metrics.KafkaMessages.WithLabelValues("retried").Inc()
			if !c.backoffOrStop(ctx, backoff) {
				return false
			}
		}
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the consumer should stop.
func (c *Consumer) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sharedretry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = sharedretry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (c *Consumer) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
