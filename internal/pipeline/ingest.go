package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// IngestResult is the outcome of a successful ingest.
type IngestResult struct {
	Reading        domain.Reading `json:"sensor_data"`
	Verdict        domain.Verdict `json:"prediction"`
	AlertAttempted bool           `json:"alert_attempted"`
	AlertSent      bool           `json:"alert_sent"`
}

// Ingestor runs the validate, persist, classify, notify sequence for one reading.
type Ingestor struct {
	store      ReadingWriter
	classifier Classifier
	notifier   Notifier
	cache      StatusCache
	loc        *time.Location
	metrics    *observability.Metrics
	logger     *slog.Logger
	newID      func() string
}

// NewIngestor creates an Ingestor. notifier and cache may be nil.
func NewIngestor(store ReadingWriter, classifier Classifier, notifier Notifier, cache StatusCache, loc *time.Location, metrics *observability.Metrics, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		cache:      cache,
		loc:        loc,
		metrics:    metrics,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Ingest validates a raw JSON payload and processes it. It fails only with a
// *domain.ValidationError or a *domain.StoreError.
func (in *Ingestor) Ingest(ctx context.Context, payload []byte) (IngestResult, error) {
	input, err := domain.ParseReadingPayload(payload)
	if err != nil {
		in.metrics.ReadingsRejected.WithLabelValues("validation").Inc()
		in.logger.Info("reading rejected", "error", err)
		return IngestResult{}, err
	}
	return in.IngestInput(ctx, input)
}

// IngestInput processes an already validated reading. The store write and the
// notification complete even when ctx is cancelled by the caller.
func (in *Ingestor) IngestInput(ctx context.Context, input domain.ReadingInput) (IngestResult, error) {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	r := domain.Reading{
		ID:         in.newID(),
		RightLevel: input.RightLevel,
		LeftLevel:  input.LeftLevel,
		RightFlow:  input.RightFlow,
		LeftFlow:   input.LeftFlow,
		CapturedAt: domain.Now().In(in.loc),
	}
	if r.Implausible() {
		in.metrics.ImplausibleReadings.Inc()
		in.logger.Warn("reading carries negative values, storing as received",
			"reading_id", r.ID,
			"h_kanan", r.RightLevel,
			"h_kiri", r.LeftLevel,
			"q_kanan", r.RightFlow,
			"q_kiri", r.LeftFlow,
		)
	}

	if err := in.store.InsertReading(ctx, r); err != nil {
		in.metrics.ReadingsRejected.WithLabelValues("store").Inc()
		in.logger.Error("store reading failed", "reading_id", r.ID, "error", err)
		var storeErr *domain.StoreError
		if !errors.As(err, &storeErr) {
			err = &domain.StoreError{Op: "insert reading", Err: err}
		}
		return IngestResult{}, err
	}
	in.metrics.ReadingsIngested.Inc()

	v := in.classifier.Classify(ctx, r)
	in.remember(ctx, r, v)

	result := IngestResult{Reading: r, Verdict: v}
	if v.ShouldAlert() && in.notifier != nil {
		result.AlertAttempted = true
		result.AlertSent = in.alert(ctx, r, v)
	}

	in.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	in.logger.Info("reading ingested",
		"reading_id", r.ID,
		"status", v.Status,
		"source", v.Source,
		"alert_sent", result.AlertSent,
	)
	return result, nil
}

func (in *Ingestor) alert(ctx context.Context, r domain.Reading, v domain.Verdict) bool {
	event := domain.AlertEvent{
		Kind:      domain.AlertReading,
		ReadingID: r.ID,
		Reading:   &r,
		Verdict:   v,
		Timestamp: domain.Now().In(in.loc),
	}
	if err := in.notifier.Notify(ctx, event); err != nil {
		in.logger.Warn("flood alert not fully delivered", "reading_id", r.ID, "error", err)
		return false
	}
	return true
}

func (in *Ingestor) remember(ctx context.Context, r domain.Reading, v domain.Verdict) {
	if in.cache == nil {
		return
	}
	status := domain.CurrentStatus{Reading: r, Verdict: v, UpdatedAt: r.CapturedAt}
	if err := in.cache.Set(ctx, status); err != nil {
		in.logger.Warn("status cache update failed", "reading_id", r.ID, "error", err)
	}
}
