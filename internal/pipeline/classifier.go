package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// RiskClassifier implements Classifier on top of an optional remote predictor
// with the local threshold rule as fallback.
type RiskClassifier struct {
	predictor  domain.Predictor
	thresholds domain.Thresholds
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewRiskClassifier creates a RiskClassifier. Pass a nil predictor to always
// use the threshold rule. A non-positive timeout leaves the call unbounded
// apart from the predictor's own limits.
func NewRiskClassifier(predictor domain.Predictor, thresholds domain.Thresholds, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RiskClassifier {
	return &RiskClassifier{
		predictor:  predictor,
		thresholds: thresholds,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// Thresholds returns the bounds used by the fallback rule.
func (c *RiskClassifier) Thresholds() domain.Thresholds {
	return c.thresholds
}

func (c *RiskClassifier) Classify(ctx context.Context, r domain.Reading) domain.Verdict {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	v := domain.ClassifyReading(ctx, r, c.predictor, c.thresholds, c.logger)
	c.metrics.Verdicts.WithLabelValues(string(v.Source), string(v.Status)).Inc()
	return v
}
