package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// StatusReporter answers "what is the flood risk right now".
type StatusReporter struct {
	latest     LatestReadingReader
	classifier Classifier
	cache      StatusCache
	logger     *slog.Logger
}

// NewStatusReporter creates a StatusReporter. cache may be nil.
func NewStatusReporter(latest LatestReadingReader, classifier Classifier, cache StatusCache, logger *slog.Logger) *StatusReporter {
	return &StatusReporter{latest: latest, classifier: classifier, cache: cache, logger: logger}
}

// Current returns the cached status when available, otherwise classifies the
// latest stored reading. The boolean is false when no reading exists yet.
// Cache failures degrade to reclassification.
func (s *StatusReporter) Current(ctx context.Context) (domain.CurrentStatus, bool, error) {
	if s.cache != nil {
		status, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("status cache read failed", "error", err)
		} else if ok {
			return status, true, nil
		}
	}

	r, found, err := s.latest.LatestReading(ctx)
	if err != nil || !found {
		return domain.CurrentStatus{}, false, err
	}

	status := domain.CurrentStatus{
		Reading:   r,
		Verdict:   s.classifier.Classify(ctx, r),
		UpdatedAt: r.CapturedAt,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, status); err != nil {
			s.logger.Warn("status cache update failed", "error", err)
		}
	}
	return status, true, nil
}
