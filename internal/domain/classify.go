package domain

import (
	"context"
	"log/slog"
)

// ClassifyReading asks the predictor for a verdict and falls back to the local
// threshold rule when the predictor is nil or fails (graceful degradation).
// It never returns an error.
func ClassifyReading(ctx context.Context, r Reading, predictor Predictor, t Thresholds, logger *slog.Logger) Verdict {
	if predictor == nil {
		return FallbackVerdict(r, t)
	}

	p, err := predictor.Predict(ctx, r)
	if err != nil {
		logger.Warn("remote classification failed, using threshold fallback",
			"reading_id", r.ID,
			"h_kanan", r.RightLevel,
			"h_kiri", r.LeftLevel,
			"error", err,
		)
		return FallbackVerdict(r, t)
	}

	v, known := VerdictFromPrediction(p)
	if !known {
		logger.Warn("remote classifier returned unrecognized status",
			"reading_id", r.ID,
			"status", p.Status,
		)
	}
	if p.Prediction != v.FloodFlag {
		logger.Debug("remote prediction flag disagrees with status, using status",
			"reading_id", r.ID,
			"status", v.Status,
			"prediction", p.Prediction,
		)
	}
	return v
}
