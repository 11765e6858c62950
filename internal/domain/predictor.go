package domain

import "context"

// Predictor is the remote flood classification service.
type Predictor interface {
	// Predict classifies the four numeric fields of a reading.
	Predict(ctx context.Context, r Reading) (Prediction, error)
}
