package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// Client implements domain.Predictor against the flood classification service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a classifier client. The timeout bounds a whole request.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Predict posts the four numeric fields of r to /predict.
func (c *Client) Predict(ctx context.Context, r domain.Reading) (domain.Prediction, error) {
	body, err := json.Marshal(request{
		RightLevel: r.RightLevel,
		LeftLevel:  r.LeftLevel,
		RightFlow:  r.RightFlow,
		LeftFlow:   r.LeftFlow,
	})
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	p, err := c.doRequest(ctx, c.baseURL+"/predict", body)
	c.metrics.PredictorDuration.Observe(time.Since(start).Seconds())
	return p, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string, body []byte) (domain.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Prediction{}, fmt.Errorf("classifier API error: status %d: %s", resp.StatusCode, msg)
	}

	var out domain.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Prediction{}, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(out.Status) == "" {
		return domain.Prediction{}, errors.New("classifier response has no status")
	}

	c.logger.Debug("classifier answered",
		"status", out.Status,
		"prediction", out.Prediction,
		"confidence", out.Confidence,
	)
	return out, nil
}

// Classifier API request body. Field names follow the sensor firmware.

type request struct {
	RightLevel float64 `json:"h_kanan"`
	LeftLevel  float64 `json:"h_kiri"`
	RightFlow  float64 `json:"q_kanan"`
	LeftFlow   float64 `json:"q_kiri"`
}
