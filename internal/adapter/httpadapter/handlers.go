package httpadapter

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

const (
	maxPayloadBytes = 64 << 10

	defaultLatestLimit  = 10
	maxLatestLimit      = 500
	defaultSummaryLimit = 30
	maxSummaryLimit     = 366
	defaultChartHours   = 24
	maxChartHours       = 720
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	res, err := s.deps.Ingester.Ingest(r.Context(), body)
	var verr *domain.ValidationError
	var serr *domain.StoreError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.As(err, &serr):
		s.logger.Error("ingest failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to store reading")
		return
	case err != nil:
		s.logger.Error("ingest failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeOK(w, http.StatusCreated, map[string]any{
		"message":         "reading received and processed",
		"sensor_id":       res.Reading.ID,
		"sensor_data":     res.Reading,
		"prediction":      res.Verdict,
		"alert_attempted": res.AlertAttempted,
		"alert_sent":      res.AlertSent,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	input, err := domain.ParseReadingPayload(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reading := domain.Reading{
		RightLevel: input.RightLevel,
		LeftLevel:  input.LeftLevel,
		RightFlow:  input.RightFlow,
		LeftFlow:   input.LeftFlow,
		CapturedAt: s.now(),
	}
	s.writeOK(w, http.StatusOK, map[string]any{
		"prediction": s.deps.Classifier.Classify(r.Context(), reading),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultLatestLimit, maxLatestLimit)
	readings, err := s.deps.Readings.LatestReadings(r.Context(), limit)
	if err != nil {
		s.logger.Error("latest readings query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch readings")
		return
	}
	s.writeOK(w, http.StatusOK, map[string]any{
		"count": len(readings),
		"data":  nonNil(readings),
	})
}

// handleCurrentStatus never fails: without a reading, or when the lookup
// errors, it reports SAFE.
func (s *Server) handleCurrentStatus(w http.ResponseWriter, r *http.Request) {
	status, found, err := s.deps.Status.Current(r.Context())
	if err != nil {
		s.logger.Warn("current status lookup failed", "error", err)
	}
	if err != nil || !found {
		s.writeOK(w, http.StatusOK, map[string]any{
			"status":          domain.StatusSafe,
			"prediction":      0,
			"current_reading": nil,
			"verdict":         nil,
			"last_updated":    nil,
		})
		return
	}
	s.writeOK(w, http.StatusOK, map[string]any{
		"status":          status.Verdict.Status,
		"prediction":      status.Verdict.FloodFlag,
		"current_reading": status.Reading,
		"verdict":         status.Verdict,
		"last_updated":    status.UpdatedAt.In(s.deps.Location),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultSummaryLimit, maxSummaryLimit)
	summaries, err := s.deps.Summaries.RecentSummaries(r.Context(), limit)
	if err != nil {
		s.logger.Error("summary query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch summaries")
		return
	}
	s.writeOK(w, http.StatusOK, map[string]any{
		"count": len(summaries),
		"data":  nonNil(summaries),
	})
}

type statistics struct {
	TotalReadings int64           `json:"total_readings"`
	LatestReading *domain.Reading `json:"latest_reading"`
	FloodDays     int64           `json:"flood_days"`
	SafeDays      int64           `json:"safe_days"`
}

// handleStats is best-effort: each figure that cannot be read is reported as zero.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats statistics

	if n, err := s.deps.Readings.CountReadings(ctx); err != nil {
		s.logger.Warn("reading count failed", "error", err)
	} else {
		stats.TotalReadings = n
	}

	if latest, found, err := s.deps.Readings.LatestReading(ctx); err != nil {
		s.logger.Warn("latest reading query failed", "error", err)
	} else if found {
		stats.LatestReading = &latest
	}

	if total, adverse, err := s.deps.Summaries.CountSummaries(ctx); err != nil {
		s.logger.Warn("summary count failed", "error", err)
	} else {
		stats.FloodDays = adverse
		stats.SafeDays = total - adverse
	}

	s.writeOK(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", defaultChartHours, maxChartHours)
	from := s.now().Add(-time.Duration(hours) * time.Hour)
	readings, err := s.deps.Readings.ReadingsSince(r.Context(), from)
	if err != nil {
		s.logger.Error("chart data query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch chart data")
		return
	}
	s.writeOK(w, http.StatusOK, map[string]any{
		"hours": hours,
		"data":  nonNil(readings),
	})
}

func (s *Server) handleTime(w http.ResponseWriter, _ *http.Request) {
	now := domain.Now()
	civil := now.In(s.deps.Location)
	s.writeOK(w, http.StatusOK, map[string]any{
		"time": map[string]any{
			"utc":      now.UTC().Format(time.RFC3339),
			"local":    civil.Format(time.RFC3339),
			"display":  civil.Format("2006-01-02 15:04:05 MST"),
			"timezone": s.deps.Location.String(),
		},
	})
}

func (s *Server) now() time.Time {
	return domain.Now().In(s.deps.Location)
}

func (s *Server) writeOK(w http.ResponseWriter, status int, body map[string]any) {
	body["success"] = true
	body["timestamp"] = s.now()
	sharedobs.WriteJSON(w, status, body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]any{
		"success":   false,
		"error":     msg,
		"timestamp": s.now(),
	})
}

// queryInt reads a positive integer query parameter, falling back to def when
// absent or malformed and capping at limit.
func queryInt(r *http.Request, key string, def, limit int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, limit)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
