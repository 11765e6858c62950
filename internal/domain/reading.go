package domain

import "time"

// Reading is one sensor sample. It is immutable once stored.
type Reading struct {
	ID         string    `json:"id"`
	RightLevel float64   `json:"h_kanan"`
	LeftLevel  float64   `json:"h_kiri"`
	RightFlow  float64   `json:"q_kanan"`
	LeftFlow   float64   `json:"q_kiri"`
	CapturedAt time.Time `json:"created_at"`
}

// MaxLevel returns the higher of the two bank levels.
func (r Reading) MaxLevel() float64 {
	return max(r.RightLevel, r.LeftLevel)
}

// Implausible reports whether any field is physically impossible (negative).
// Such readings are still stored; callers only log them.
func (r Reading) Implausible() bool {
	return r.RightLevel < 0 || r.LeftLevel < 0 || r.RightFlow < 0 || r.LeftFlow < 0
}

// VerdictSource records which path produced a Verdict.
type VerdictSource string

const (
	SourceRemote   VerdictSource = "REMOTE"
	SourceFallback VerdictSource = "FALLBACK"
)

// Verdict is the classification outcome for one Reading. It is never persisted.
type Verdict struct {
	Status         Status        `json:"status"`
	FloodFlag      int           `json:"prediction"`
	Confidence     float64       `json:"confidence"`
	Recommendation string        `json:"recommendation,omitempty"`
	Source         VerdictSource `json:"source"`
}

// ShouldAlert reports whether the verdict warrants a notification. The source
// does not matter: a FALLBACK flood alerts exactly like a REMOTE one.
func (v Verdict) ShouldAlert() bool {
	return v.FloodFlag == 1
}

// Prediction is the raw answer of the remote classification service.
type Prediction struct {
	Status         string  `json:"status"`
	Prediction     int     `json:"prediction"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

// DailySummary aggregates one civil day of readings. Date is the primary key.
type DailySummary struct {
	Date          CivilDate `json:"tanggal"`
	AvgRightLevel float64   `json:"avg_h_kanan"`
	AvgLeftLevel  float64   `json:"avg_h_kiri"`
	AvgRightFlow  float64   `json:"avg_q_kanan"`
	AvgLeftFlow   float64   `json:"avg_q_kiri"`
	SampleCount   int       `json:"count"`
	Status        Status    `json:"status"`
	FloodFlag     int       `json:"prediction"`
	LastStatus    Status    `json:"last_status"`
	LastFloodFlag int       `json:"last_prediction"`
	ComputedAt    time.Time `json:"created_at"`
}

// DayStats carries the per-day figures that are reported in alerts but not stored.
type DayStats struct {
	MaxRightLevel float64 `json:"max_h_kanan"`
	MaxLeftLevel  float64 `json:"max_h_kiri"`
	FloodEvents   int     `json:"flood_events"`
}

// AlertKind distinguishes per-reading alerts from daily report alerts.
type AlertKind string

const (
	AlertReading AlertKind = "reading"
	AlertDaily   AlertKind = "daily"
)

// AlertEvent is the payload handed to notification sinks. It is not persisted.
type AlertEvent struct {
	Kind      AlertKind     `json:"kind"`
	ReadingID string        `json:"sensor_id,omitempty"`
	Reading   *Reading      `json:"sensor_data,omitempty"`
	Summary   *DailySummary `json:"summary,omitempty"`
	Stats     *DayStats     `json:"stats,omitempty"`
	Verdict   Verdict       `json:"prediction"`
	Timestamp time.Time     `json:"timestamp"`
}

// Key identifies the alert subject: the reading ID or the summarized date.
func (e AlertEvent) Key() string {
	if e.Summary != nil {
		return e.Summary.Date.String()
	}
	return e.ReadingID
}

// CurrentStatus is the most recent verdict together with the reading it was
// computed for. It backs the current-status report.
type CurrentStatus struct {
	Reading   Reading   `json:"current_reading"`
	Verdict   Verdict   `json:"verdict"`
	UpdatedAt time.Time `json:"last_updated"`
}
