package domain

import (
	"math"
	"time"
)

// Thresholds are the level bounds, in centimeters, used to derive statuses.
type Thresholds struct {
	Watch  float64
	Flood  float64
	Danger float64
}

// DefaultThresholds returns the bounds used by the deployed stations.
func DefaultThresholds() Thresholds {
	return Thresholds{Watch: 120, Flood: 150, Danger: 180}
}

const (
	fallbackFloodConfidence = 90
	fallbackFloodAdvice     = "Evacuate immediately and inspect the floodgates!"
	dangerDayAdvice         = "HIGH ALERT: conditions were extremely dangerous."
	floodDayAdvice          = "FLOOD WATCH: stay alert to the water conditions."
)

// FallbackVerdict classifies a reading locally when the remote classifier is
// unavailable: either bank above the flood threshold is FLOOD, anything else is SAFE.
func FallbackVerdict(r Reading, t Thresholds) Verdict {
	if r.RightLevel > t.Flood || r.LeftLevel > t.Flood {
		return Verdict{
			Status:         StatusFlood,
			FloodFlag:      1,
			Confidence:     fallbackFloodConfidence,
			Recommendation: fallbackFloodAdvice,
			Source:         SourceFallback,
		}
	}
	return Verdict{
		Status:    StatusSafe,
		FloodFlag: 0,
		Source:    SourceFallback,
	}
}

// VerdictFromPrediction converts a remote answer into a Verdict. The flood
// flag is derived from the status; the second return value is false when the
// status label is unrecognized.
func VerdictFromPrediction(p Prediction) (Verdict, bool) {
	status, known := ParseStatus(p.Status)
	return Verdict{
		Status:         status,
		FloodFlag:      status.FloodFlag(),
		Confidence:     clampConfidence(p.Confidence),
		Recommendation: p.Recommendation,
		Source:         SourceRemote,
	}, known
}

// clampConfidence bounds confidence to [0, 100]. The classifier reports
// confidence either as a percentage or as a probability; any value in (0, 1],
// including exactly 1, is read as a probability and scaled, so a service that
// means "1 percent" must send 0.01.
func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 0 && c <= 1:
		return c * 100
	case c > 100:
		return 100
	default:
		return c
	}
}

// Summarize aggregates one day of readings into a DailySummary and the
// alert-only statistics. It performs a single pass. With no readings it
// returns an explicit empty SAFE summary.
func Summarize(date CivilDate, readings []Reading, t Thresholds, computedAt time.Time) (DailySummary, DayStats) {
	if len(readings) == 0 {
		return DailySummary{
			Date:       date,
			Status:     StatusSafe,
			LastStatus: StatusSafe,
			ComputedAt: computedAt,
		}, DayStats{}
	}

	var sumRL, sumLL, sumRF, sumLF float64
	maxRL := math.Inf(-1)
	maxLL := math.Inf(-1)
	floodEvents := 0
	for _, r := range readings {
		sumRL += r.RightLevel
		sumLL += r.LeftLevel
		sumRF += r.RightFlow
		sumLF += r.LeftFlow
		maxRL = max(maxRL, r.RightLevel)
		maxLL = max(maxLL, r.LeftLevel)
		if r.RightLevel > t.Flood || r.LeftLevel > t.Flood {
			floodEvents++
		}
	}

	n := float64(len(readings))
	avgRL, avgLL := sumRL/n, sumLL/n
	status := dayStatus(max(maxRL, maxLL), max(avgRL, avgLL), t)

	summary := DailySummary{
		Date:          date,
		AvgRightLevel: round2(avgRL),
		AvgLeftLevel:  round2(avgLL),
		AvgRightFlow:  round2(sumRF / n),
		AvgLeftFlow:   round2(sumLF / n),
		SampleCount:   len(readings),
		Status:        status,
		FloodFlag:     status.FloodFlag(),
		LastStatus:    status,
		LastFloodFlag: status.FloodFlag(),
		ComputedAt:    computedAt,
	}
	return summary, DayStats{MaxRightLevel: maxRL, MaxLeftLevel: maxLL, FloodEvents: floodEvents}
}

// dayStatus applies the rollup rule: the peak level decides DANGER and FLOOD,
// the higher of the two bank averages decides WATCH.
func dayStatus(peak, avg float64, t Thresholds) Status {
	switch {
	case peak > t.Danger:
		return StatusDanger
	case peak > t.Flood:
		return StatusFlood
	case avg > t.Watch:
		return StatusWatch
	default:
		return StatusSafe
	}
}

// DailyVerdict builds the verdict attached to a daily report alert. Confidence
// is the share of readings that individually crossed the flood threshold.
func DailyVerdict(s DailySummary, stats DayStats) Verdict {
	v := Verdict{Status: s.Status, FloodFlag: s.FloodFlag}
	if s.SampleCount > 0 {
		v.Confidence = math.Min(100, math.Round(float64(stats.FloodEvents)/float64(s.SampleCount)*100))
	}
	switch s.Status {
	case StatusDanger:
		v.Recommendation = dangerDayAdvice
	case StatusFlood:
		v.Recommendation = floodDayAdvice
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
