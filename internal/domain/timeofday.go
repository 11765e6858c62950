package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time (hour and minute) in the deployment's zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an HH:MM string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the first instant strictly after now at which the wall clock in
// loc reads t. On days where t does not exist (DST gap) the normalized instant
// chosen by time.Date is used.
func (t TimeOfDay) Next(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, loc)
	if candidate.After(local) {
		return candidate
	}
	return time.Date(local.Year(), local.Month(), local.Day()+1, t.Hour, t.Minute, 0, 0, loc)
}
