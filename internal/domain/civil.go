package domain

import (
	"fmt"
	"time"
)

const civilDateLayout = "2006-01-02"

// CivilDate is a calendar day without a time zone. It is combined with the
// deployment's location to produce concrete instants.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) CivilDate {
	y, m, d := t.In(loc).Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate parses a YYYY-MM-DD string.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(civilDateLayout, s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("parse civil date %q: %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

// String formats the date as YYYY-MM-DD.
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero value.
func (d CivilDate) IsZero() bool {
	return d == CivilDate{}
}

// AddDays returns the date n days later (or earlier for negative n).
func (d CivilDate) AddDays(n int) CivilDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC), time.UTC)
}

// Start returns midnight at the beginning of d in loc.
func (d CivilDate) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Window returns the half-open interval [start of d, start of the next day) in
// loc. The interval is not always 24h long when loc observes DST.
func (d CivilDate) Window(loc *time.Location) (time.Time, time.Time) {
	return d.Start(loc), d.AddDays(1).Start(loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d CivilDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *CivilDate) UnmarshalText(b []byte) error {
	parsed, err := ParseCivilDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
