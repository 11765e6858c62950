package domain

import "strings"

// Status is a flood risk level. Values outside the four known levels are
// carried through verbatim so an unexpected classifier answer stays visible.
type Status string

const (
	StatusSafe   Status = "SAFE"
	StatusWatch  Status = "WATCH"
	StatusFlood  Status = "FLOOD"
	StatusDanger Status = "DANGER"
)

var statusAliases = map[string]Status{
	"SAFE":    StatusSafe,
	"AMAN":    StatusSafe,
	"WATCH":   StatusWatch,
	"WASPADA": StatusWatch,
	"FLOOD":   StatusFlood,
	"BANJIR":  StatusFlood,
	"DANGER":  StatusDanger,
	"BAHAYA":  StatusDanger,
}

// ParseStatus maps a classifier label to a Status. The second return value is
// false when the label is not one of the known levels; the trimmed label is
// then returned as-is.
func ParseStatus(label string) (Status, bool) {
	label = strings.TrimSpace(label)
	if s, ok := statusAliases[strings.ToUpper(label)]; ok {
		return s, true
	}
	return Status(label), false
}

// Known reports whether s is one of the four defined levels.
func (s Status) Known() bool {
	switch s {
	case StatusSafe, StatusWatch, StatusFlood, StatusDanger:
		return true
	default:
		return false
	}
}

// IsAdverse reports whether the status is FLOOD or DANGER.
func (s Status) IsAdverse() bool {
	return s == StatusFlood || s == StatusDanger
}

// FloodFlag returns 1 for adverse statuses and 0 otherwise.
func (s Status) FloodFlag() int {
	if s.IsAdverse() {
		return 1
	}
	return 0
}
