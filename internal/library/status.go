package library

import (
	"fmt"
	"strings"
)

// Status is the shelf a record sits on.
type Status string

const (
	StatusToRead    Status = "TO_READ"
	StatusRead      Status = "READ"
	StatusAbandoned Status = "ABANDONED"
)

// Statuses lists every status in shelf display order.
var Statuses = []Status{StatusToRead, StatusRead, StatusAbandoned}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusToRead, StatusRead, StatusAbandoned:
		return true
	default:
		return false
	}
}

// Label returns the shelf name shown to users.
func (s Status) Label() string {
	switch s {
	case StatusToRead:
		return "To Read"
	case StatusRead:
		return "Read"
	case StatusAbandoned:
		return "Abandoned"
	default:
		return string(s)
	}
}

// ParseStatus accepts a status in any case, with dashes or spaces in place
// of underscores.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	status := Status(normalized)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// ValidRating reports whether v is in [0,5] on a half-point step.
func ValidRating(v float64) bool {
	if v < 0 || v > 5 {
		return false
	}
	doubled := v * 2
	return doubled == float64(int(doubled))
}
