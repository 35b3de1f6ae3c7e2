package match

import (
	"fmt"
	"strings"
)

// Status is the stored lifecycle status of a match. The engine only ever
// operates on this enum; the string/number duality of legacy records is
// handled once, at the persistence boundary, by ParseStatus.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusNeedsConfirmation Status = "NEEDS_CONFIRMATION"
	StatusCancelled         Status = "CANCELLED"
	StatusCompleted         Status = "COMPLETED"
)

// legacyNumericStatus maps the integer encoding some historic rows carry.
var legacyNumericStatus = map[string]Status{
	"0": StatusPending,
	"1": StatusNeedsConfirmation,
	"2": StatusCancelled,
	"3": StatusCompleted,
}

// ParseStatus converts a raw stored status to the typed enum. It accepts
// the canonical uppercase names, their lowercase legacy spellings, and the
// legacy numeric encoding; anything else is an error.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	if s, ok := legacyNumericStatus[trimmed]; ok {
		return s, nil
	}
	switch Status(strings.ToUpper(trimmed)) {
	case StatusPending:
		return StatusPending, nil
	case StatusNeedsConfirmation:
		return StatusNeedsConfirmation, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown match status %q", raw)
}

// Valid reports whether the status is one of the four known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusNeedsConfirmation, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}
