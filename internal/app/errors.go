package app

import (
	"errors"
	"fmt"
)

// Rejection kinds. Every rejected intent wraps exactly one of these and leaves
// the session untouched.
var (
	ErrInvalidState       = errors.New("invalid state")
	ErrNotFound           = errors.New("not found")
	ErrOwnershipViolation = errors.New("ownership violation")
	ErrSourceIneligible   = errors.New("source ineligible")
	ErrProximityViolation = errors.New("proximity violation")
	ErrRuleViolation      = errors.New("rule violation")
	ErrSlotConflict       = errors.New("slot conflict")
	// ErrMalformedIntent flags payloads that cannot be interpreted at all.
	ErrMalformedIntent = errors.New("malformed intent")
)

var kindNames = []struct {
	err  error
	name string
}{
	{ErrInvalidState, "InvalidState"},
	{ErrNotFound, "NotFound"},
	{ErrOwnershipViolation, "OwnershipViolation"},
	{ErrSourceIneligible, "SourceIneligible"},
	{ErrProximityViolation, "ProximityViolation"},
	{ErrRuleViolation, "RuleViolation"},
	{ErrSlotConflict, "SlotConflict"},
	{ErrMalformedIntent, "MalformedIntent"},
}

// Kind names the rejection category of err, or "Internal" for anything else.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

func reject(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
