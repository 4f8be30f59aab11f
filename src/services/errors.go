package services

import "errors"

// Sentinel errors distinguishing the failure kinds surfaced to handlers.
var (
	// ErrCredential: the upstream token could not be obtained. The current
	// sync cycle is aborted with no partial side effects.
	ErrCredential = errors.New("upstream credential error")

	// ErrInvalidDateFormat: malformed caller-supplied date. Reported back to
	// the caller before any side effect.
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

	// ErrPersistence: a commit failed and the whole pass was rolled back.
	ErrPersistence = errors.New("persistence error")
)
