// internal/core/domain/errors.go
package domain

import "errors"

// Common domain errors.
var (
	// Job errors
	ErrInvalidJobKind = errors.New("invalid job kind")
	ErrJobRunning     = errors.New("job already running")
	ErrJobAborted     = errors.New("job aborted by operator")

	// Failsafe errors
	ErrHalted          = errors.New("failsafe halted the batch")
	ErrNoPendingAction = errors.New("no pending failsafe action")

	// Snapshot errors
	ErrSourceFetchFailed      = errors.New("source feed fetch failed")
	ErrDestinationFetchFailed = errors.New("destination catalog fetch failed")

	// Item errors
	ErrEmptySKU      = errors.New("item has no SKU")
	ErrEmptyTitle    = errors.New("item has no title")
	ErrInvalidRecord = errors.New("invalid destination record")
)
