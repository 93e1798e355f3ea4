// internal/core/ports/notifier.go
package ports

import (
	"context"
	"time"
)

// Notifier is the port for operator-facing notifications. Delivery is best
// effort: implementations log failures but the engine never treats a failed
// notification as a job failure.
type Notifier interface {
	// Notify sends one event
	Notify(ctx context.Context, event Event) error

	// Close releases notifier resources
	Close() error
}

// EventType classifies engine events.
type EventType string

const (
	// Job lifecycle
	EventJobStarted   EventType = "job.started"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"
	EventJobRejected  EventType = "job.rejected"

	// Failsafe lifecycle
	EventFailsafeTriggered EventType = "failsafe.triggered"
	EventFailsafeConfirmed EventType = "failsafe.confirmed"
	EventFailsafeAborted   EventType = "failsafe.aborted"
	EventFailsafeCleared   EventType = "failsafe.cleared"

	// Operator controls
	EventPaused  EventType = "control.paused"
	EventResumed EventType = "control.resumed"
)

// EventSeverity ranks event importance.
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event is one engine notification.
type Event struct {
	// Type event classification
	Type EventType

	// Timestamp moment of the event
	Timestamp time.Time

	// Job job kind the event belongs to, empty for control events
	Job string

	// Message human-readable description
	Message string

	// Severity event importance
	Severity EventSeverity

	// Fields additional structured detail
	Fields map[string]string
}

// NewEvent builds an info event stamped with the current time.
func NewEvent(eventType EventType, job, message string) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Job:       job,
		Message:   message,
		Severity:  SeverityInfo,
		Fields:    make(map[string]string),
	}
}

// Critical marks the event as critical and returns it.
func (e Event) Critical() Event {
	e.Severity = SeverityCritical
	return e
}

// WithField attaches one structured detail field.
func (e Event) WithField(key, value string) Event {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = value
	return e
}
