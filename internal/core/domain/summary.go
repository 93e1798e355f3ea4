// internal/core/domain/summary.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Count keys shared by the pipelines. Pipelines may add their own keys;
// these are the ones the status surface knows how to label.
const (
	CountUpdated      = "updated"
	CountCreated      = "created"
	CountDrafted      = "drafted"
	CountDeleted      = "deleted"
	CountRemapped     = "remapped"
	CountSkipped      = "skipped"
	CountSplitFailure = "split_failure"
)

// RunSummary captures the outcome of the most recently completed run of one
// job kind. It is overwritten whole at the end of each run and never reflects
// a partial in-flight state.
type RunSummary struct {
	// RunID unique identifier for this run
	RunID string

	// Kind the job kind this summary belongs to
	Kind JobKind

	// StartedAt when the run began
	StartedAt time.Time

	// FinishedAt when the run ended, on any path
	FinishedAt time.Time

	// Outcome how the run ended
	Outcome RunOutcome

	// Counts per-outcome mutation tallies (created, updated, ...)
	Counts map[string]int

	// ErrorCount number of per-item errors logged during the run
	ErrorCount int

	// Err terse reason for failed or halted runs
	Err string
}

// NewRunSummary starts a summary for a fresh run of the given kind.
func NewRunSummary(kind JobKind) *RunSummary {
	return &RunSummary{
		RunID:     uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
		Counts:    make(map[string]int),
	}
}

// Add increments one outcome counter.
func (s *RunSummary) Add(key string) {
	if s.Counts == nil {
		s.Counts = make(map[string]int)
	}
	s.Counts[key]++
}

// Finish stamps the end of the run with its outcome.
func (s *RunSummary) Finish(outcome RunOutcome) {
	s.FinishedAt = time.Now()
	s.Outcome = outcome
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Total returns the sum of all outcome counters.
func (s *RunSummary) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}
