// internal/core/ports/job.go
package ports

import (
	"context"
	"time"

	"catalogsync/internal/core/domain"
)

// Job is the primary port for the reconciliation pipelines. Every job kind
// (inventory-sync, create-new, discontinue, deduplicate, sku-remap)
// implements this interface and is executed under the orchestrator's
// per-kind lock.
type Job interface {
	// Kind returns the unique job kind
	Kind() domain.JobKind

	// Run executes one reconciliation pass. The returned summary must be
	// complete on every exit path, including fetch failures and halts.
	Run(ctx context.Context, run Run) *domain.RunSummary

	// Close releases resources held by the job
	Close() error
}

// Signal is the cooperative cancellation token handed to a job at start.
// Pipelines must consult it at every loop boundary before mutating.
type Signal interface {
	// ShouldAbort reports whether the run must stop before the next mutation
	ShouldAbort() bool
}

// Guard gates bulk mutation behind the failsafe. Gated pipelines evaluate
// once per run, after computing the divergence set and before the first
// write. A domain.ErrHalted return means the batch was captured for operator
// review and the pipeline must stop immediately.
type Guard interface {
	// Evaluate checks the blast radius and captures the batch on a trip
	Evaluate(req GuardRequest) error
}

// GuardRequest describes one batch submitted to the failsafe.
type GuardRequest struct {
	// Kind job kind being gated
	Kind domain.JobKind

	// Affected size of the divergence set about to be applied
	Affected int

	// Total size of the filtered destination subset (percentage base);
	// ignored for absolute-bounded kinds
	Total int

	// Apply re-runs exactly the captured batch when the operator confirms.
	// It receives a fresh Run so the confirm pass observes the current
	// cancellation epoch, and returns the summary of that pass.
	Apply func(ctx context.Context, run Run) *domain.RunSummary
}

// ErrorTally aggregates per-item errors by normalized message so that
// repeated failures collapse to one counter on the status surface.
type ErrorTally interface {
	// Record counts one error occurrence
	Record(err error)
}

// Run bundles the per-run collaborators the orchestrator hands to a job.
type Run struct {
	// Signal cancellation token captured at job start
	Signal Signal

	// Guard failsafe gate shared by all gated kinds
	Guard Guard

	// Errors central error-frequency tally
	Errors ErrorTally
}

// JobConfig carries the tunables of one job kind.
type JobConfig struct {
	// Enabled whether the kind may be started
	Enabled bool

	// PercentLimit failsafe percentage limit (inventory-sync, discontinue)
	PercentLimit float64

	// AbsoluteLimit failsafe absolute limit (create-new)
	AbsoluteLimit int

	// MaxPerRun cap on mutations executed in a single run (0 = no cap)
	MaxPerRun int

	// WriteDelay minimum spacing between remote writes
	WriteDelay time.Duration

	// FuzzyThreshold fuzzy title match acceptance threshold, percent
	FuzzyThreshold float64

	// SupplierTag tag marking records owned by this integration
	SupplierTag string
}

// DefaultJobConfig returns conservative defaults.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		Enabled:        true,
		PercentLimit:   5,
		AbsoluteLimit:  25,
		MaxPerRun:      50,
		WriteDelay:     500 * time.Millisecond,
		FuzzyThreshold: 60,
		SupplierTag:    "supplier-feed",
	}
}

// JobDeps are the external collaborators injected into every job.
type JobDeps struct {
	// Source the supplier feed
	Source SourceCatalog

	// Destination the commerce platform catalog
	Destination DestinationCatalog

	// Notifier best-effort operator notifications
	Notifier Notifier
}

// JobMetadata describes a job kind for the registry and the status surface.
type JobMetadata struct {
	Name        string
	Description string
	Kind        domain.JobKind

	// Gated whether the kind evaluates the failsafe before writing
	Gated bool

	// Destructive whether the kind deletes or retires records
	Destructive bool
}
