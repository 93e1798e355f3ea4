// internal/core/domain/enums.go
package domain

// JobKind identifies one of the reconciliation jobs. Each kind has its own
// concurrency lock and run summary; at most one job per kind runs at a time.
type JobKind string

const (
	// JobInventorySync corrects inventory drift between feed and catalog
	JobInventorySync JobKind = "inventory-sync"

	// JobCreateNew creates catalog records for feed items with no SKU match
	JobCreateNew JobKind = "create-new"

	// JobDiscontinue drafts catalog records whose SKU left the feed
	JobDiscontinue JobKind = "discontinue"

	// JobDeduplicate removes catalog records sharing a normalized title
	JobDeduplicate JobKind = "deduplicate"

	// JobSKURemap repairs mis-linked SKUs via full matching
	JobSKURemap JobKind = "sku-remap"
)

// AllJobKinds lists every job kind in scheduling order.
func AllJobKinds() []JobKind {
	return []JobKind{JobInventorySync, JobCreateNew, JobDiscontinue, JobDeduplicate, JobSKURemap}
}

// IsValid verifies the job kind is one of the known kinds.
func (k JobKind) IsValid() bool {
	switch k {
	case JobInventorySync, JobCreateNew, JobDiscontinue, JobDeduplicate, JobSKURemap:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k JobKind) String() string {
	return string(k)
}

// RecordStatus is the publication status of a destination record.
type RecordStatus string

const (
	// StatusActive means the record is live and visible to customers
	StatusActive RecordStatus = "active"

	// StatusDraft means the record is retired or not yet published
	StatusDraft RecordStatus = "draft"
)

// IsValid verifies the status is a known status.
func (s RecordStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDraft:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s RecordStatus) String() string {
	return string(s)
}

// RunOutcome classifies how a job run ended.
type RunOutcome string

const (
	// RunCompleted means the run finished its batch (item errors possible)
	RunCompleted RunOutcome = "completed"

	// RunFailed means a snapshot fetch failed and no mutation was attempted
	RunFailed RunOutcome = "failed"

	// RunHalted means the failsafe captured the batch before any mutation
	RunHalted RunOutcome = "halted"

	// RunAborted means a pause or epoch change stopped the run mid-batch
	RunAborted RunOutcome = "aborted"
)

// String returns the string representation of the outcome.
func (o RunOutcome) String() string {
	return string(o)
}
