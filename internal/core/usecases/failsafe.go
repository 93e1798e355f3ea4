// internal/core/usecases/failsafe.go
package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/logx"
)

// FailsafeConfig carries the blast-radius limits per gated job kind.
type FailsafeConfig struct {
	// InventoryPercentLimit max fraction of the destination subset an
	// inventory-sync run may touch, in percent
	InventoryPercentLimit float64

	// DiscontinuePercentLimit max fraction a discontinue run may retire
	DiscontinuePercentLimit float64

	// CreateAbsoluteLimit max number of records a create-new run may
	// propose before the batch is held for review
	CreateAbsoluteLimit int
}

// DefaultFailsafeConfig returns the shipped limits.
func DefaultFailsafeConfig() FailsafeConfig {
	return FailsafeConfig{
		InventoryPercentLimit:   5,
		DiscontinuePercentLimit: 10,
		CreateAbsoluteLimit:     25,
	}
}

// PendingAction is the command captured on a halt: the job kind, the size of
// the held batch, and an apply function bound to exactly the divergence set
// that tripped the guard. The confirm path re-dispatches through it.
type PendingAction struct {
	// Kind job kind whose batch was held
	Kind domain.JobKind

	// Affected number of mutations in the held batch
	Affected int

	// CapturedAt when the guard tripped
	CapturedAt time.Time

	// Apply executes the held batch and returns that pass's summary
	Apply func(ctx context.Context, run ports.Run) *domain.RunSummary
}

// FailsafeState is the externally visible guard state.
type FailsafeState struct {
	Triggered   bool
	Reason      string
	PendingKind domain.JobKind
	PendingSize int
	CapturedAt  time.Time
}

// Failsafe is the circuit breaker gating bulk mutation. One instance exists
// per orchestrator; a triggered state persists across runs until an operator
// confirms, aborts or clears it. Each gated kind evaluates once per run
// before any mutation, so a second halt while one is active is not expected
// by construction: the halt stops that kind's pipeline before it can
// evaluate again.
type Failsafe struct {
	mu        sync.Mutex
	triggered bool
	reason    string
	pending   *PendingAction

	cfg      FailsafeConfig
	notifier ports.Notifier
	logger   logx.Logger
}

// NewFailsafe creates the guard. The notifier receives a critical event on
// every trip; delivery failures are logged, never propagated.
func NewFailsafe(cfg FailsafeConfig, notifier ports.Notifier, logger logx.Logger) *Failsafe {
	return &Failsafe{
		cfg:      cfg,
		notifier: notifier,
		logger:   logger.With("component", "failsafe"),
	}
}

// Evaluate checks one batch against the limits. Exactly at the limit is
// allowed; strictly greater trips the halt, captures the batch and returns
// domain.ErrHalted.
func (f *Failsafe) Evaluate(req ports.GuardRequest) error {
	reason, trip := f.check(req)
	if !trip {
		f.logger.Debug("batch within limits",
			"job", req.Kind,
			"affected", req.Affected,
			"total", req.Total,
		)
		return nil
	}

	f.mu.Lock()
	f.triggered = true
	f.reason = reason
	f.pending = &PendingAction{
		Kind:       req.Kind,
		Affected:   req.Affected,
		CapturedAt: time.Now(),
		Apply:      req.Apply,
	}
	f.mu.Unlock()

	f.logger.Warn("failsafe triggered", "job", req.Kind, "reason", reason)
	f.emit(ports.NewEvent(ports.EventFailsafeTriggered, req.Kind.String(), reason).
		Critical().
		WithField("affected", fmt.Sprintf("%d", req.Affected)))

	return domain.ErrHalted
}

func (f *Failsafe) check(req ports.GuardRequest) (string, bool) {
	switch req.Kind {
	case domain.JobInventorySync, domain.JobDiscontinue:
		limit := f.cfg.InventoryPercentLimit
		if req.Kind == domain.JobDiscontinue {
			limit = f.cfg.DiscontinuePercentLimit
		}
		if req.Total <= 0 {
			return "", false
		}
		pct := float64(req.Affected) / float64(req.Total) * 100
		if pct > limit {
			return fmt.Sprintf("%s would touch %d of %d records (%.1f%% > %.1f%% limit)",
				req.Kind, req.Affected, req.Total, pct, limit), true
		}
		return "", false

	case domain.JobCreateNew:
		if req.Affected > f.cfg.CreateAbsoluteLimit {
			return fmt.Sprintf("%s would create %d records (limit %d)",
				req.Kind, req.Affected, f.cfg.CreateAbsoluteLimit), true
		}
		return "", false

	default:
		// ungated kinds pass through
		return "", false
	}
}

// TakePending atomically clears the triggered state and returns the held
// action. Returns nil when nothing is pending, which makes confirm a no-op.
func (f *Failsafe) TakePending() *PendingAction {
	f.mu.Lock()
	defer f.mu.Unlock()

	pa := f.pending
	f.pending = nil
	f.triggered = false
	f.reason = ""
	return pa
}

// Discard clears the triggered state and drops the held action without
// running it.
func (f *Failsafe) Discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = nil
	f.triggered = false
	f.reason = ""
}

// Triggered reports whether the guard is currently tripped.
func (f *Failsafe) Triggered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggered
}

// State returns a snapshot of the guard state.
func (f *Failsafe) State() FailsafeState {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := FailsafeState{
		Triggered: f.triggered,
		Reason:    f.reason,
	}
	if f.pending != nil {
		st.PendingKind = f.pending.Kind
		st.PendingSize = f.pending.Affected
		st.CapturedAt = f.pending.CapturedAt
	}
	return st
}

func (f *Failsafe) emit(event ports.Event) {
	if f.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.notifier.Notify(ctx, event); err != nil {
		f.logger.Warn("notification failed", "type", event.Type, "error", err.Error())
	}
}
