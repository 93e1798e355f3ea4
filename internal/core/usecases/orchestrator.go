// internal/core/usecases/orchestrator.go
package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/errdedup"
	"catalogsync/internal/platform/logx"
)

// eventLogSize bounds the in-memory event log on the status surface.
const eventLogSize = 100

// Orchestrator owns every piece of cross-run mutable state: the per-kind
// lock table, the cancellation epoch, the paused flag, the failsafe, the run
// summaries and the error tally. All of it sits behind one mutex and is only
// reachable through methods on this instance; there are no package globals.
//
// Single-process, single-writer: the lock table's check-and-set is atomic
// relative to a manual trigger and a scheduled trigger racing on the same
// kind; the loser observes running=true and is rejected without side
// effects.
type Orchestrator struct {
	mu        sync.Mutex
	running   map[domain.JobKind]bool
	epoch     uint64
	paused    bool
	summaries map[domain.JobKind]domain.RunSummary
	events    []ports.Event

	jobs     map[domain.JobKind]ports.Job
	failsafe *Failsafe
	tally    *errdedup.Tally
	notifier ports.Notifier
	logger   logx.Logger

	wg sync.WaitGroup
}

// OrchestratorOptions configures the orchestrator.
type OrchestratorOptions struct {
	Jobs     []ports.Job
	Failsafe FailsafeConfig
	Notifier ports.Notifier
	Logger   logx.Logger
}

// NewOrchestrator wires the orchestrator and its failsafe.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	o := &Orchestrator{
		running:   make(map[domain.JobKind]bool),
		summaries: make(map[domain.JobKind]domain.RunSummary),
		jobs:      make(map[domain.JobKind]ports.Job, len(opts.Jobs)),
		tally:     errdedup.NewTally(),
		notifier:  opts.Notifier,
		logger:    opts.Logger.With("component", "orchestrator"),
	}
	o.failsafe = NewFailsafe(opts.Failsafe, o, opts.Logger)

	for _, job := range opts.Jobs {
		o.jobs[job.Kind()] = job
	}

	return o
}

// token is the cancellation signal handed to one run. It captures the epoch
// at job start; a pause, an operator abort or a failsafe trip makes every
// later ShouldAbort call answer true.
type token struct {
	epoch uint64
	o     *Orchestrator
}

// ShouldAbort implements ports.Signal. Pipelines call it at every loop
// boundary, so a cancellation costs at most one in-flight item operation.
func (t token) ShouldAbort() bool {
	t.o.mu.Lock()
	paused := t.o.paused
	epoch := t.o.epoch
	t.o.mu.Unlock()

	return paused || t.o.failsafe.Triggered() || t.epoch != epoch
}

// StartJob starts the named kind as a detached unit of work. Returns false
// without side effects when the kind is already running or unknown; a
// duplicate start is a logged no-op, not an error.
func (o *Orchestrator) StartJob(ctx context.Context, kind domain.JobKind) bool {
	job, ok := o.jobs[kind]
	if !ok {
		o.logger.Warn("unknown job kind", "job", kind)
		return false
	}

	run, ok := o.acquire(kind)
	if !ok {
		o.logger.Info("job already running, start rejected", "job", kind)
		o.emit(ports.NewEvent(ports.EventJobRejected, kind.String(), "duplicate start rejected"))
		return false
	}

	o.logger.Info("job started", "job", kind)
	o.emit(ports.NewEvent(ports.EventJobStarted, kind.String(), "run started"))

	o.detach(ctx, kind, run, func(ctx context.Context, run ports.Run) *domain.RunSummary {
		return job.Run(ctx, run)
	})
	return true
}

// acquire atomically checks and sets the kind's lock and hands out a run
// bound to the current epoch.
func (o *Orchestrator) acquire(kind domain.JobKind) (ports.Run, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running[kind] {
		return ports.Run{}, false
	}
	o.running[kind] = true

	return ports.Run{
		Signal: token{epoch: o.epoch, o: o},
		Guard:  o.failsafe,
		Errors: o.tally,
	}, true
}

// detach runs body in a goroutine. Panics are caught, logged and recorded as
// a failed run; the lock is released on every exit path.
func (o *Orchestrator) detach(ctx context.Context, kind domain.JobKind, run ports.Run, body func(context.Context, ports.Run) *domain.RunSummary) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		var summary *domain.RunSummary
		defer func() {
			if r := recover(); r != nil {
				o.logger.Err(fmt.Errorf("job panicked: %v", r), "job", kind)
				summary = domain.NewRunSummary(kind)
				summary.Err = fmt.Sprintf("panic: %v", r)
				summary.Finish(domain.RunFailed)
			}
			o.finish(kind, summary)
		}()

		summary = body(ctx, run)
	}()
}

// finish releases the lock and records the summary. The summary map only
// ever holds completed runs, never a partial in-flight state.
func (o *Orchestrator) finish(kind domain.JobKind, summary *domain.RunSummary) {
	o.mu.Lock()
	o.running[kind] = false
	if summary != nil {
		o.summaries[kind] = *summary
	}
	o.mu.Unlock()

	if summary == nil {
		return
	}

	switch summary.Outcome {
	case domain.RunFailed:
		o.emit(ports.NewEvent(ports.EventJobFailed, kind.String(), summary.Err).Critical())
	case domain.RunCompleted:
		o.emit(ports.NewEvent(ports.EventJobCompleted, kind.String(),
			fmt.Sprintf("%d mutations, %d errors", summary.Total(), summary.ErrorCount)))
	}

	o.logger.Info("job finished",
		"job", kind,
		"outcome", summary.Outcome,
		"mutations", summary.Total(),
		"errors", summary.ErrorCount,
		"duration", summary.Duration(),
	)
}

// Pause sets the paused flag and advances the epoch, so every running job
// observes abort at its next loop boundary. Already-issued remote calls are
// not rolled back.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	o.paused = true
	o.epoch++
	o.mu.Unlock()

	o.logger.Info("paused")
	o.emit(ports.NewEvent(ports.EventPaused, "", "reconciliation paused"))
}

// Resume clears the paused flag. The epoch advances again so jobs started
// before the pause stay invalidated.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	o.paused = false
	o.epoch++
	o.mu.Unlock()

	o.logger.Info("resumed")
	o.emit(ports.NewEvent(ports.EventResumed, "", "reconciliation resumed"))
}

// ConfirmFailsafe runs the captured batch, if any, as a regular detached job
// under the owning kind's lock. Idempotent: confirming with nothing pending
// is a no-op.
func (o *Orchestrator) ConfirmFailsafe(ctx context.Context) bool {
	pa := o.failsafe.TakePending()
	if pa == nil {
		o.logger.Info("confirm with no pending action, ignoring")
		return false
	}

	run, ok := o.acquire(pa.Kind)
	if !ok {
		// the kind restarted meanwhile; put nothing back, the batch is stale
		o.logger.Warn("confirm rejected, job running", "job", pa.Kind)
		return false
	}

	o.logger.Info("failsafe confirmed, applying captured batch",
		"job", pa.Kind, "items", pa.Affected)
	o.emit(ports.NewEvent(ports.EventFailsafeConfirmed, pa.Kind.String(),
		fmt.Sprintf("applying %d held mutations", pa.Affected)))

	o.detach(ctx, pa.Kind, run, pa.Apply)
	return true
}

// AbortFailsafe discards the captured batch and advances the epoch so any
// loop that had already started skips its remaining items.
func (o *Orchestrator) AbortFailsafe() {
	o.failsafe.Discard()

	o.mu.Lock()
	o.epoch++
	o.mu.Unlock()

	o.logger.Info("failsafe aborted, batch discarded")
	o.emit(ports.NewEvent(ports.EventFailsafeAborted, "", "held batch discarded"))
}

// ClearFailsafe clears the triggered state without running the action, for
// halts that turned out to be informational.
func (o *Orchestrator) ClearFailsafe() {
	o.failsafe.Discard()
	o.logger.Info("failsafe cleared")
	o.emit(ports.NewEvent(ports.EventFailsafeCleared, "", "failsafe state cleared"))
}

// Status is the operator-facing snapshot.
type Status struct {
	Paused    bool
	Epoch     uint64
	Running   []domain.JobKind
	Failsafe  FailsafeState
	Summaries map[domain.JobKind]domain.RunSummary
	TopErrors []errdedup.Entry
	Events    []ports.Event
}

// Status returns a consistent snapshot of orchestrator state. It always
// reflects the latest completed or halted state, never a silently lost run.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{
		Paused:    o.paused,
		Epoch:     o.epoch,
		Failsafe:  o.failsafe.State(),
		Summaries: make(map[domain.JobKind]domain.RunSummary, len(o.summaries)),
		TopErrors: o.tally.Top(10),
		Events:    append([]ports.Event(nil), o.events...),
	}
	for kind, s := range o.summaries {
		st.Summaries[kind] = s
	}
	for kind, running := range o.running {
		if running {
			st.Running = append(st.Running, kind)
		}
	}
	return st
}

// Notify implements ports.Notifier: the orchestrator sits between the
// engine and the external notifier so every event also lands in the status
// event log. Forwarding is best effort.
func (o *Orchestrator) Notify(ctx context.Context, event ports.Event) error {
	o.record(event)
	if o.notifier == nil {
		return nil
	}
	return o.notifier.Notify(ctx, event)
}

// Close waits for in-flight jobs and closes them.
func (o *Orchestrator) Close() error {
	o.wg.Wait()
	var firstErr error
	for _, job := range o.jobs {
		if err := job.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wait blocks until every detached job has finished. Test and CLI helper.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) emit(event ports.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Notify(ctx, event); err != nil {
		o.logger.Warn("notification failed", "type", event.Type, "error", err.Error())
	}
}

func (o *Orchestrator) record(event ports.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	if len(o.events) > eventLogSize {
		o.events = o.events[len(o.events)-eventLogSize:]
	}
}
