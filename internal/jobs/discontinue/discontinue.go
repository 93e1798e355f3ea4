// internal/jobs/discontinue/discontinue.go
package discontinue

import (
	"context"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/jobs/common"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/platform/rate"
	"catalogsync/internal/platform/registry"
)

// Self-registration on import.
func init() {
	if err := registry.Global().Register(
		domain.JobDiscontinue,
		func(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) (ports.Job, error) {
			return New(deps, cfg, logger), nil
		},
		ports.JobMetadata{
			Name:        "discontinue",
			Description: "Drafts active catalog records whose SKU left the feed",
			Kind:        domain.JobDiscontinue,
			Gated:       true,
			Destructive: true,
		},
	); err != nil {
		logx.New().Warn("failed to register discontinue job", "error", err.Error())
	}
}

// Job is the discontinue pipeline: any active record of this supplier whose
// SKU no longer appears in the feed is moved to draft. Records are retired,
// never deleted, so a feed glitch is reversible.
type Job struct {
	deps   ports.JobDeps
	cfg    ports.JobConfig
	logger logx.Logger
	pacer  *rate.Limiter
}

// New creates the job.
func New(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) *Job {
	return &Job{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With("component", "discontinue"),
		pacer:  common.NewPacer(cfg.WriteDelay),
	}
}

// Kind implements ports.Job.
func (j *Job) Kind() domain.JobKind { return domain.JobDiscontinue }

// Close implements ports.Job.
func (j *Job) Close() error { return nil }

// retire is one pending status change.
type retire struct {
	id  string
	sku string
}

// Run implements ports.Job.
func (j *Job) Run(ctx context.Context, run ports.Run) *domain.RunSummary {
	summary := domain.NewRunSummary(domain.JobDiscontinue)

	snap, err := common.FetchSnapshots(ctx, j.deps.Source, j.deps.Destination)
	if err != nil {
		return j.fail(run, summary, err)
	}

	if run.Signal.ShouldAbort() {
		summary.Finish(domain.RunAborted)
		return summary
	}

	subset := common.FilterSupplier(snap.Records, j.cfg.SupplierTag, true)
	feedSKUs := common.SourceSKUSet(snap.Items)

	var retires []retire
	for _, rec := range subset {
		key := rec.SKUKey()
		if key == "" || feedSKUs[key] {
			continue
		}
		retires = append(retires, retire{id: rec.ID, sku: rec.Variant.SKU})
	}

	j.logger.Info("divergence computed",
		"active_subset", len(subset),
		"to_retire", len(retires),
	)

	if err := run.Guard.Evaluate(ports.GuardRequest{
		Kind:     domain.JobDiscontinue,
		Affected: len(retires),
		Total:    len(subset),
		Apply: func(ctx context.Context, run ports.Run) *domain.RunSummary {
			confirmed := domain.NewRunSummary(domain.JobDiscontinue)
			j.apply(ctx, run, retires, confirmed)
			return confirmed
		},
	}); err != nil {
		summary.Err = "held by failsafe"
		summary.Finish(domain.RunHalted)
		return summary
	}

	j.apply(ctx, run, retires, summary)
	return summary
}

func (j *Job) apply(ctx context.Context, run ports.Run, retires []retire, summary *domain.RunSummary) {
	for _, r := range retires {
		if run.Signal.ShouldAbort() {
			j.logger.Info("abort observed, stopping", "retired", summary.Total())
			summary.Finish(domain.RunAborted)
			return
		}
		if err := common.Pace(ctx, j.pacer); err != nil {
			summary.Finish(domain.RunAborted)
			return
		}

		if err := j.deps.Destination.UpdateStatus(ctx, r.id, domain.StatusDraft); err != nil {
			j.logger.Warn("status update failed", "sku", r.sku, "record", r.id, "error", err.Error())
			run.Errors.Record(err)
			summary.ErrorCount++
			continue
		}
		summary.Add(domain.CountDrafted)
	}
	summary.Finish(domain.RunCompleted)
}

func (j *Job) fail(run ports.Run, summary *domain.RunSummary, err error) *domain.RunSummary {
	j.logger.Err(err, "job", domain.JobDiscontinue)
	run.Errors.Record(err)
	summary.Err = err.Error()
	summary.Finish(domain.RunFailed)
	return summary
}
