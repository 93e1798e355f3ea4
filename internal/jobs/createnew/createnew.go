// internal/jobs/createnew/createnew.go
package createnew

import (
	"context"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/jobs/common"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/platform/rate"
	"catalogsync/internal/platform/registry"
	"catalogsync/internal/platform/textnorm"
)

// Self-registration on import.
func init() {
	if err := registry.Global().Register(
		domain.JobCreateNew,
		func(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) (ports.Job, error) {
			return New(deps, cfg, logger), nil
		},
		ports.JobMetadata{
			Name:        "create-new",
			Description: "Creates catalog records for feed items with no SKU match",
			Kind:        domain.JobCreateNew,
			Gated:       true,
		},
	); err != nil {
		logx.New().Warn("failed to register create-new job", "error", err.Error())
	}
}

// Job is the create-new pipeline. Candidates are selected by exact SKU only:
// a feed item whose title matches an existing record but whose SKU does not
// will still be proposed, so running sku-remap first is what keeps this job
// from creating duplicates.
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
		logger: logger.With("component", "create-new"),
		pacer:  common.NewPacer(cfg.WriteDelay),
	}
}

// Kind implements ports.Job.
func (j *Job) Kind() domain.JobKind { return domain.JobCreateNew }

// Close implements ports.Job.
func (j *Job) Close() error { return nil }

// Run implements ports.Job.
func (j *Job) Run(ctx context.Context, run ports.Run) *domain.RunSummary {
	summary := domain.NewRunSummary(domain.JobCreateNew)

	snap, err := common.FetchSnapshots(ctx, j.deps.Source, j.deps.Destination)
	if err != nil {
		return j.fail(run, summary, err)
	}

	if run.Signal.ShouldAbort() {
		summary.Finish(domain.RunAborted)
		return summary
	}

	subset := common.FilterSupplier(snap.Records, j.cfg.SupplierTag, false)
	index := common.SKUIndex(subset)

	var candidates []domain.SourceItem
	for _, item := range snap.Items {
		if err := item.Validate(); err != nil {
			j.logger.Debug("skipping invalid feed item", "sku", item.SKU, "error", err.Error())
			summary.Add(domain.CountSkipped)
			continue
		}
		if _, exists := index[item.SKUKey()]; !exists {
			candidates = append(candidates, item)
		}
	}

	j.logger.Info("candidates computed",
		"feed", len(snap.Items),
		"subset", len(subset),
		"candidates", len(candidates),
	)

	// The guard sees the full candidate count, since that is the anomaly
	// signal; execution is capped separately below.
	batch := candidates
	if j.cfg.MaxPerRun > 0 && len(batch) > j.cfg.MaxPerRun {
		batch = batch[:j.cfg.MaxPerRun]
	}

	if err := run.Guard.Evaluate(ports.GuardRequest{
		Kind:     domain.JobCreateNew,
		Affected: len(candidates),
		Apply: func(ctx context.Context, run ports.Run) *domain.RunSummary {
			confirmed := domain.NewRunSummary(domain.JobCreateNew)
			j.apply(ctx, run, batch, confirmed)
			return confirmed
		},
	}); err != nil {
		summary.Err = "held by failsafe"
		summary.Finish(domain.RunHalted)
		return summary
	}

	j.apply(ctx, run, batch, summary)
	return summary
}

// apply creates records one at a time. Creation is two remote calls: the
// create itself, then the initial inventory level. When the second call
// fails the record already exists with no stock: a split failure, surfaced
// distinctly because there is no rollback.
func (j *Job) apply(ctx context.Context, run ports.Run, batch []domain.SourceItem, summary *domain.RunSummary) {
	for _, item := range batch {
		if run.Signal.ShouldAbort() {
			j.logger.Info("abort observed, stopping", "created", summary.Total())
			summary.Finish(domain.RunAborted)
			return
		}
		if err := common.Pace(ctx, j.pacer); err != nil {
			summary.Finish(domain.RunAborted)
			return
		}

		rec, err := j.deps.Destination.CreateRecord(ctx, j.recordInput(item))
		if err != nil {
			j.logger.Warn("create failed", "sku", item.SKU, "error", err.Error())
			run.Errors.Record(err)
			summary.ErrorCount++
			continue
		}
		summary.Add(domain.CountCreated)

		if err := common.Pace(ctx, j.pacer); err != nil {
			summary.Finish(domain.RunAborted)
			return
		}
		if err := j.deps.Destination.SetInventory(ctx, rec.Variant.InventoryItemID, item.Inventory); err != nil {
			j.logger.Warn("inventory set failed after create",
				"sku", item.SKU,
				"record", rec.ID,
				"split_failure", true,
				"error", err.Error(),
			)
			run.Errors.Record(err)
			summary.ErrorCount++
			summary.Add(domain.CountSplitFailure)
		}
	}
	summary.Finish(domain.RunCompleted)
}

func (j *Job) recordInput(item domain.SourceItem) ports.RecordInput {
	handle := item.Handle
	if handle == "" {
		handle = textnorm.Handle(item.Title)
	}
	return ports.RecordInput{
		Title:       item.Title,
		Handle:      handle,
		Tags:        []string{j.cfg.SupplierTag},
		Status:      domain.StatusActive,
		Description: item.Description,
		Images:      item.Images,
		Variant: domain.Variant{
			SKU:   item.SKU,
			Price: item.Price,
		},
	}
}

func (j *Job) fail(run ports.Run, summary *domain.RunSummary, err error) *domain.RunSummary {
	j.logger.Err(err, "job", domain.JobCreateNew)
	run.Errors.Record(err)
	summary.Err = err.Error()
	summary.Finish(domain.RunFailed)
	return summary
}
