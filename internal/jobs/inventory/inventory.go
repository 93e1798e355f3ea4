// internal/jobs/inventory/inventory.go
package inventory

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
		domain.JobInventorySync,
		func(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) (ports.Job, error) {
			return New(deps, cfg, logger), nil
		},
		ports.JobMetadata{
			Name:        "inventory-sync",
			Description: "Corrects inventory drift between the feed and the catalog",
			Kind:        domain.JobInventorySync,
			Gated:       true,
		},
	); err != nil {
		logx.New().Warn("failed to register inventory-sync job", "error", err.Error())
	}
}

// Job is the inventory-sync pipeline. It links feed items to catalog records
// by exact SKU only and pushes the feed's level wherever the catalog
// disagrees. By this stage SKUs are assumed already linked; the sku-remap job
// is the repair path for anything else.
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
		logger: logger.With("component", "inventory-sync"),
		pacer:  common.NewPacer(cfg.WriteDelay),
	}
}

// Kind implements ports.Job.
func (j *Job) Kind() domain.JobKind { return domain.JobInventorySync }

// Close implements ports.Job.
func (j *Job) Close() error { return nil }

// update is one pending inventory correction.
type update struct {
	sku    string
	itemID string
	qty    int
}

// Run implements ports.Job.
func (j *Job) Run(ctx context.Context, run ports.Run) *domain.RunSummary {
	summary := domain.NewRunSummary(domain.JobInventorySync)

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

	// Inventory levels come from a dedicated endpoint; the record snapshot
	// only carries linkage fields.
	itemIDs := make([]string, 0, len(subset))
	for _, rec := range subset {
		if rec.Variant.InventoryItemID != "" {
			itemIDs = append(itemIDs, rec.Variant.InventoryItemID)
		}
	}
	levels, err := j.deps.Destination.FetchInventoryLevels(ctx, itemIDs)
	if err != nil {
		return j.fail(run, summary, err)
	}

	var updates []update
	for _, item := range snap.Items {
		rec, ok := index[item.SKUKey()]
		if !ok || rec.Variant.InventoryItemID == "" {
			continue
		}
		if levels[rec.Variant.InventoryItemID] != item.Inventory {
			updates = append(updates, update{
				sku:    item.SKU,
				itemID: rec.Variant.InventoryItemID,
				qty:    item.Inventory,
			})
		}
	}

	j.logger.Info("divergence computed",
		"subset", len(subset),
		"divergent", len(updates),
	)

	if err := run.Guard.Evaluate(ports.GuardRequest{
		Kind:     domain.JobInventorySync,
		Affected: len(updates),
		Total:    len(subset),
		Apply: func(ctx context.Context, run ports.Run) *domain.RunSummary {
			confirmed := domain.NewRunSummary(domain.JobInventorySync)
			j.apply(ctx, run, updates, confirmed)
			return confirmed
		},
	}); err != nil {
		summary.Err = "held by failsafe"
		summary.Finish(domain.RunHalted)
		return summary
	}

	j.apply(ctx, run, updates, summary)
	return summary
}

// apply pushes the corrections one at a time: abort check, pacing, write.
// One item's failure never blocks the rest.
func (j *Job) apply(ctx context.Context, run ports.Run, updates []update, summary *domain.RunSummary) {
	for _, u := range updates {
		if run.Signal.ShouldAbort() {
			j.logger.Info("abort observed, stopping", "applied", summary.Total())
			summary.Finish(domain.RunAborted)
			return
		}
		if err := common.Pace(ctx, j.pacer); err != nil {
			summary.Finish(domain.RunAborted)
			return
		}

		if err := j.deps.Destination.SetInventory(ctx, u.itemID, u.qty); err != nil {
			j.logger.Warn("inventory update failed", "sku", u.sku, "error", err.Error())
			run.Errors.Record(err)
			summary.ErrorCount++
			continue
		}
		summary.Add(domain.CountUpdated)
	}
	summary.Finish(domain.RunCompleted)
}

func (j *Job) fail(run ports.Run, summary *domain.RunSummary, err error) *domain.RunSummary {
	j.logger.Err(err, "job", domain.JobInventorySync)
	run.Errors.Record(err)
	summary.Err = err.Error()
	summary.Finish(domain.RunFailed)
	return summary
}
