// internal/jobs/skuremap/skuremap.go
package skuremap

import (
	"context"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/core/usecases"
	"catalogsync/internal/jobs/common"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/platform/rate"
	"catalogsync/internal/platform/registry"
)

// Self-registration on import.
func init() {
	if err := registry.Global().Register(
		domain.JobSKURemap,
		func(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) (ports.Job, error) {
			return New(deps, cfg, logger), nil
		},
		ports.JobMetadata{
			Name:        "sku-remap",
			Description: "Rewrites catalog SKUs to the feed's using handle, title and fuzzy matching",
			Kind:        domain.JobSKURemap,
		},
	); err != nil {
		logx.New().Warn("failed to register sku-remap job", "error", err.Error())
	}
}

// Job is the sku-remap pipeline, the repair path the SKU-only jobs rely on.
// It runs the full matching ladder over the whole catalog and rewrites each
// matched record's SKU to the feed's value. Earlier feed items claim their
// record first, so a record is never remapped twice in one run.
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
		logger: logger.With("component", "sku-remap"),
		pacer:  common.NewPacer(cfg.WriteDelay),
	}
}

// Kind implements ports.Job.
func (j *Job) Kind() domain.JobKind { return domain.JobSKURemap }

// Close implements ports.Job.
func (j *Job) Close() error { return nil }

// remap is one pending SKU rewrite.
type remap struct {
	variantID string
	recordID  string
	oldSKU    string
	newSKU    string
	matchType domain.MatchType
}

// Run implements ports.Job.
func (j *Job) Run(ctx context.Context, run ports.Run) *domain.RunSummary {
	summary := domain.NewRunSummary(domain.JobSKURemap)

	snap, err := common.FetchSnapshots(ctx, j.deps.Source, j.deps.Destination)
	if err != nil {
		j.logger.Err(err, "job", domain.JobSKURemap)
		run.Errors.Record(err)
		summary.Err = err.Error()
		summary.Finish(domain.RunFailed)
		return summary
	}

	if run.Signal.ShouldAbort() {
		summary.Finish(domain.RunAborted)
		return summary
	}

	matcher := usecases.NewMatchService(snap.Records, j.cfg.FuzzyThreshold)

	var remaps []remap
	for _, item := range snap.Items {
		if err := item.Validate(); err != nil {
			summary.Add(domain.CountSkipped)
			continue
		}
		res := matcher.Match(item)
		if !res.Matched() {
			summary.Add(domain.CountSkipped)
			continue
		}
		if !matcher.Claim(res.Record.ID) {
			// Another feed item already owns this record.
			summary.Add(domain.CountSkipped)
			continue
		}
		if res.Record.SKUKey() == item.SKUKey() {
			continue
		}
		remaps = append(remaps, remap{
			variantID: res.Record.Variant.ID,
			recordID:  res.Record.ID,
			oldSKU:    res.Record.Variant.SKU,
			newSKU:    item.SKU,
			matchType: res.Type,
		})
	}

	j.logger.Info("remap plan computed",
		"feed_items", len(snap.Items),
		"to_remap", len(remaps),
	)

	for _, r := range remaps {
		if run.Signal.ShouldAbort() {
			j.logger.Info("abort observed, stopping", "remapped", summary.Total())
			summary.Finish(domain.RunAborted)
			return summary
		}
		if err := common.Pace(ctx, j.pacer); err != nil {
			summary.Finish(domain.RunAborted)
			return summary
		}

		if err := j.deps.Destination.UpdateSKU(ctx, r.variantID, r.newSKU); err != nil {
			j.logger.Warn("sku update failed",
				"record", r.recordID,
				"sku", r.newSKU,
				"error", err.Error(),
			)
			run.Errors.Record(err)
			summary.ErrorCount++
			continue
		}
		j.logger.Info("sku remapped",
			"record", r.recordID,
			"from", r.oldSKU,
			"to", r.newSKU,
			"match", string(r.matchType),
		)
		summary.Add(domain.CountRemapped)
	}

	summary.Finish(domain.RunCompleted)
	return summary
}
