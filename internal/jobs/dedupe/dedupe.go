// internal/jobs/dedupe/dedupe.go
package dedupe

import (
	"context"
	"sort"

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
		domain.JobDeduplicate,
		func(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) (ports.Job, error) {
			return New(deps, cfg, logger), nil
		},
		ports.JobMetadata{
			Name:        "deduplicate",
			Description: "Deletes catalog records sharing a normalized title, keeping the oldest",
			Kind:        domain.JobDeduplicate,
			Destructive: true,
		},
	); err != nil {
		logx.New().Warn("failed to register deduplicate job", "error", err.Error())
	}
}

// Job is the deduplicate pipeline. It needs no feed: duplicates are groups of
// catalog records whose titles normalize to the same string. The earliest
// created record of each group survives, the rest are deleted oldest-first.
// The whole catalog is scanned, not just this supplier's subset, because a
// duplicate pair can straddle a tagging mistake.
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
		logger: logger.With("component", "deduplicate"),
		pacer:  common.NewPacer(cfg.WriteDelay),
	}
}

// Kind implements ports.Job.
func (j *Job) Kind() domain.JobKind { return domain.JobDeduplicate }

// Close implements ports.Job.
func (j *Job) Close() error { return nil }

// Run implements ports.Job.
func (j *Job) Run(ctx context.Context, run ports.Run) *domain.RunSummary {
	summary := domain.NewRunSummary(domain.JobDeduplicate)

	records, err := j.deps.Destination.FetchAll(ctx, common.RecordFields)
	if err != nil {
		j.logger.Err(err, "job", domain.JobDeduplicate)
		run.Errors.Record(err)
		summary.Err = err.Error()
		summary.Finish(domain.RunFailed)
		return summary
	}

	if run.Signal.ShouldAbort() {
		summary.Finish(domain.RunAborted)
		return summary
	}

	groups := make(map[string][]domain.DestinationRecord)
	for _, rec := range records {
		key := textnorm.Normalize(rec.Title)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], rec)
	}

	// Deterministic pass order over the groups.
	keys := make([]string, 0, len(groups))
	for key, group := range groups {
		if len(group) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var doomed []domain.DestinationRecord
	for _, key := range keys {
		group := groups[key]
		sort.Slice(group, func(a, b int) bool {
			return group[a].CreatedAt.Before(group[b].CreatedAt)
		})
		j.logger.Info("duplicate group",
			"title", key,
			"size", len(group),
			"keeping", group[0].ID,
		)
		doomed = append(doomed, group[1:]...)
	}

	for _, rec := range doomed {
		if run.Signal.ShouldAbort() {
			j.logger.Info("abort observed, stopping", "deleted", summary.Total())
			summary.Finish(domain.RunAborted)
			return summary
		}
		if err := common.Pace(ctx, j.pacer); err != nil {
			summary.Finish(domain.RunAborted)
			return summary
		}

		if err := j.deps.Destination.Delete(ctx, rec.ID); err != nil {
			j.logger.Warn("delete failed", "record", rec.ID, "title", rec.Title, "error", err.Error())
			run.Errors.Record(err)
			summary.ErrorCount++
			continue
		}
		summary.Add(domain.CountDeleted)
	}

	summary.Finish(domain.RunCompleted)
	return summary
}
