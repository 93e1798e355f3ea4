// internal/platform/registry/job_registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/logx"
)

// JobRegistry manages registration and construction of reconciliation jobs.
// Registry + factory keeps job creation out of application code: each job
// package registers itself from init() and the binary builds whatever is
// enabled in config.
type JobRegistry struct {
	mu        sync.RWMutex
	factories map[domain.JobKind]JobFactory
	metadata  map[domain.JobKind]ports.JobMetadata
	logger    logx.Logger
}

// JobFactory creates one job instance from its collaborators and config.
type JobFactory func(deps ports.JobDeps, cfg ports.JobConfig, logger logx.Logger) (ports.Job, error)

// globalRegistry is the process-wide registry instance.
var globalRegistry *JobRegistry
var once sync.Once

// Global returns the global registry instance.
func Global() *JobRegistry {
	once.Do(func() {
		globalRegistry = NewJobRegistry(logx.New())
	})
	return globalRegistry
}

// NewJobRegistry creates an empty job registry.
func NewJobRegistry(logger logx.Logger) *JobRegistry {
	return &JobRegistry{
		factories: make(map[domain.JobKind]JobFactory),
		metadata:  make(map[domain.JobKind]ports.JobMetadata),
		logger:    logger.With("component", "job-registry"),
	}
}

// Register registers a job factory with its metadata. Typically called from
// init() of each job package.
func (r *JobRegistry) Register(kind domain.JobKind, factory JobFactory, meta ports.JobMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !kind.IsValid() {
		return fmt.Errorf("invalid job kind %q", kind)
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for job %s", kind)
	}
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("job %s is already registered", kind)
	}

	r.factories[kind] = factory
	r.metadata[kind] = meta
	r.logger.Debug("job registered", "job", kind, "gated", meta.Gated)

	return nil
}

// Build constructs every enabled job from the per-kind configuration.
// Individual build failures are logged and skipped; Build only fails when
// nothing could be built at all.
func (r *JobRegistry) Build(configs map[domain.JobKind]ports.JobConfig, deps ports.JobDeps, logger logx.Logger) ([]ports.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	kinds := make([]domain.JobKind, 0, len(configs))
	for kind, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if _, exists := r.factories[kind]; !exists {
			r.logger.Warn("job not registered, skipping", "job", kind)
			continue
		}
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	jobs := make([]ports.Job, 0, len(kinds))
	for _, kind := range kinds {
		job, err := r.factories[kind](deps, configs[kind], logger)
		if err != nil {
			r.logger.Warn("job build failed", "job", kind, "error", err.Error())
			continue
		}
		jobs = append(jobs, job)
		r.logger.Debug("job built", "job", kind)
	}

	if len(jobs) == 0 && len(configs) > 0 {
		return nil, fmt.Errorf("no jobs could be built")
	}

	logger.Info("jobs built", "count", len(jobs), "requested", len(configs))
	return jobs, nil
}

// List returns the registered kinds in stable order.
func (r *JobRegistry) List() []domain.JobKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.JobKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// GetMetadata returns the metadata of one registered job.
func (r *JobRegistry) GetMetadata(kind domain.JobKind) (ports.JobMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[kind]
	return meta, exists
}

// IsRegistered reports whether a kind has been registered.
func (r *JobRegistry) IsRegistered(kind domain.JobKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[kind]
	return exists
}

// Clear removes all registrations. Test helper.
func (r *JobRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[domain.JobKind]JobFactory)
	r.metadata = make(map[domain.JobKind]ports.JobMetadata)
}
