// Package cached decorates the catalog ports with snapshot caching. The
// pipelines of one run each want the same full snapshots; caching them keeps
// a five-job run at one feed fetch and one catalog fetch instead of five.
// Any catalog write invalidates the catalog snapshot, so a later job always
// re-reads its own mutations.
package cached

import (
	"context"
	"strings"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/cache"
	"catalogsync/internal/platform/logx"
)

const (
	feedKey      = "feed.snapshot"
	recordPrefix = "catalog.snapshot."
)

// Source wraps a SourceCatalog with TTL caching.
type Source struct {
	inner  ports.SourceCatalog
	cache  *cache.MemoryCache
	ttl    time.Duration
	logger logx.Logger
}

var _ ports.SourceCatalog = (*Source)(nil)

// NewSource creates the caching feed decorator.
func NewSource(inner ports.SourceCatalog, ttl time.Duration, logger logx.Logger) *Source {
	return &Source{
		inner:  inner,
		cache:  cache.NewMemoryCache(4),
		ttl:    ttl,
		logger: logger.With("adapter", "cached-feed"),
	}
}

// FetchAll implements ports.SourceCatalog.
func (s *Source) FetchAll(ctx context.Context) ([]domain.SourceItem, error) {
	if v, ok := s.cache.Get(feedKey); ok {
		items := v.([]domain.SourceItem)
		s.logger.Debug("feed snapshot served from cache", "items", len(items))
		return items, nil
	}

	items, err := s.inner.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(feedKey, items, s.ttl)
	return items, nil
}

// Destination wraps a DestinationCatalog with snapshot caching. Reads are
// cached per field selection; every write clears the cache.
type Destination struct {
	inner  ports.DestinationCatalog
	cache  *cache.MemoryCache
	ttl    time.Duration
	logger logx.Logger
}

var _ ports.DestinationCatalog = (*Destination)(nil)

// NewDestination creates the caching catalog decorator.
func NewDestination(inner ports.DestinationCatalog, ttl time.Duration, logger logx.Logger) *Destination {
	return &Destination{
		inner:  inner,
		cache:  cache.NewMemoryCache(8),
		ttl:    ttl,
		logger: logger.With("adapter", "cached-catalog"),
	}
}

// FetchAll implements ports.DestinationCatalog.
func (d *Destination) FetchAll(ctx context.Context, fields []string) ([]domain.DestinationRecord, error) {
	key := recordPrefix + strings.Join(fields, ",")
	if v, ok := d.cache.Get(key); ok {
		records := v.([]domain.DestinationRecord)
		d.logger.Debug("catalog snapshot served from cache", "records", len(records))
		return records, nil
	}

	records, err := d.inner.FetchAll(ctx, fields)
	if err != nil {
		return nil, err
	}
	d.cache.Set(key, records, d.ttl)
	return records, nil
}

// FetchInventoryLevels implements ports.DestinationCatalog. Levels are never
// cached: inventory is exactly what the engine is trying to correct.
func (d *Destination) FetchInventoryLevels(ctx context.Context, itemIDs []string) (map[string]int, error) {
	return d.inner.FetchInventoryLevels(ctx, itemIDs)
}

// SetInventory implements ports.DestinationCatalog.
func (d *Destination) SetInventory(ctx context.Context, itemID string, qty int) error {
	d.invalidate()
	return d.inner.SetInventory(ctx, itemID, qty)
}

// CreateRecord implements ports.DestinationCatalog.
func (d *Destination) CreateRecord(ctx context.Context, input ports.RecordInput) (*domain.DestinationRecord, error) {
	d.invalidate()
	return d.inner.CreateRecord(ctx, input)
}

// UpdateStatus implements ports.DestinationCatalog.
func (d *Destination) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) error {
	d.invalidate()
	return d.inner.UpdateStatus(ctx, id, status)
}

// UpdateSKU implements ports.DestinationCatalog.
func (d *Destination) UpdateSKU(ctx context.Context, variantID, sku string) error {
	d.invalidate()
	return d.inner.UpdateSKU(ctx, variantID, sku)
}

// Delete implements ports.DestinationCatalog.
func (d *Destination) Delete(ctx context.Context, id string) error {
	d.invalidate()
	return d.inner.Delete(ctx, id)
}

func (d *Destination) invalidate() {
	if d.cache.Size() > 0 {
		d.cache.Clear()
	}
}
