// Package common holds the pieces every reconciliation job shares: the
// concurrent two-snapshot fetch, supplier-subset filtering, SKU indexing and
// write pacing.
package common

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/errors"
	"catalogsync/internal/platform/rate"
)

// RecordFields is the destination field selection the sync jobs request;
// the engine never needs more than identity, linkage and status.
var RecordFields = []string{"id", "handle", "title", "tags", "status", "created_at", "variant"}

// Snapshot holds one fetch of both catalogs.
type Snapshot struct {
	Items   []domain.SourceItem
	Records []domain.DestinationRecord
}

// FetchSnapshots fetches the source feed and the destination catalog
// concurrently. Either failure is fatal for the run; the error wraps the
// matching domain sentinel so callers can tell which side failed.
func FetchSnapshots(ctx context.Context, src ports.SourceCatalog, dst ports.DestinationCatalog) (Snapshot, error) {
	var snap Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := src.FetchAll(ctx)
		if err != nil {
			return errors.Errorf("%w: %v", domain.ErrSourceFetchFailed, err)
		}
		snap.Items = items
		return nil
	})
	g.Go(func() error {
		records, err := dst.FetchAll(ctx, RecordFields)
		if err != nil {
			return errors.Errorf("%w: %v", domain.ErrDestinationFetchFailed, err)
		}
		snap.Records = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// FilterSupplier keeps the records tagged for this integration, optionally
// restricted to active ones.
func FilterSupplier(records []domain.DestinationRecord, tag string, activeOnly bool) []domain.DestinationRecord {
	out := make([]domain.DestinationRecord, 0, len(records))
	for _, r := range records {
		if !r.HasTag(tag) {
			continue
		}
		if activeOnly && r.Status != domain.StatusActive {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SKUIndex maps case-folded SKU to record. On duplicate SKUs the first
// record in snapshot order wins, matching the behaviour of every lookup.
func SKUIndex(records []domain.DestinationRecord) map[string]*domain.DestinationRecord {
	index := make(map[string]*domain.DestinationRecord, len(records))
	for i := range records {
		key := records[i].SKUKey()
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = &records[i]
		}
	}
	return index
}

// SourceSKUSet collects the case-folded SKUs present in the feed.
func SourceSKUSet(items []domain.SourceItem) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		if key := it.SKUKey(); key != "" {
			set[key] = true
		}
	}
	return set
}

// NewPacer builds the write pacer: a token bucket refilling one token per
// delay with no burst, so consecutive Wait calls are spaced at least delay
// apart. The first write goes through immediately. Returns nil for a
// non-positive delay.
func NewPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return nil
	}
	perSecond := float64(time.Second) / float64(delay)
	return rate.New(perSecond, 1)
}

// Pace blocks on the pacer if one is configured. A context error means the
// run is over; callers treat it as an abort.
func Pace(ctx context.Context, pacer *rate.Limiter) error {
	if pacer == nil {
		return nil
	}
	return pacer.Wait(ctx)
}
