// internal/core/ports/catalogs.go
package ports

import (
	"context"

	"catalogsync/internal/core/domain"
)

// SourceCatalog is the port to the supplier feed. A fetch may span multiple
// paged calls; any failure is fatal for the invoking job run.
type SourceCatalog interface {
	// FetchAll returns the full current feed snapshot
	FetchAll(ctx context.Context) ([]domain.SourceItem, error)
}

// RecordInput is the payload for creating a destination record.
type RecordInput struct {
	// Title display title
	Title string

	// Handle URL slug, derived from the normalized title
	Handle string

	// Tags labels to stamp on the record (supplier tag included)
	Tags []string

	// Status initial publication status
	Status domain.RecordStatus

	// Variant SKU, price and initial inventory for the single variant
	Variant domain.Variant

	// Description long-form product copy
	Description string

	// Images image URLs in display order
	Images []string
}

// DestinationCatalog is the port to the commerce platform. The engine issues
// one call at a time and paces writes itself; implementations only need to
// honor context cancellation and report errors.
type DestinationCatalog interface {
	// FetchAll returns the full record snapshot, restricted to fields
	FetchAll(ctx context.Context, fields []string) ([]domain.DestinationRecord, error)

	// FetchInventoryLevels returns available quantity per inventory item
	FetchInventoryLevels(ctx context.Context, itemIDs []string) (map[string]int, error)

	// SetInventory sets the available quantity for one inventory item
	SetInventory(ctx context.Context, itemID string, qty int) error

	// CreateRecord creates a record and returns it with platform IDs filled
	CreateRecord(ctx context.Context, input RecordInput) (*domain.DestinationRecord, error)

	// UpdateStatus changes a record's publication status
	UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) error

	// UpdateSKU rewrites the SKU on a variant
	UpdateSKU(ctx context.Context, variantID, sku string) error

	// Delete removes a record permanently
	Delete(ctx context.Context, id string) error
}
