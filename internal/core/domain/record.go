// internal/core/domain/record.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DestinationRecord is a catalog entry in the commerce platform, the system
// of record for what customers see. The engine only reads records and issues
// mutation requests; it never caches them across runs.
type DestinationRecord struct {
	// ID platform-assigned record identifier
	ID string

	// Handle URL slug assigned by the platform
	Handle string

	// Title display title
	Title string

	// Tags free-form labels; supplier integrations tag the records they own
	Tags []string

	// Status publication status (active or draft)
	Status RecordStatus

	// CreatedAt platform creation timestamp, used as the dedupe tiebreaker
	CreatedAt time.Time

	// Variant the single variant this integration manages
	Variant Variant
}

// Variant holds the SKU-bearing part of a destination record.
type Variant struct {
	// ID variant identifier, target of SKU updates
	ID string

	// SKU stock keeping unit as stored in the platform
	SKU string

	// InventoryItemID identifier used by inventory-level calls
	InventoryItemID string

	// Price listed price
	Price decimal.Decimal

	// Inventory current available quantity
	Inventory int
}

// SKUKey returns the case-folded SKU used by every SKU index.
func (r DestinationRecord) SKUKey() string {
	return strings.ToLower(strings.TrimSpace(r.Variant.SKU))
}

// HasTag reports whether the record carries the given tag, case-insensitive.
func (r DestinationRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// Validate checks the fields mutations depend on.
func (r DestinationRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrInvalidRecord
	}
	if !r.Status.IsValid() {
		return ErrInvalidRecord
	}
	return nil
}
