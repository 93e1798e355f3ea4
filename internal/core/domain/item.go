// internal/core/domain/item.go
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SourceItem is one product from the upstream supplier feed. Items are
// rebuilt from scratch on every fetch; SKU is the only persistent identity.
// Immutable once constructed.
type SourceItem struct {
	// SKU supplier stock keeping unit, the primary link key
	SKU string

	// Title raw product title as scraped from the feed
	Title string

	// NormalizedTitle title passed through textnorm, filled by the adapter
	NormalizedTitle string

	// Handle URL-safe slug derived from the title
	Handle string

	// Inventory units available at the supplier
	Inventory int

	// Price supplier price
	Price decimal.Decimal

	// Description long-form product copy
	Description string

	// Images image URLs in display order
	Images []string
}

// Validate checks the minimal fields matching and creation rely on.
func (i SourceItem) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return ErrEmptySKU
	}
	if strings.TrimSpace(i.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// SKUKey returns the case-folded SKU used by every SKU index.
func (i SourceItem) SKUKey() string {
	return strings.ToLower(strings.TrimSpace(i.SKU))
}
