// internal/testutil/fixtures.go
package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/platform/textnorm"
)

// TestSupplierTag is the supplier tag fixtures carry by default.
const TestSupplierTag = "supplier-feed"

// Item builds a feed item with normalized fields filled, the way the feed
// adapter would produce it.
func Item(sku, title string, inventory int) domain.SourceItem {
	return domain.SourceItem{
		SKU:             sku,
		Title:           title,
		NormalizedTitle: textnorm.Normalize(title),
		Handle:          textnorm.Handle(title),
		Inventory:       inventory,
		Price:           decimal.NewFromFloat(9.99),
	}
}

// Record builds an active destination record tagged for the test supplier.
func Record(id, sku, title string, inventory int) domain.DestinationRecord {
	return domain.DestinationRecord{
		ID:        id,
		Handle:    textnorm.Handle(title),
		Title:     title,
		Tags:      []string{TestSupplierTag},
		Status:    domain.StatusActive,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Variant: domain.Variant{
			ID:              "variant-" + id,
			SKU:             sku,
			InventoryItemID: "inv-" + id,
			Price:           decimal.NewFromFloat(9.99),
			Inventory:       inventory,
		},
	}
}

// Records builds n active records with sequential IDs and SKUs, useful for
// blast-radius scenarios that need a destination subset of a given size.
func Records(n int) []domain.DestinationRecord {
	out := make([]domain.DestinationRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Record(
			fmt.Sprintf("rec-%03d", i),
			fmt.Sprintf("SKU-%03d", i),
			fmt.Sprintf("Product %03d", i),
			10,
		))
	}
	return out
}
