// internal/testutil/mocks.go
package testutil

import (
	"context"
	"sync"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
)

// Shared mocks for the two catalog ports and the notifier. Pipeline tests in
// several packages drive these; orchestration-specific fakes stay next to
// their tests.

// MockSourceCatalog implements ports.SourceCatalog.
type MockSourceCatalog struct {
	Items     []domain.SourceItem
	Err       error
	CallCount int
}

// FetchAll returns the scripted items or error.
func (m *MockSourceCatalog) FetchAll(ctx context.Context) ([]domain.SourceItem, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.SourceItem, len(m.Items))
	copy(out, m.Items)
	return out, nil
}

// MockDestinationCatalog implements ports.DestinationCatalog and records
// every mutation in call order.
type MockDestinationCatalog struct {
	mu sync.Mutex

	Records  []domain.DestinationRecord
	FetchErr error

	// Per-call scripted errors, keyed by the identifying argument
	SetInventoryErr map[string]error
	CreateErr       map[string]error
	UpdateStatusErr map[string]error
	UpdateSKUErr    map[string]error
	DeleteErr       map[string]error

	// Recorded mutations, in order
	InventorySets []InventorySet
	Created       []ports.RecordInput
	StatusUpdates []StatusUpdate
	SKUUpdates    []SKUUpdate
	Deleted       []string
}

// InventorySet records one SetInventory call.
type InventorySet struct {
	ItemID string
	Qty    int
}

// StatusUpdate records one UpdateStatus call.
type StatusUpdate struct {
	ID     string
	Status domain.RecordStatus
}

// SKUUpdate records one UpdateSKU call.
type SKUUpdate struct {
	VariantID string
	SKU       string
}

// FetchAll returns the scripted snapshot or error.
func (m *MockDestinationCatalog) FetchAll(ctx context.Context, fields []string) ([]domain.DestinationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	out := make([]domain.DestinationRecord, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

// FetchInventoryLevels returns levels derived from the scripted snapshot.
func (m *MockDestinationCatalog) FetchInventoryLevels(ctx context.Context, itemIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := make(map[string]int)
	for _, r := range m.Records {
		for _, id := range itemIDs {
			if r.Variant.InventoryItemID == id {
				levels[id] = r.Variant.Inventory
			}
		}
	}
	return levels, nil
}

// SetInventory records the call or returns the scripted error.
func (m *MockDestinationCatalog) SetInventory(ctx context.Context, itemID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.SetInventoryErr[itemID]; err != nil {
		return err
	}
	m.InventorySets = append(m.InventorySets, InventorySet{ItemID: itemID, Qty: qty})
	return nil
}

// CreateRecord records the call or returns the scripted error keyed by SKU.
func (m *MockDestinationCatalog) CreateRecord(ctx context.Context, input ports.RecordInput) (*domain.DestinationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.CreateErr[input.Variant.SKU]; err != nil {
		return nil, err
	}
	m.Created = append(m.Created, input)
	rec := domain.DestinationRecord{
		ID:     "created-" + input.Variant.SKU,
		Handle: input.Handle,
		Title:  input.Title,
		Tags:   input.Tags,
		Status: input.Status,
		Variant: domain.Variant{
			ID:              "variant-" + input.Variant.SKU,
			SKU:             input.Variant.SKU,
			InventoryItemID: "inv-" + input.Variant.SKU,
			Price:           input.Variant.Price,
		},
	}
	return &rec, nil
}

// UpdateStatus records the call or returns the scripted error.
func (m *MockDestinationCatalog) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateStatusErr[id]; err != nil {
		return err
	}
	m.StatusUpdates = append(m.StatusUpdates, StatusUpdate{ID: id, Status: status})
	return nil
}

// UpdateSKU records the call or returns the scripted error.
func (m *MockDestinationCatalog) UpdateSKU(ctx context.Context, variantID, sku string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateSKUErr[variantID]; err != nil {
		return err
	}
	m.SKUUpdates = append(m.SKUUpdates, SKUUpdate{VariantID: variantID, SKU: sku})
	return nil
}

// Delete records the call or returns the scripted error.
func (m *MockDestinationCatalog) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.DeleteErr[id]; err != nil {
		return err
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

// MutationCount returns the total number of recorded mutations.
func (m *MockDestinationCatalog) MutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InventorySets) + len(m.Created) + len(m.StatusUpdates) + len(m.SKUUpdates) + len(m.Deleted)
}

// MockNotifier implements ports.Notifier and records every event.
type MockNotifier struct {
	mu     sync.Mutex
	Events []ports.Event
	Err    error
}

// Notify records the event or returns the scripted error.
func (m *MockNotifier) Notify(ctx context.Context, event ports.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// Close implements ports.Notifier.
func (m *MockNotifier) Close() error { return nil }

// EventsOfType returns recorded events of one type.
func (m *MockNotifier) EventsOfType(t ports.EventType) []ports.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ports.Event
	for _, e := range m.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// StaticSignal implements ports.Signal with a fixed answer.
type StaticSignal bool

// ShouldAbort returns the fixed answer.
func (s StaticSignal) ShouldAbort() bool { return bool(s) }

// FlipSignal implements ports.Signal and starts aborting after N checks,
// emulating a pause landing mid-batch.
type FlipSignal struct {
	mu     sync.Mutex
	checks int
	After  int
}

// ShouldAbort returns false for the first After checks, then true.
func (s *FlipSignal) ShouldAbort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks++
	return s.checks > s.After
}
