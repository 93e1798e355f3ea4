// internal/core/usecases/match_service_test.go
package usecases

import (
	"testing"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/testutil"
)

func TestMatchPriorityOrder(t *testing.T) {
	// One record per tier. The item carries signals for all four tiers; the
	// highest-confidence one must win.
	bySKU := testutil.Record("rec-sku", "ABC-1", "Completely Different Name", 5)
	byHandle := testutil.Record("rec-handle", "OTHER-1", "Blue Ceramic Vase", 5)
	byTitle := testutil.Record("rec-title", "OTHER-2", "Green Garden Gnome", 5)

	records := []domain.DestinationRecord{byTitle, byHandle, bySKU}

	tests := []struct {
		name     string
		item     domain.SourceItem
		wantID   string
		wantType domain.MatchType
	}{
		{
			name:     "sku wins over handle and title",
			item:     testutil.Item("abc-1", "Blue Ceramic Vase", 5),
			wantID:   "rec-sku",
			wantType: domain.MatchSKU,
		},
		{
			name:     "handle wins over title when sku misses",
			item:     testutil.Item("NO-SUCH", "Blue Ceramic Vase", 5),
			wantID:   "rec-handle",
			wantType: domain.MatchHandle,
		},
		{
			name:     "exact title when sku and handle miss",
			item:     domain.SourceItem{SKU: "NO-SUCH", Title: "Green Garden Gnome"},
			wantID:   "rec-title",
			wantType: domain.MatchTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatchService(records, DefaultFuzzyThreshold)
			res := m.Match(tt.item)

			testutil.AssertTrue(t, res.Matched(), "expected a match")
			testutil.AssertEqual(t, res.Record.ID, tt.wantID, "matched record")
			testutil.AssertEqual(t, res.Type, tt.wantType, "match type")
		})
	}
}

func TestMatchSKUIsCaseInsensitive(t *testing.T) {
	records := []domain.DestinationRecord{testutil.Record("rec-1", "AbC-01", "Anything", 5)}
	m := NewMatchService(records, DefaultFuzzyThreshold)

	res := m.Match(testutil.Item("  aBc-01 ", "Unrelated Words Here", 5))

	testutil.AssertEqual(t, res.Type, domain.MatchSKU, "whitespace and case must not matter")
	testutil.AssertEqual(t, res.Record.ID, "rec-1", "matched record")
}

func TestMatchFuzzyAcceptsAboveThreshold(t *testing.T) {
	// 4 of 5 words shared: overlap 80%, strictly above the 60% threshold.
	records := []domain.DestinationRecord{
		testutil.Record("rec-1", "X-1", "Alpha Beta Gamma Delta Epsilon", 5),
	}
	m := NewMatchService(records, DefaultFuzzyThreshold)

	res := m.Match(domain.SourceItem{SKU: "NO-SUCH", Title: "Alpha Beta Gamma Delta Zeta"})

	testutil.AssertTrue(t, res.Matched(), "80%% overlap should match")
	testutil.AssertTrue(t, res.Type.IsFuzzy(), "match should be fuzzy")
	pct, ok := res.Type.FuzzyPercent()
	testutil.AssertTrue(t, ok, "fuzzy type should expose its percent")
	testutil.AssertEqual(t, pct, 80, "fuzzy percent")
}

func TestMatchFuzzyRejectsExactlyAtThreshold(t *testing.T) {
	// 3 of 5 words shared: overlap exactly 60%. The threshold is strict, so
	// this must not match.
	records := []domain.DestinationRecord{
		testutil.Record("rec-1", "X-1", "Alpha Beta Gamma Delta Epsilon", 5),
	}
	m := NewMatchService(records, DefaultFuzzyThreshold)

	res := m.Match(domain.SourceItem{SKU: "NO-SUCH", Title: "Alpha Beta Gamma Other Words"})

	testutil.AssertEqual(t, res.Type, domain.MatchNone, "overlap equal to threshold is rejected")
}

func TestMatchNoneWhenNothingFits(t *testing.T) {
	records := []domain.DestinationRecord{
		testutil.Record("rec-1", "X-1", "Alpha Beta Gamma", 5),
	}
	m := NewMatchService(records, DefaultFuzzyThreshold)

	res := m.Match(domain.SourceItem{SKU: "NO-SUCH", Title: "Totally Unrelated Product"})

	testutil.AssertEqual(t, res.Type, domain.MatchNone, "no tier should fire")
	testutil.AssertTrue(t, res.Record == nil, "no record on a miss")
}

func TestClaimedRecordsAreInvisible(t *testing.T) {
	records := []domain.DestinationRecord{
		testutil.Record("rec-1", "ABC-1", "Alpha Beta Gamma", 5),
	}
	m := NewMatchService(records, DefaultFuzzyThreshold)

	first := m.Match(testutil.Item("ABC-1", "Alpha Beta Gamma", 5))
	testutil.AssertEqual(t, first.Record.ID, "rec-1", "first item should match")
	testutil.AssertTrue(t, m.Claim("rec-1"), "first claim succeeds")

	second := m.Match(testutil.Item("ABC-1", "Alpha Beta Gamma", 5))
	testutil.AssertEqual(t, second.Type, domain.MatchNone, "claimed record must not match again")

	testutil.AssertFalse(t, m.Claim("rec-1"), "second claim is rejected")
	testutil.AssertTrue(t, m.Claimed("rec-1"), "record reports claimed")
}

func TestDuplicateIndexKeysFirstWins(t *testing.T) {
	a := testutil.Record("rec-a", "DUP-1", "Same Title Words", 5)
	b := testutil.Record("rec-b", "DUP-1", "Same Title Words", 5)
	m := NewMatchService([]domain.DestinationRecord{a, b}, DefaultFuzzyThreshold)

	res := m.Match(testutil.Item("DUP-1", "Same Title Words", 5))

	testutil.AssertEqual(t, res.Record.ID, "rec-a", "snapshot order decides duplicate keys")
}
