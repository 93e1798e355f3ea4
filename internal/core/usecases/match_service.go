// internal/core/usecases/match_service.go
package usecases

import (
	"math"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/platform/textnorm"
)

// DefaultFuzzyThreshold is the fuzzy-match acceptance threshold in percent.
// Overlap must strictly exceed it; an overlap exactly at the threshold is
// rejected.
const DefaultFuzzyThreshold = 60.0

// MatchService resolves a source item to zero-or-one destination record.
// Indexes are built once per run from the destination snapshot; matching is
// a pure lookup with no side effects beyond claim tracking.
//
// Resolution order, first hit wins: exact case-insensitive SKU, exact
// normalized handle, exact normalized title, fuzzy title overlap. SKU is the
// most trustworthy identifier when present; fuzzy is probabilistic and must
// never override a higher-confidence signal.
type MatchService struct {
	threshold float64

	bySKU    map[string]*domain.DestinationRecord
	byHandle map[string]*domain.DestinationRecord
	byTitle  map[string]*domain.DestinationRecord

	// snapshot order, for a deterministic fuzzy scan
	records []*domain.DestinationRecord

	// record IDs consumed by an earlier source item this run
	claimed map[string]bool
}

// NewMatchService indexes a destination snapshot. A non-positive threshold
// falls back to DefaultFuzzyThreshold.
func NewMatchService(records []domain.DestinationRecord, threshold float64) *MatchService {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	m := &MatchService{
		threshold: threshold,
		bySKU:     make(map[string]*domain.DestinationRecord, len(records)),
		byHandle:  make(map[string]*domain.DestinationRecord, len(records)),
		byTitle:   make(map[string]*domain.DestinationRecord, len(records)),
		records:   make([]*domain.DestinationRecord, 0, len(records)),
		claimed:   make(map[string]bool),
	}

	for i := range records {
		rec := &records[i]
		m.records = append(m.records, rec)

		if key := rec.SKUKey(); key != "" {
			if _, dup := m.bySKU[key]; !dup {
				m.bySKU[key] = rec
			}
		}
		if key := textnorm.Normalize(rec.Handle); key != "" {
			if _, dup := m.byHandle[key]; !dup {
				m.byHandle[key] = rec
			}
		}
		if key := textnorm.Normalize(rec.Title); key != "" {
			if _, dup := m.byTitle[key]; !dup {
				m.byTitle[key] = rec
			}
		}
	}

	return m
}

// Match resolves one source item. Absence is a valid result, not a failure.
// Claimed records are invisible to every tier.
func (m *MatchService) Match(item domain.SourceItem) domain.MatchResult {
	if rec := m.lookup(m.bySKU, item.SKUKey()); rec != nil {
		return domain.MatchResult{Record: rec, Type: domain.MatchSKU}
	}

	if rec := m.lookup(m.byHandle, textnorm.Normalize(item.Handle)); rec != nil {
		return domain.MatchResult{Record: rec, Type: domain.MatchHandle}
	}

	title := item.NormalizedTitle
	if title == "" {
		title = textnorm.Normalize(item.Title)
	}
	if rec := m.lookup(m.byTitle, title); rec != nil {
		return domain.MatchResult{Record: rec, Type: domain.MatchTitle}
	}

	return m.fuzzy(title)
}

// fuzzy scans the remaining records for the best word-set overlap and
// accepts only a strict threshold exceedance.
func (m *MatchService) fuzzy(normalizedTitle string) domain.MatchResult {
	if normalizedTitle == "" {
		return domain.MatchResult{Type: domain.MatchNone}
	}

	var best *domain.DestinationRecord
	bestScore := 0.0

	for _, rec := range m.records {
		if m.claimed[rec.ID] {
			continue
		}
		score := textnorm.Overlap(normalizedTitle, textnorm.Normalize(rec.Title))
		if score > bestScore {
			bestScore = score
			best = rec
		}
	}

	if best == nil || bestScore <= m.threshold {
		return domain.MatchResult{Type: domain.MatchNone}
	}

	return domain.MatchResult{
		Record: best,
		Type:   domain.FuzzyMatch(int(math.Round(bestScore))),
	}
}

func (m *MatchService) lookup(index map[string]*domain.DestinationRecord, key string) *domain.DestinationRecord {
	if key == "" {
		return nil
	}
	rec, ok := index[key]
	if !ok || m.claimed[rec.ID] {
		return nil
	}
	return rec
}

// Claim marks a record as consumed by a source item so no later item in the
// same run can match it again. Returns false when already claimed.
func (m *MatchService) Claim(recordID string) bool {
	if m.claimed[recordID] {
		return false
	}
	m.claimed[recordID] = true
	return true
}

// Claimed reports whether a record was consumed this run.
func (m *MatchService) Claimed(recordID string) bool {
	return m.claimed[recordID]
}
