// internal/core/domain/match.go
package domain

import (
	"fmt"
	"strings"
)

// MatchType is the strategy by which a source item was linked to a
// destination record. Higher-specificity strategies always win over
// lower ones; fuzzy is a last resort and carries its confidence.
type MatchType string

const (
	// MatchSKU exact case-insensitive SKU match
	MatchSKU MatchType = "sku"

	// MatchHandle exact normalized-handle match
	MatchHandle MatchType = "handle"

	// MatchTitle exact normalized-title match
	MatchTitle MatchType = "title"

	// MatchNone no destination record matched
	MatchNone MatchType = "none"

	fuzzyPrefix = "title-fuzzy-"
)

// FuzzyMatch builds the match type for a fuzzy title hit with the given
// rounded overlap percentage, e.g. "title-fuzzy-72".
func FuzzyMatch(percent int) MatchType {
	return MatchType(fmt.Sprintf("%s%d", fuzzyPrefix, percent))
}

// IsFuzzy reports whether the match came from the fuzzy title fallback.
func (m MatchType) IsFuzzy() bool {
	return strings.HasPrefix(string(m), fuzzyPrefix)
}

// Matched reports whether any destination record was linked.
func (m MatchType) Matched() bool {
	return m != MatchNone && m != ""
}

// FuzzyPercent returns the overlap percentage carried by a fuzzy match type.
func (m MatchType) FuzzyPercent() (int, bool) {
	if !m.IsFuzzy() {
		return 0, false
	}
	var pct int
	if _, err := fmt.Sscanf(string(m), fuzzyPrefix+"%d", &pct); err != nil {
		return 0, false
	}
	return pct, true
}

// String returns the string representation of the match type.
func (m MatchType) String() string {
	return string(m)
}

// MatchResult links one source item to zero-or-one destination record for
// the duration of a single run. Absence is a valid result, not a failure.
type MatchResult struct {
	// Record the linked record, nil when Type is MatchNone
	Record *DestinationRecord

	// Type the strategy that produced the link
	Type MatchType
}

// Matched reports whether the result links a record.
func (r MatchResult) Matched() bool {
	return r.Record != nil && r.Type.Matched()
}
