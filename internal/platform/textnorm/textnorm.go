// Package textnorm normalizes product titles and handles to canonical forms
// so the same text comparison works across feed items and catalog records.
// Normalization is deterministic, pure and idempotent.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	// Parenthetical and bracketed segments carry packaging or marketing
	// noise ("(2 pack)", "[clearance]") and never identity.
	parenPattern   = regexp.MustCompile(`\([^)]*\)`)
	bracketPattern = regexp.MustCompile(`\[[^\]]*\]`)

	// Runs of anything that is not a letter or digit collapse to one space.
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

	// Postage rate codes appended by the feed scraper ("-P12").
	rateCodePattern = regexp.MustCompile(`^p\d+$`)

	// Articles and common prepositions, removed as whole words.
	stopwords = map[string]bool{
		"a": true, "an": true, "the": true,
		"and": true, "of": true, "for": true,
		"with": true, "in": true, "on": true,
		"at": true, "by": true, "to": true,
		"from": true,
	}
)

// Normalize lowers, strips noise segments and shipping suffixes, drops
// stopwords and collapses separators, yielding a space-separated canonical
// form. Normalize(Normalize(s)) == Normalize(s) for all s.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	s = parenPattern.ReplaceAllString(s, " ")
	s = bracketPattern.ReplaceAllString(s, " ")
	s = nonAlnumPattern.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}

	return strings.Join(stripShippingTail(kept), " ")
}

// stripShippingTail removes trailing shipping/rate suffix words until none
// remain, so the result is a fixed point: "-parcel-rate", "-letter-rate",
// "-large-letter-rate" and "-P<nn>" codes left behind by the scraper.
func stripShippingTail(words []string) []string {
	for {
		n := len(words)
		if n == 0 {
			return words
		}

		last := words[n-1]
		switch {
		case rateCodePattern.MatchString(last):
			words = words[:n-1]
		case last == "rate" && n >= 2 && words[n-2] == "parcel":
			words = words[:n-2]
		case last == "rate" && n >= 2 && words[n-2] == "letter":
			if n >= 3 && words[n-3] == "large" {
				words = words[:n-3]
			} else {
				words = words[:n-2]
			}
		default:
			return words
		}
	}
}

// Handle returns the hyphenated slug form of the same normalization, used
// for handle-to-handle comparison and for deriving handles of new records.
func Handle(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "-")
}

// Words returns the normalized word set of s. Order is preserved; callers
// that need set semantics build their own map.
func Words(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// Overlap computes the word-set overlap ratio between two already-normalized
// strings as a percentage: |intersection| / max(|a|, |b|) * 100. Returns 0
// when either side has no words.
func Overlap(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	common := 0
	for w := range setA {
		if setB[w] {
			common++
		}
	}

	maxLen := len(setA)
	if len(setB) > maxLen {
		maxLen = len(setB)
	}

	return float64(common) / float64(maxLen) * 100
}

func wordSet(s string) map[string]bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, w := range fields {
		set[w] = true
	}
	return set
}
