// Package errdedup collapses repeated errors into per-message counters.
// Volatile literals (quoted values, long numeric IDs, hex blobs) are replaced
// by placeholders so ten failures for ten different record IDs surface as one
// line with a count of ten, not ten lines.
package errdedup

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Fixed pattern table. Order matters: quoted strings go first so their
// contents are not also rewritten by the narrower patterns, and pure digit
// runs go before hex so a long numeric ID reads <id>, not <hex>.
var patterns = []struct {
	re          *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`"[^"]*"`), `"…"`},
	{regexp.MustCompile(`'[^']*'`), `'…'`},
	{regexp.MustCompile(`\b\d{5,}\b`), "<id>"},
	{regexp.MustCompile(`\b[0-9a-f]{8,}\b`), "<hex>"},
	{regexp.MustCompile(`\s+`), " "},
}

// Normalize strips volatile substrings from an error message so equal
// failures map to the same key. Deterministic and idempotent.
func Normalize(msg string) string {
	msg = strings.TrimSpace(msg)
	for _, p := range patterns {
		msg = p.re.ReplaceAllString(msg, p.placeholder)
	}
	return strings.TrimSpace(msg)
}

// Entry is one normalized message with its occurrence count.
type Entry struct {
	Message string
	Count   int
}

// Tally counts errors by normalized message. Safe for concurrent use.
type Tally struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Record counts one error occurrence. Nil errors are ignored.
func (t *Tally) Record(err error) {
	if err == nil {
		return
	}

	key := Normalize(err.Error())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[key]++
	t.total++
}

// Top returns up to n entries ordered by count descending, then message
// ascending for a stable order.
func (t *Tally) Top(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]Entry, 0, len(t.counts))
	for msg, count := range t.counts {
		entries = append(entries, Entry{Message: msg, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Message < entries[j].Message
		}
		return entries[i].Count > entries[j].Count
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Total returns the number of errors recorded.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Reset clears all counters.
func (t *Tally) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]int)
	t.total = 0
}
