// Package report persists run summaries as JSON files, one per run, so an
// operator can audit what each reconciliation actually changed.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"catalogsync/internal/core/domain"
)

// WriteJSON writes one summary under dir, grouped by job kind.
// Returns the written path.
func WriteJSON(dir string, summary domain.RunSummary) (string, error) {
	if dir == "" {
		dir = "."
	}

	kindDir := filepath.Join(dir, summary.Kind.String())
	if err := os.MkdirAll(kindDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := summary.StartedAt.Format("20060102_150405")
	if summary.StartedAt.IsZero() {
		timestamp = time.Now().Format("20060102_150405")
	}
	filename := fmt.Sprintf("run_%s_%s.json", timestamp, summary.RunID)
	path := filepath.Join(kindDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	return path, nil
}

// WriteAll writes every summary and returns the first error, if any.
func WriteAll(dir string, summaries map[domain.JobKind]domain.RunSummary) error {
	var firstErr error
	for _, s := range summaries {
		if _, err := WriteJSON(dir, s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
