// Package ui renders the terminal report shown after a reconciliation run.
package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/pterm/pterm"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/platform/errdedup"
)

// Console prints run results with pterm. A disabled console prints nothing,
// for use in scripts and CI.
type Console struct {
	enabled bool
}

// NewConsole creates the presenter.
func NewConsole(enabled bool) *Console {
	return &Console{enabled: enabled}
}

// Header prints the program banner.
func (c *Console) Header(version string) {
	if !c.enabled {
		return
	}
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Printfln("catalogsync %s", version)
	pterm.Println()
}

// Summaries prints one table row per finished job.
func (c *Console) Summaries(summaries map[domain.JobKind]domain.RunSummary) {
	if !c.enabled || len(summaries) == 0 {
		return
	}

	kinds := make([]domain.JobKind, 0, len(summaries))
	for kind := range summaries {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(a, b int) bool { return kinds[a] < kinds[b] })

	data := pterm.TableData{{"JOB", "OUTCOME", "MUTATIONS", "ERRORS", "DURATION"}}
	for _, kind := range kinds {
		s := summaries[kind]
		data = append(data, []string{
			kind.String(),
			colorOutcome(s.Outcome),
			fmt.Sprintf("%d", s.Total()),
			fmt.Sprintf("%d", s.ErrorCount),
			s.Duration().Round(10 * time.Millisecond).String(),
		})
	}

	pterm.DefaultSection.Println("Run Results")
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Println()
}

// FailsafeBanner prints the held-batch warning an operator must act on.
func (c *Console) FailsafeBanner(reason string, kind domain.JobKind, affected int) {
	if !c.enabled {
		return
	}
	body := fmt.Sprintf("%s\n\nJob: %s\nHeld mutations: %d\n\nRe-run with --confirm-failsafe to apply or --abort-failsafe to discard.",
		reason, kind, affected)
	pterm.DefaultBox.
		WithTitle(pterm.LightRed("FAILSAFE TRIGGERED")).
		WithBoxStyle(pterm.NewStyle(pterm.FgRed)).
		Println(body)
	pterm.Println()
}

// TopErrors prints the most frequent error shapes of the run.
func (c *Console) TopErrors(entries []errdedup.Entry) {
	if !c.enabled || len(entries) == 0 {
		return
	}
	pterm.DefaultSection.Println("Frequent Errors")
	for _, e := range entries {
		pterm.Printf("  %s %s\n", pterm.Yellow(fmt.Sprintf("%3dx", e.Count)), e.Message)
	}
	pterm.Println()
}

// Info prints a one-line informational note.
func (c *Console) Info(msg string) {
	if !c.enabled {
		return
	}
	pterm.Info.Println(msg)
}

// Warn prints a one-line warning.
func (c *Console) Warn(msg string) {
	if !c.enabled {
		return
	}
	pterm.Warning.Println(msg)
}

func colorOutcome(outcome domain.RunOutcome) string {
	switch outcome {
	case domain.RunCompleted:
		return pterm.Green(outcome.String())
	case domain.RunHalted:
		return pterm.Yellow(outcome.String())
	case domain.RunFailed:
		return pterm.Red(outcome.String())
	case domain.RunAborted:
		return pterm.Gray(outcome.String())
	default:
		return outcome.String()
	}
}
