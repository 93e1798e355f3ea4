// internal/jobs/discontinue/discontinue_test.go
package discontinue

import (
	"context"
	"errors"
	"testing"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/testutil"
)

type allowGuard struct{ last ports.GuardRequest }

func (g *allowGuard) Evaluate(req ports.GuardRequest) error {
	g.last = req
	return nil
}

type haltGuard struct{ captured ports.GuardRequest }

func (g *haltGuard) Evaluate(req ports.GuardRequest) error {
	g.captured = req
	return domain.ErrHalted
}

type tally struct{ errs []error }

func (t *tally) Record(err error) { t.errs = append(t.errs, err) }

func testConfig() ports.JobConfig {
	cfg := ports.DefaultJobConfig()
	cfg.WriteDelay = 0
	return cfg
}

func testRun(guard ports.Guard) ports.Run {
	return ports.Run{
		Signal: testutil.StaticSignal(false),
		Guard:  guard,
		Errors: &tally{},
	}
}

func TestDraftsRecordsMissingFromFeed(t *testing.T) {
	src := &testutil.MockSourceCatalog{Items: []domain.SourceItem{
		testutil.Item("SKU-A", "Alpha Widget", 1),
	}}
	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		testutil.Record("a", "SKU-A", "Alpha Widget", 1),
		testutil.Record("b", "SKU-GONE", "Beta Widget", 1),
	}}
	guard := &allowGuard{}
	job := New(ports.JobDeps{Source: src, Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun(guard))

	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
	testutil.AssertEqual(t, summary.Counts[domain.CountDrafted], 1, "one record drafted")
	testutil.AssertLen(t, dst.StatusUpdates, 1, "one status call")
	testutil.AssertEqual(t, dst.StatusUpdates[0], testutil.StatusUpdate{ID: "b", Status: domain.StatusDraft}, "drafted the missing record")

	testutil.AssertEqual(t, guard.last.Affected, 1, "guard sees the retire count")
	testutil.AssertEqual(t, guard.last.Total, 2, "guard sees the active subset size")
}

func TestOnlyActiveTaggedRecordsAreCandidates(t *testing.T) {
	alreadyDraft := testutil.Record("d", "SKU-D", "Draft Widget", 1)
	alreadyDraft.Status = domain.StatusDraft

	foreign := testutil.Record("f", "SKU-F", "Foreign Widget", 1)
	foreign.Tags = []string{"other-vendor"}

	noSKU := testutil.Record("n", "", "Unlinked Widget", 1)

	src := &testutil.MockSourceCatalog{}
	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		alreadyDraft, foreign, noSKU,
	}}
	job := New(ports.JobDeps{Source: src, Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun(&allowGuard{}))

	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
	testutil.AssertLen(t, dst.StatusUpdates, 0, "drafts, other vendors and unlinked records untouched")
}

func TestGuardHaltStopsBeforeAnyDraft(t *testing.T) {
	src := &testutil.MockSourceCatalog{}
	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		testutil.Record("a", "SKU-A", "Alpha Widget", 1),
		testutil.Record("b", "SKU-B", "Beta Widget", 1),
	}}
	guard := &haltGuard{}
	job := New(ports.JobDeps{Source: src, Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun(guard))

	testutil.AssertEqual(t, summary.Outcome, domain.RunHalted, "outcome")
	testutil.AssertEqual(t, summary.Err, "held by failsafe", "halt reason")
	testutil.AssertEqual(t, dst.MutationCount(), 0, "no writes before the guard decision")
	testutil.AssertEqual(t, guard.captured.Affected, 2, "captured the full retire set")

	confirmed := guard.captured.Apply(context.Background(), testRun(&allowGuard{}))
	testutil.AssertEqual(t, confirmed.Counts[domain.CountDrafted], 2, "held retires applied on confirm")
}

func TestOneFailureDoesNotBlockTheRest(t *testing.T) {
	src := &testutil.MockSourceCatalog{}
	dst := &testutil.MockDestinationCatalog{
		Records: []domain.DestinationRecord{
			testutil.Record("a", "SKU-A", "Alpha Widget", 1),
			testutil.Record("b", "SKU-B", "Beta Widget", 1),
		},
		UpdateStatusErr: map[string]error{"a": errors.New("not found")},
	}
	job := New(ports.JobDeps{Source: src, Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun(&allowGuard{}))

	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
	testutil.AssertEqual(t, summary.Counts[domain.CountDrafted], 1, "surviving retire applied")
	testutil.AssertEqual(t, summary.ErrorCount, 1, "failure counted")
}

func TestDestinationFetchFailureFailsTheRun(t *testing.T) {
	src := &testutil.MockSourceCatalog{}
	dst := &testutil.MockDestinationCatalog{FetchErr: errors.New("catalog down")}
	job := New(ports.JobDeps{Source: src, Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun(&allowGuard{}))

	testutil.AssertEqual(t, summary.Outcome, domain.RunFailed, "outcome")
	testutil.AssertTrue(t, len(summary.Err) > 0, "summary carries the fetch error")
}
