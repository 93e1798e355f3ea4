// internal/jobs/dedupe/dedupe_test.go
package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/testutil"
)

type tally struct{ errs []error }

func (t *tally) Record(err error) { t.errs = append(t.errs, err) }

func testConfig() ports.JobConfig {
	cfg := ports.DefaultJobConfig()
	cfg.WriteDelay = 0
	return cfg
}

func testRun() ports.Run {
	return ports.Run{
		Signal: testutil.StaticSignal(false),
		Errors: &tally{},
	}
}

func recordAt(id, sku, title string, created time.Time) domain.DestinationRecord {
	rec := testutil.Record(id, sku, title, 1)
	rec.CreatedAt = created
	return rec
}

func TestKeepsEarliestDeletesTheRest(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	t3 := t1.Add(48 * time.Hour)

	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		recordAt("newest", "SKU-3", "Alpha Widget", t3),
		recordAt("oldest", "SKU-1", "Alpha Widget!", t1), // punctuation folds away
		recordAt("middle", "SKU-2", "alpha  widget", t2),
		testutil.Record("solo", "SKU-4", "Beta Widget", 1),
	}}
	job := New(ports.JobDeps{Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun())

	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
	testutil.AssertEqual(t, summary.Counts[domain.CountDeleted], 2, "two duplicates deleted")
	testutil.AssertLen(t, dst.Deleted, 2, "two delete calls")
	testutil.AssertEqual(t, dst.Deleted[0], "middle", "deletions run oldest first")
	testutil.AssertEqual(t, dst.Deleted[1], "newest", "survivor is the earliest record")
}

func TestScansTheWholeCatalogNotJustTheSupplierSubset(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tagged := recordAt("tagged", "SKU-1", "Alpha Widget", t1)
	untagged := recordAt("untagged", "SKU-2", "Alpha Widget", t1.Add(time.Hour))
	untagged.Tags = nil

	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{tagged, untagged}}
	job := New(ports.JobDeps{Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun())

	testutil.AssertEqual(t, summary.Counts[domain.CountDeleted], 1, "untagged duplicate still collapsed")
	testutil.AssertEqual(t, dst.Deleted[0], "untagged", "later record deleted")
}

func TestUniqueTitlesAreUntouched(t *testing.T) {
	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		testutil.Record("a", "SKU-A", "Alpha Widget", 1),
		testutil.Record("b", "SKU-B", "Beta Widget", 1),
	}}
	job := New(ports.JobDeps{Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun())

	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
	testutil.AssertLen(t, dst.Deleted, 0, "nothing deleted")
}

func TestEmptyNormalizedTitlesNeverGroup(t *testing.T) {
	a := testutil.Record("a", "SKU-A", "", 1)
	b := testutil.Record("b", "SKU-B", "", 1)

	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{a, b}}
	job := New(ports.JobDeps{Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun())

	testutil.AssertLen(t, dst.Deleted, 0, "untitled records are not duplicates of each other")
	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
}

func TestOneFailureDoesNotBlockTheRest(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dst := &testutil.MockDestinationCatalog{
		Records: []domain.DestinationRecord{
			recordAt("keep", "SKU-1", "Alpha Widget", t1),
			recordAt("dup-1", "SKU-2", "Alpha Widget", t1.Add(time.Hour)),
			recordAt("dup-2", "SKU-3", "Alpha Widget", t1.Add(2*time.Hour)),
		},
		DeleteErr: map[string]error{"dup-1": errors.New("locked")},
	}
	job := New(ports.JobDeps{Destination: dst}, testConfig(), logx.NewSilent())

	summary := job.Run(context.Background(), testRun())

	testutil.AssertEqual(t, summary.Outcome, domain.RunCompleted, "outcome")
	testutil.AssertEqual(t, summary.Counts[domain.CountDeleted], 1, "second duplicate still deleted")
	testutil.AssertEqual(t, summary.ErrorCount, 1, "failure counted")
}

func TestAbortBetweenDeletes(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		recordAt("keep", "SKU-1", "Alpha Widget", t1),
		recordAt("dup-1", "SKU-2", "Alpha Widget", t1.Add(time.Hour)),
		recordAt("dup-2", "SKU-3", "Alpha Widget", t1.Add(2*time.Hour)),
	}}
	job := New(ports.JobDeps{Destination: dst}, testConfig(), logx.NewSilent())

	// First check lands after the fetch, second before the first delete; the
	// abort arrives before the second delete.
	run := ports.Run{
		Signal: &testutil.FlipSignal{After: 2},
		Errors: &tally{},
	}
	summary := job.Run(context.Background(), run)

	testutil.AssertEqual(t, summary.Outcome, domain.RunAborted, "outcome")
	testutil.AssertLen(t, dst.Deleted, 1, "deletes stop at the abort boundary")
}
