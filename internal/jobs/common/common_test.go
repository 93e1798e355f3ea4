// internal/jobs/common/common_test.go
package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/testutil"
)

func TestFetchSnapshotsFetchesBothSides(t *testing.T) {
	src := &testutil.MockSourceCatalog{Items: []domain.SourceItem{
		testutil.Item("SKU-1", "Alpha Widget", 1),
	}}
	dst := &testutil.MockDestinationCatalog{Records: []domain.DestinationRecord{
		testutil.Record("a", "SKU-1", "Alpha Widget", 1),
		testutil.Record("b", "SKU-2", "Beta Widget", 1),
	}}

	snap, err := FetchSnapshots(context.Background(), src, dst)
	testutil.AssertNoError(t, err, "fetch")
	testutil.AssertLen(t, snap.Items, 1, "feed side")
	testutil.AssertLen(t, snap.Records, 2, "catalog side")
}

func TestFetchSnapshotsWrapsTheFailingSide(t *testing.T) {
	src := &testutil.MockSourceCatalog{Err: errors.New("feed down")}
	dst := &testutil.MockDestinationCatalog{}

	_, err := FetchSnapshots(context.Background(), src, dst)
	testutil.AssertError(t, err, "failure is fatal")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrSourceFetchFailed), "wraps the source sentinel")
}

func TestFilterSupplier(t *testing.T) {
	draft := testutil.Record("d", "SKU-D", "Draft Widget", 1)
	draft.Status = domain.StatusDraft
	foreign := testutil.Record("f", "SKU-F", "Foreign Widget", 1)
	foreign.Tags = []string{"other-vendor"}

	records := []domain.DestinationRecord{
		testutil.Record("a", "SKU-A", "Alpha Widget", 1),
		draft,
		foreign,
	}

	all := FilterSupplier(records, testutil.TestSupplierTag, false)
	testutil.AssertLen(t, all, 2, "tag filter keeps drafts")

	active := FilterSupplier(records, testutil.TestSupplierTag, true)
	testutil.AssertLen(t, active, 1, "active filter drops drafts")
	testutil.AssertEqual(t, active[0].ID, "a", "surviving record")
}

func TestSKUIndexFirstWinsAndSkipsEmpty(t *testing.T) {
	records := []domain.DestinationRecord{
		testutil.Record("first", "SKU-A", "Alpha Widget", 1),
		testutil.Record("second", "sku-a", "Alpha Widget Again", 1),
		testutil.Record("blank", "", "Unlinked Widget", 1),
	}

	index := SKUIndex(records)
	testutil.AssertLen(t, index, 1, "one distinct key")
	testutil.AssertEqual(t, index["sku-a"].ID, "first", "first record wins the key")
}

func TestSourceSKUSetFoldsCase(t *testing.T) {
	set := SourceSKUSet([]domain.SourceItem{
		testutil.Item(" SKU-A ", "Alpha Widget", 1),
		{SKU: "", Title: "No SKU"},
	})

	testutil.AssertLen(t, set, 1, "empty skus skipped")
	testutil.AssertTrue(t, set["sku-a"], "trimmed and folded")
}

func TestPacerSpacesConsecutiveWaits(t *testing.T) {
	pacer := NewPacer(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	testutil.AssertNoError(t, Pace(ctx, pacer), "first write immediate")
	testutil.AssertNoError(t, Pace(ctx, pacer), "second write paced")
	elapsed := time.Since(start)

	testutil.AssertTrue(t, elapsed >= 15*time.Millisecond, "second wait spaced by the delay")
}

func TestNilPacerNeverBlocks(t *testing.T) {
	testutil.AssertNoError(t, Pace(context.Background(), NewPacer(0)), "zero delay disables pacing")
}
