// internal/adapters/shopcat/shopcat_test.go
package shopcat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/errors"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/testutil"
)

func newTestCatalog(t *testing.T, handler http.HandlerFunc) (*Catalog, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "tok", Timeout: 5 * time.Second}, logx.NewSilent()), srv
}

func TestFetchAllParsesRecordsAndTags(t *testing.T) {
	var tokenSeen string
	cat, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		tokenSeen = r.Header.Get("X-Access-Token")
		fmt.Fprint(w, `{"records":[{
			"id":"rec-1",
			"handle":"alpha-widget",
			"title":"Alpha Widget",
			"tags":"supplier-feed, clearance",
			"status":"active",
			"created_at":"2026-01-02T03:04:05Z",
			"variants":[{
				"id":"var-1","sku":"SKU-1","inventory_item_id":"inv-1",
				"price":"12.50","inventory_quantity":4
			}]
		}],"has_more":false}`)
	})

	records, err := cat.FetchAll(context.Background(), []string{"id", "title", "tags", "variant"})
	testutil.AssertNoError(t, err, "fetch")
	testutil.AssertLen(t, records, 1, "one record")

	rec := records[0]
	testutil.AssertEqual(t, rec.ID, "rec-1", "id")
	testutil.AssertEqual(t, rec.Status, domain.StatusActive, "status")
	testutil.AssertLen(t, rec.Tags, 2, "comma tags split")
	testutil.AssertEqual(t, rec.Tags[1], "clearance", "tags trimmed")
	testutil.AssertEqual(t, rec.Variant.SKU, "SKU-1", "first variant lifted")
	testutil.AssertEqual(t, rec.Variant.Inventory, 4, "inventory quantity")
	testutil.AssertEqual(t, rec.Variant.Price.String(), "12.5", "price parsed")
	testutil.AssertEqual(t, tokenSeen, "tok", "access token header")
}

func TestFetchInventoryLevelsChunksLargeLookups(t *testing.T) {
	var chunks []int
	cat, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("item_ids")
		n := 1
		for _, ch := range ids {
			if ch == ',' {
				n++
			}
		}
		chunks = append(chunks, n)
		json.NewEncoder(w).Encode(map[string]any{"inventory_levels": []map[string]any{
			{"inventory_item_id": "inv-0", "available": 3},
		}})
	})

	ids := make([]string, 70)
	for i := range ids {
		ids[i] = fmt.Sprintf("inv-%d", i)
	}

	levels, err := cat.FetchInventoryLevels(context.Background(), ids)
	testutil.AssertNoError(t, err, "fetch")
	testutil.AssertLen(t, chunks, 2, "two chunked requests")
	testutil.AssertEqual(t, chunks[0], 50, "first chunk full")
	testutil.AssertEqual(t, chunks[1], 20, "second chunk remainder")
	testutil.AssertEqual(t, levels["inv-0"], 3, "level parsed")
}

func TestCreateRecordRoundTrip(t *testing.T) {
	var gotBody map[string]any
	cat, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"record":{
			"id":"rec-9","handle":"fresh-widget","title":"Fresh Widget",
			"tags":"supplier-feed","status":"active",
			"variants":[{"id":"var-9","sku":"SKU-9","inventory_item_id":"inv-9","price":"5.00"}]
		}}`)
	})

	input := ports.RecordInput{
		Title:   "Fresh Widget",
		Handle:  "fresh-widget",
		Tags:    []string{"supplier-feed"},
		Status:  domain.StatusActive,
		Variant: domain.Variant{SKU: "SKU-9"},
	}
	rec, err := cat.CreateRecord(context.Background(), input)
	testutil.AssertNoError(t, err, "create")
	testutil.AssertEqual(t, rec.ID, "rec-9", "created id")
	testutil.AssertEqual(t, rec.Variant.InventoryItemID, "inv-9", "inventory item linked")

	testutil.AssertEqual(t, gotBody["tags"], "supplier-feed", "tags joined on the wire")
	variants := gotBody["variants"].([]any)
	testutil.AssertLen(t, variants, 1, "one variant sent")
}

func TestWriteEndpoints(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	cat, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		fmt.Fprint(w, `{}`)
	})

	ctx := context.Background()
	testutil.AssertNoError(t, cat.SetInventory(ctx, "inv-1", 7), "set inventory")
	testutil.AssertNoError(t, cat.UpdateStatus(ctx, "rec-1", domain.StatusDraft), "update status")
	testutil.AssertNoError(t, cat.UpdateSKU(ctx, "var-1", "SKU-NEW"), "update sku")
	testutil.AssertNoError(t, cat.Delete(ctx, "rec-1"), "delete")

	want := []call{
		{http.MethodPut, "/inventory_levels/inv-1"},
		{http.MethodPut, "/records/rec-1/status"},
		{http.MethodPut, "/variants/var-1"},
		{http.MethodDelete, "/records/rec-1"},
	}
	testutil.AssertLen(t, calls, len(want), "four calls")
	for i := range want {
		testutil.AssertEqual(t, calls[i], want[i], "call route")
	}
}

func TestOpenBreakerShortCircuitsWithoutCalling(t *testing.T) {
	served := 0
	cat, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		served++
		fmt.Fprint(w, `{}`)
	})

	// Trip the breaker directly; the next call must be rejected before it
	// reaches the wire.
	for i := 0; i < 5; i++ {
		cat.breaker.RecordFailure()
	}

	err := cat.SetInventory(context.Background(), "inv-1", 1)
	testutil.AssertError(t, err, "rejected while open")
	testutil.AssertTrue(t, errors.Is(err, errors.ErrServiceUnavailable), "maps to service unavailable")
	testutil.AssertEqual(t, served, 0, "no request sent")
}
