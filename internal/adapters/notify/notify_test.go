// internal/adapters/notify/notify_test.go
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/testutil"
)

func TestWebhookPostsTheEvent(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhook(srv.URL, 5*time.Second, logx.NewSilent())
	event := ports.NewEvent(ports.EventFailsafeTriggered, "discontinue", "too many retires").Critical()

	testutil.AssertNoError(t, n.Notify(context.Background(), event), "notify")
	testutil.AssertEqual(t, payload["type"], string(ports.EventFailsafeTriggered), "type on the wire")
	testutil.AssertEqual(t, payload["job"], "discontinue", "job on the wire")
	testutil.AssertEqual(t, payload["severity"], string(ports.SeverityCritical), "severity on the wire")
}

func TestWebhookFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhook(srv.URL, time.Second, logx.NewSilent())
	err := n.Notify(context.Background(), ports.NewEvent(ports.EventJobCompleted, "inventory-sync", "done"))

	testutil.AssertNoError(t, err, "delivery failures never fail the caller")
}

func TestFanoutReachesEveryBackend(t *testing.T) {
	a := &testutil.MockNotifier{}
	b := &testutil.MockNotifier{}
	f := NewFanout(a, b)

	event := ports.NewEvent(ports.EventJobStarted, "create-new", "run started")
	testutil.AssertNoError(t, f.Notify(context.Background(), event), "notify")

	testutil.AssertLen(t, a.Events, 1, "first backend")
	testutil.AssertLen(t, b.Events, 1, "second backend")
	testutil.AssertNoError(t, f.Close(), "close")
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLog(logx.NewSilent())
	err := n.Notify(context.Background(), ports.NewEvent(ports.EventJobFailed, "dedupe", "boom").Critical())
	testutil.AssertNoError(t, err, "log delivery")
}
