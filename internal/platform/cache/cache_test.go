// internal/platform/cache/cache_test.go
package cache

import (
	"fmt"
	"testing"
	"time"

	"catalogsync/internal/testutil"
)

func TestSetAndGet(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("a", "value-a", 0)

	got, ok := c.Get("a")
	testutil.AssertTrue(t, ok, "stored key should be found")
	testutil.AssertEqual(t, got, "value-a", "stored value should round-trip")
}

func TestGetMissing(t *testing.T) {
	c := NewMemoryCache(10)

	_, ok := c.Get("missing")
	testutil.AssertFalse(t, ok, "missing key should not be found")
}

func TestTTLExpiry(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("a", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	testutil.AssertFalse(t, ok, "expired entry should count as a miss")
	testutil.AssertEqual(t, c.Size(), 0, "expired entry should be dropped on read")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("a", 1, 0)
	time.Sleep(15 * time.Millisecond)

	_, ok := c.Get("a")
	testutil.AssertTrue(t, ok, "zero ttl entry should stay")
}

func TestLRUEviction(t *testing.T) {
	c := NewMemoryCache(3)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// Touch "a" so "b" becomes the eviction candidate.
	_, _ = c.Get("a")

	c.Set("d", 4, 0)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	testutil.AssertTrue(t, okA, "recently used entry should survive")
	testutil.AssertFalse(t, okB, "least recently used entry should be evicted")
	testutil.AssertEqual(t, c.Size(), 3, "size should stay at capacity")
}

func TestSetUpdatesExisting(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("a", 1, 0)
	c.Set("a", 2, 0)

	got, _ := c.Get("a")
	testutil.AssertEqual(t, got, 2, "second set should overwrite")
	testutil.AssertEqual(t, c.Size(), 1, "overwrite should not grow the cache")
}

func TestDeleteAndClear(t *testing.T) {
	c := NewMemoryCache(10)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0)
	}

	c.Delete("k0")
	_, ok := c.Get("k0")
	testutil.AssertFalse(t, ok, "deleted key should be gone")
	testutil.AssertEqual(t, c.Size(), 4, "delete should shrink the cache")

	c.Clear()
	testutil.AssertEqual(t, c.Size(), 0, "clear should empty the cache")
}
