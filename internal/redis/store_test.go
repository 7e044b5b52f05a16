package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLockStore_DriverDayLock(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	ok, err := store.AcquireDriverDayLock(ctx, "driver-1", "2025-03-10", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}
	if !mr.Exists("lock:driver-day:driver-1:2025-03-10") {
		t.Error("expected lock key to exist")
	}

	ok, err = store.AcquireDriverDayLock(ctx, "driver-1", "2025-03-10", 10*time.Second)
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, got ok=%v err=%v", ok, err)
	}

	// Other days of the same driver are independent.
	ok, _ = store.AcquireDriverDayLock(ctx, "driver-1", "2025-03-11", 10*time.Second)
	if !ok {
		t.Error("expected lock on another day to succeed")
	}

	if err := store.ReleaseDriverDayLock(ctx, "driver-1", "2025-03-10"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, _ = store.AcquireDriverDayLock(ctx, "driver-1", "2025-03-10", 10*time.Second)
	if !ok {
		t.Error("expected acquire after release to succeed")
	}
}

func TestLockStore_LockExpires(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	if ok, _ := store.AcquireDriverLock(ctx, "driver-1", 10*time.Second); !ok {
		t.Fatal("expected acquire to succeed")
	}

	mr.FastForward(11 * time.Second)

	if ok, _ := store.AcquireDriverLock(ctx, "driver-1", 10*time.Second); !ok {
		t.Error("expected expired lock to be acquirable")
	}
}

func TestCacheStore_HOSStatus(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewCacheStore(client, 15*time.Second)
	ctx := context.Background()

	got, err := store.GetHOSStatus(ctx, "driver-1")
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %+v err=%v", got, err)
	}

	status := &CachedHOSStatus{DriverID: "driver-1", CycleType: "70_8", CycleUsed: 42.5, CycleLimit: 70, NeedsBreakSoon: true}
	if err := store.SetHOSStatus(ctx, status); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if ttl := mr.TTL("cache:hos-status:driver-1"); ttl != 15*time.Second {
		t.Errorf("expected 15s ttl, got %v", ttl)
	}

	got, err = store.GetHOSStatus(ctx, "driver-1")
	if err != nil || got == nil {
		t.Fatalf("expected hit, got err=%v", err)
	}
	if got.CycleUsed != 42.5 || !got.NeedsBreakSoon {
		t.Errorf("unexpected cached status %+v", got)
	}

	if err := store.InvalidateHOSStatus(ctx, "driver-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if got, _ := store.GetHOSStatus(ctx, "driver-1"); got != nil {
		t.Error("expected miss after invalidation")
	}
}

func TestCacheStore_Driver(t *testing.T) {
	_, client := newTestClient(t)
	store := NewCacheStore(client, 0)
	ctx := context.Background()

	if err := store.SetDriver(ctx, &CachedDriver{ID: "driver-1", Name: "Ana", CycleType: "60_7"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.GetDriver(ctx, "driver-1")
	if err != nil || got == nil || got.CycleType != "60_7" {
		t.Fatalf("unexpected driver %+v err=%v", got, err)
	}

	_ = store.InvalidateDriver(ctx, "driver-1")
	if got, _ := store.GetDriver(ctx, "driver-1"); got != nil {
		t.Error("expected miss after invalidation")
	}
}

func TestCacheStore_CorruptEntry(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewCacheStore(client, 0)

	mr.Set("cache:driver:driver-1", "{not json")

	if _, err := store.GetDriver(context.Background(), "driver-1"); err == nil {
		t.Error("expected decode error for corrupt entry")
	}
}
