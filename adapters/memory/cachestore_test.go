package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/pageblocks/adapters/clock"
	"github.com/artpar/pageblocks/adapters/memory"
)

func TestCacheStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheStore()

	if got, err := store.Get(ctx, "missing"); err != nil || got != nil {
		t.Fatalf("Get(missing) = %q, %v; want nil, nil", got, err)
	}

	if err := store.Put(ctx, "k", []byte(`{"a":"b"}`), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"a":"b"}` {
		t.Errorf("Get() = %q", got)
	}
}

func TestCacheStore_ValueIsCopied(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheStore()

	value := []byte("abc")
	_ = store.Put(ctx, "k", value, 0)
	value[0] = 'z'

	got, _ := store.Get(ctx, "k")
	got[1] = 'z'

	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated: %q", again)
	}
}

func TestCacheStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memory.NewCacheStoreWithClock(clk)

	_ = store.Put(ctx, "short", []byte("1"), time.Minute)
	_ = store.Put(ctx, "forever", []byte("2"), 0)

	clk.Advance(59 * time.Second)
	if got, _ := store.Get(ctx, "short"); string(got) != "1" {
		t.Errorf("before expiry Get(short) = %q, want 1", got)
	}

	clk.Advance(time.Second)
	if got, _ := store.Get(ctx, "short"); got != nil {
		t.Errorf("after expiry Get(short) = %q, want nil", got)
	}
	if got, _ := store.Get(ctx, "forever"); string(got) != "2" {
		t.Errorf("Get(forever) = %q, want 2", got)
	}

	n, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", n)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestCacheStore_Forget(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheStore()

	_ = store.Put(ctx, "k", []byte("v"), 0)
	if err := store.Forget(ctx, "k"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if got, _ := store.Get(ctx, "k"); got != nil {
		t.Errorf("Get after Forget = %q, want nil", got)
	}
	if err := store.Forget(ctx, "k"); err != nil {
		t.Errorf("Forget(missing) error = %v", err)
	}
}
