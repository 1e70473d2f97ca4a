package kvstore

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStoreRoundTrip(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	if err := store.Set(ctx, "show:1", payload{Name: "Breaking Bad"}, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	found, err := store.Get(ctx, "show:1", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected entry to be present")
	}
	if got.Name != "Breaking Bad" {
		t.Fatalf("got %q, want %q", got.Name, "Breaking Bad")
	}
}

func TestBoltStoreMissingKey(t *testing.T) {
	store := newTestBoltStore(t)

	var dest string
	found, err := store.Get(context.Background(), "nope", &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("expected absent entry")
	}
}

func TestBoltStoreTTLExpiry(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	if err := store.Set(ctx, "k", "v", 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var dest string
	if found, _ := store.Get(ctx, "k", &dest); !found {
		t.Fatal("entry should be live before ttl")
	}

	store.now = func() time.Time { return base.Add(31 * time.Second) }
	if found, _ := store.Get(ctx, "k", &dest); found {
		t.Fatal("expired entry must be treated as absent")
	}
}

func TestBoltStoreZeroTTLNeverExpires(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	if err := store.Set(ctx, "forever", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	store.now = func() time.Time { return base.Add(1000 * time.Hour) }

	var dest string
	if found, _ := store.Get(ctx, "forever", &dest); !found {
		t.Fatal("ttl=0 entries must never expire")
	}
}

func TestBoltStoreDelete(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var dest string
	if found, _ := store.Get(ctx, "k", &dest); found {
		t.Fatal("deleted entry should be absent")
	}
}
