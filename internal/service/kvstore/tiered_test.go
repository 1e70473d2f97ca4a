package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeStore struct {
	data     map[string][]byte
	failing  bool
	getCalls int
	setCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string, dest any) (bool, error) {
	f.getCalls++
	if f.failing {
		return false, fmt.Errorf("store down")
	}
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.setCalls++
	if f.failing {
		return fmt.Errorf("store down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if f.failing {
		return fmt.Errorf("store down")
	}
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func TestTieredStoreMirrorsWrites(t *testing.T) {
	remote := newFakeStore()
	local := newFakeStore()
	tiered := NewTieredStore(remote, local, zap.NewNop())
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if remote.setCalls != 1 || local.setCalls != 1 {
		t.Fatalf("expected write on both tiers, got remote=%d local=%d", remote.setCalls, local.setCalls)
	}
}

func TestTieredStoreFallsBackOnRemoteFailure(t *testing.T) {
	remote := newFakeStore()
	local := newFakeStore()
	tiered := NewTieredStore(remote, local, zap.NewNop())
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	remote.failing = true

	var got string
	found, err := tiered.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("Get must not surface tier errors: %v", err)
	}
	if !found || got != "v" {
		t.Fatalf("expected local fallback hit, found=%v got=%q", found, got)
	}
}

func TestTieredStoreDegradesToAbsent(t *testing.T) {
	remote := newFakeStore()
	remote.failing = true
	local := newFakeStore()
	local.failing = true
	tiered := NewTieredStore(remote, local, zap.NewNop())

	var got string
	found, err := tiered.Get(context.Background(), "k", &got)
	if err != nil {
		t.Fatalf("Get must not surface tier errors: %v", err)
	}
	if found {
		t.Fatal("expected absent when both tiers are down")
	}
}

func TestTieredStoreNilTiers(t *testing.T) {
	tiered := NewTieredStore(nil, nil, zap.NewNop())
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set on no-op store: %v", err)
	}
	var got string
	found, err := tiered.Get(ctx, "k", &got)
	if err != nil || found {
		t.Fatalf("no-op store must report absent without error, found=%v err=%v", found, err)
	}
	if err := tiered.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete on no-op store: %v", err)
	}
}

func TestTieredStoreDeleteRemovesBothTiers(t *testing.T) {
	remote := newFakeStore()
	local := newFakeStore()
	tiered := NewTieredStore(remote, local, zap.NewNop())
	ctx := context.Background()

	_ = tiered.Set(ctx, "k", "v", time.Minute)
	_ = tiered.Delete(ctx, "k")

	if _, ok := remote.data["k"]; ok {
		t.Fatal("remote tier still holds deleted key")
	}
	if _, ok := local.data["k"]; ok {
		t.Fatal("local tier still holds deleted key")
	}
}
