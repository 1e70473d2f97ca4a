package kvstore

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TieredStore composes the remote and local tiers. Reads try the remote store
// first and fall back to the local one; writes mirror into both so a remote
// outage does not strand already-known data. Either tier may be nil: no remote
// means local-only caching, neither means no caching at all. Storage errors
// never reach the caller.
type TieredStore struct {
	remote Store
	local  Store
	logger *zap.Logger
}

func NewTieredStore(remote, local Store, logger *zap.Logger) *TieredStore {
	return &TieredStore{remote: remote, local: local, logger: logger}
}

func (t *TieredStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	if t.remote != nil {
		found, err := t.remote.Get(ctx, key, dest)
		if err == nil && found {
			return true, nil
		}
		if err != nil {
			t.logger.Warn("Remote cache get failed, trying local tier",
				zap.String("key", key), zap.Error(err))
		}
	}

	if t.local != nil {
		found, err := t.local.Get(ctx, key, dest)
		if err != nil {
			t.logger.Warn("Local cache get failed", zap.String("key", key), zap.Error(err))
			return false, nil
		}
		return found, nil
	}

	return false, nil
}

func (t *TieredStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if t.remote != nil {
		if err := t.remote.Set(ctx, key, value, ttl); err != nil {
			t.logger.Warn("Remote cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	if t.local != nil {
		if err := t.local.Set(ctx, key, value, ttl); err != nil {
			t.logger.Warn("Local cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (t *TieredStore) Delete(ctx context.Context, key string) error {
	if t.remote != nil {
		if err := t.remote.Delete(ctx, key); err != nil {
			t.logger.Warn("Remote cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
	if t.local != nil {
		if err := t.local.Delete(ctx, key); err != nil {
			t.logger.Warn("Local cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (t *TieredStore) Close() error {
	if t.remote != nil {
		_ = t.remote.Close()
	}
	if t.local != nil {
		_ = t.local.Close()
	}
	return nil
}
