package kvstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/kapu/showdex-go/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketCache = []byte("cache")

// boltEntry wraps a cached value with its expiry metadata. An entry is live
// iff TTLSeconds == 0 or now-StoredAt < TTLSeconds.
type boltEntry struct {
	Value      json.RawMessage `json:"value"`
	StoredAt   int64           `json:"storedAt"`
	TTLSeconds int64           `json:"ttlSeconds"`
}

// BoltStore is the local persistent fallback tier.
type BoltStore struct {
	db     *bolt.DB
	logger *zap.Logger

	now func() time.Time // test seam
}

func NewBoltStore(dir string, logger *zap.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewCacheError("failed to create cache dir", "open", dir, err)
	}

	dbPath := filepath.Join(dir, "showdex.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.NewCacheError("failed to open bolt db", "open", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCache)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.NewCacheError("failed to create bucket", "open", dbPath, err)
	}

	logger.Info("Local cache opened", zap.String("path", dbPath))

	return &BoltStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *BoltStore) Get(_ context.Context, key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketCache).Get([]byte(key)); data != nil {
			raw = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return false, errors.NewCacheError("get failed", "get", key, err)
	}
	if raw == nil {
		return false, nil
	}

	var entry boltEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, errors.NewCacheError("unmarshal failed", "get", key, err)
	}

	if s.expired(&entry) {
		// Lazy cleanup; the entry already counts as absent.
		go s.deleteQuietly(key)
		return false, nil
	}

	if dest != nil {
		if err := json.Unmarshal(entry.Value, dest); err != nil {
			return false, errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return true, nil
}

func (s *BoltStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	entry := boltEntry{
		Value:      jsonData,
		StoredAt:   s.now().Unix(),
		TTLSeconds: int64(ttl.Seconds()),
	}
	raw, err := json.Marshal(&entry)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCache).Put([]byte(key), raw)
	})
	if err != nil {
		return errors.NewCacheError("set failed", "set", key, err)
	}
	return nil
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCache).Delete([]byte(key))
	})
	if err != nil {
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) expired(entry *boltEntry) bool {
	if entry.TTLSeconds <= 0 {
		return false
	}
	return s.now().Unix()-entry.StoredAt >= entry.TTLSeconds
}

func (s *BoltStore) deleteQuietly(key string) {
	if err := s.Delete(context.Background(), key); err != nil {
		s.logger.Debug("Expired entry cleanup failed", zap.String("key", key), zap.Error(err))
	}
}
