// Package kvstore provides the two-tier key-value cache: a remote Redis store
// with a local bbolt fallback. Caching here is a performance optimization, not
// a correctness dependency; the tiered store swallows every storage error and
// degrades instead of propagating.
package kvstore

import (
	"context"
	"time"
)

// Store is a single cache tier with JSON-marshaled values.
type Store interface {
	// Get unmarshals the value for key into dest and reports whether a live
	// entry existed. Expired entries are treated as absent.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
