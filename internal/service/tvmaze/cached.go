package tvmaze

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// API is the raw metadata client surface wrapped by CachedClient.
type API interface {
	GetShow(ctx context.Context, id int) (*domain.ShowRecord, error)
	GetEpisodes(ctx context.Context, showID int) ([]domain.Episode, error)
	GetCast(ctx context.Context, showID int) ([]domain.CastMember, error)
	GetPerson(ctx context.Context, id int) (*domain.Person, error)
	GetPersonCredits(ctx context.Context, id int) ([]domain.PersonCredit, error)
	SearchShows(ctx context.Context, query string) ([]domain.SearchResult, error)
	GetShowIndex(ctx context.Context, page int) ([]domain.ShowRecord, error)
}

// Cache is the subset of the kv store the cached client needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedClient adds cache-aside semantics with per-resource-kind TTLs on top
// of the raw client. Concurrent cold-key requests are coalesced into a single
// upstream call per key.
type CachedClient struct {
	api    API
	store  Cache
	logger *zap.Logger
	group  singleflight.Group
}

func NewCachedClient(api API, store Cache, logger *zap.Logger) *CachedClient {
	return &CachedClient{api: api, store: store, logger: logger}
}

func (c *CachedClient) GetShow(ctx context.Context, id int) (*domain.ShowRecord, error) {
	key := fmt.Sprintf("tvmaze:show:%d", id)
	return getCached(ctx, c, key, constants.CacheTTL.ShowMetadata, func(ctx context.Context) (*domain.ShowRecord, error) {
		return c.api.GetShow(ctx, id)
	})
}

func (c *CachedClient) GetEpisodes(ctx context.Context, showID int) ([]domain.Episode, error) {
	key := fmt.Sprintf("tvmaze:episodes:%d", showID)
	return getCached(ctx, c, key, constants.CacheTTL.Episodes, func(ctx context.Context) ([]domain.Episode, error) {
		return c.api.GetEpisodes(ctx, showID)
	})
}

func (c *CachedClient) GetCast(ctx context.Context, showID int) ([]domain.CastMember, error) {
	key := fmt.Sprintf("tvmaze:cast:%d", showID)
	return getCached(ctx, c, key, constants.CacheTTL.Cast, func(ctx context.Context) ([]domain.CastMember, error) {
		return c.api.GetCast(ctx, showID)
	})
}

func (c *CachedClient) GetPerson(ctx context.Context, id int) (*domain.Person, error) {
	key := fmt.Sprintf("tvmaze:person:%d", id)
	return getCached(ctx, c, key, constants.CacheTTL.Person, func(ctx context.Context) (*domain.Person, error) {
		return c.api.GetPerson(ctx, id)
	})
}

func (c *CachedClient) GetPersonCredits(ctx context.Context, id int) ([]domain.PersonCredit, error) {
	key := fmt.Sprintf("tvmaze:credits:%d", id)
	return getCached(ctx, c, key, constants.CacheTTL.PersonCredits, func(ctx context.Context) ([]domain.PersonCredit, error) {
		return c.api.GetPersonCredits(ctx, id)
	})
}

func (c *CachedClient) SearchShows(ctx context.Context, query string) ([]domain.SearchResult, error) {
	key := fmt.Sprintf("tvmaze:search:%s", query)
	return getCached(ctx, c, key, constants.CacheTTL.SearchResults, func(ctx context.Context) ([]domain.SearchResult, error) {
		return c.api.SearchShows(ctx, query)
	})
}

func (c *CachedClient) GetShowIndex(ctx context.Context, page int) ([]domain.ShowRecord, error) {
	key := fmt.Sprintf("tvmaze:index:%d", page)
	return getCached(ctx, c, key, constants.CacheTTL.ShowIndex, func(ctx context.Context) ([]domain.ShowRecord, error) {
		return c.api.GetShowIndex(ctx, page)
	})
}

// getCached implements the cache-aside read path: cache hit wins, otherwise
// one coalesced upstream fetch populates the store. Upstream failure with no
// cached value propagates to the caller.
func getCached[T any](ctx context.Context, c *CachedClient, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	if found, err := c.store.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.store.Set(ctx, key, fresh, ttl)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	if shared {
		c.logger.Debug("Coalesced concurrent upstream fetch", zap.String("key", key))
	}

	return result.(T), nil
}
