package tvmaze

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
	"github.com/kapu/showdex-go/pkg/errors"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu        sync.Mutex
	showCalls int
	show      *domain.ShowRecord
	showErr   error
	blockShow chan struct{} // when set, GetShow waits on it
}

func (f *fakeAPI) GetShow(_ context.Context, id int) (*domain.ShowRecord, error) {
	f.mu.Lock()
	f.showCalls++
	block := f.blockShow
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.showErr != nil {
		return nil, f.showErr
	}
	if f.show != nil {
		return f.show, nil
	}
	return &domain.ShowRecord{ID: id, Name: "Show"}, nil
}

func (f *fakeAPI) GetEpisodes(context.Context, int) ([]domain.Episode, error)   { return nil, nil }
func (f *fakeAPI) GetCast(context.Context, int) ([]domain.CastMember, error)    { return nil, nil }
func (f *fakeAPI) GetPerson(context.Context, int) (*domain.Person, error)       { return nil, nil }
func (f *fakeAPI) GetPersonCredits(context.Context, int) ([]domain.PersonCredit, error) {
	return nil, nil
}
func (f *fakeAPI) SearchShows(context.Context, string) ([]domain.SearchResult, error) {
	return nil, nil
}
func (f *fakeAPI) GetShowIndex(context.Context, int) ([]domain.ShowRecord, error) {
	return nil, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	f.ttls[key] = ttl
	return nil
}

func TestCachedClientCacheAside(t *testing.T) {
	api := &fakeAPI{show: &domain.ShowRecord{ID: 169, Name: "Breaking Bad"}}
	cache := newFakeCache()
	client := NewCachedClient(api, cache, zap.NewNop())
	ctx := context.Background()

	first, err := client.GetShow(ctx, 169)
	if err != nil {
		t.Fatalf("GetShow: %v", err)
	}
	second, err := client.GetShow(ctx, 169)
	if err != nil {
		t.Fatalf("GetShow (cached): %v", err)
	}

	if api.showCalls != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", api.showCalls)
	}
	if first.Name != second.Name {
		t.Fatalf("cache returned different value: %q vs %q", first.Name, second.Name)
	}
	if ttl := cache.ttls["tvmaze:show:169"]; ttl != constants.CacheTTL.ShowMetadata {
		t.Fatalf("show ttl = %v, want %v", ttl, constants.CacheTTL.ShowMetadata)
	}
}

func TestCachedClientSearchUsesShorterTTL(t *testing.T) {
	api := &fakeAPI{}
	cache := newFakeCache()
	client := NewCachedClient(api, cache, zap.NewNop())

	if _, err := client.SearchShows(context.Background(), "breaking"); err != nil {
		t.Fatalf("SearchShows: %v", err)
	}
	if ttl := cache.ttls["tvmaze:search:breaking"]; ttl != constants.CacheTTL.SearchResults {
		t.Fatalf("search ttl = %v, want %v", ttl, constants.CacheTTL.SearchResults)
	}
}

func TestCachedClientPropagatesUpstreamFailure(t *testing.T) {
	api := &fakeAPI{showErr: errors.NewAPIError("Not found", 404, nil)}
	cache := newFakeCache()
	client := NewCachedClient(api, cache, zap.NewNop())

	_, err := client.GetShow(context.Background(), 42)
	if err == nil {
		t.Fatal("expected upstream failure to propagate on cold cache")
	}
	if _, ok := cache.data["tvmaze:show:42"]; ok {
		t.Fatal("failed fetch must not populate the cache")
	}
}

func TestCachedClientCoalescesConcurrentColdFetches(t *testing.T) {
	api := &fakeAPI{blockShow: make(chan struct{})}
	cache := newFakeCache()
	client := NewCachedClient(api, cache, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.GetShow(ctx, 169)
		}()
	}

	// Give the goroutines time to pile up on the same key, then release.
	time.Sleep(50 * time.Millisecond)
	close(api.blockShow)
	wg.Wait()

	if api.showCalls != 1 {
		t.Fatalf("expected coalesced single upstream call, got %d", api.showCalls)
	}
}
