package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	fail     bool
	response string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (ProviderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return ProviderResult{}, errors.New("upstream down")
	}
	resp := f.response
	if resp == "" {
		resp = "vertaald: " + prompt
	}
	return ProviderResult{
		Text:         resp,
		Model:        "fake-model",
		InputTokens:  1000,
		OutputTokens: 500,
	}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
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

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func newTestService(gen *fakeGenerator) (*Service, *fakeCache) {
	cache := newFakeCache()
	return NewService(gen, cache, zap.NewNop()), cache
}

func TestTranslateReusesCachedResult(t *testing.T) {
	gen := &fakeGenerator{response: "Een leraar..."}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	first, ok := svc.Translate(ctx, "A teacher...", "nl")
	if !ok {
		t.Fatal("expected first translation to succeed")
	}
	second, ok := svc.Translate(ctx, "A teacher...", "nl")
	if !ok {
		t.Fatal("expected second translation to succeed")
	}

	if first != second || first != "Een leraar..." {
		t.Fatalf("expected identical results, got %q and %q", first, second)
	}
	if gen.callCount() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", gen.callCount())
	}

	stats := svc.Stats()
	if stats.CacheMisses != 1 || stats.CacheHits != 1 || stats.TotalTranslations != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestTranslateSharedAcrossWhitespaceVariants(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	svc.Translate(ctx, "A crime drama", "nl")
	svc.Translate(ctx, "  A crime drama  ", "nl")

	if gen.callCount() != 1 {
		t.Fatalf("trimmed variants should share a cache entry, got %d calls", gen.callCount())
	}
}

func TestTranslateFailureReturnsAbsent(t *testing.T) {
	gen := &fakeGenerator{fail: true}
	svc, cache := newTestService(gen)

	out, ok := svc.Translate(context.Background(), "A teacher...", "nl")
	if ok || out != "" {
		t.Fatalf("expected absent result, got %q (ok=%v)", out, ok)
	}

	stats := svc.Stats()
	if stats.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", stats.Errors)
	}
	if stats.TotalTranslations != 0 {
		t.Fatalf("failed call must not count as a translation, got %d", stats.TotalTranslations)
	}
	if len(cache.data) != 0 {
		t.Fatal("failed translation must not be cached")
	}
}

func TestTranslateShortCircuits(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	if _, ok := svc.Translate(ctx, "", "nl"); ok {
		t.Fatal("empty text must not translate")
	}
	if _, ok := svc.Translate(ctx, "   ", "nl"); ok {
		t.Fatal("blank text must not translate")
	}
	if _, ok := svc.Translate(ctx, "A teacher...", "en"); ok {
		t.Fatal("source-language locale must not translate")
	}
	if _, ok := svc.Translate(ctx, "A teacher...", "EN"); ok {
		t.Fatal("locale comparison must be case-insensitive")
	}

	if gen.callCount() != 0 {
		t.Fatalf("short-circuit must not reach upstream, got %d calls", gen.callCount())
	}
	stats := svc.Stats()
	if stats.CacheHits != 0 || stats.CacheMisses != 0 || stats.Errors != 0 {
		t.Fatalf("short-circuit must not touch counters: %+v", stats)
	}
}

func TestTranslateSkipsOversizedText(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(gen)

	long := strings.Repeat("x", 5000)
	if _, ok := svc.Translate(context.Background(), long, "nl"); ok {
		t.Fatal("oversized text must not translate")
	}
	if gen.callCount() != 0 {
		t.Fatalf("oversized text must not reach upstream, got %d calls", gen.callCount())
	}
}

func TestTranslateFieldsIndependence(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(gen)

	fields := map[string]string{
		"summary": "A teacher...",
		"empty":   "",
		"name":    "A crime drama",
	}

	out := svc.TranslateFields(context.Background(), fields, "nl")
	if len(out) != 2 {
		t.Fatalf("expected 2 translated fields, got %d: %v", len(out), out)
	}
	if _, ok := out["empty"]; ok {
		t.Fatal("empty field must be absent from the result")
	}
	for _, name := range []string{"summary", "name"} {
		if out[name] == "" {
			t.Fatalf("expected field %q to be translated", name)
		}
	}
}

func TestTranslateAccumulatesCostEstimate(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Translate(ctx, fmt.Sprintf("text %d", i), "nl")
	}

	stats := svc.Stats()
	if stats.TotalTranslations != 3 {
		t.Fatalf("expected 3 translations, got %d", stats.TotalTranslations)
	}
	if stats.CostEstimate <= 0 {
		t.Fatalf("expected positive cost estimate, got %f", stats.CostEstimate)
	}
}
