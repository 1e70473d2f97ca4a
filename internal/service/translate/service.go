package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
)

// Generator produces text from a prompt. Satisfied by ModelManager.
type Generator interface {
	Generate(ctx context.Context, prompt string) (ProviderResult, error)
}

// Cache is the subset of the key-value store the service needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Rough per-million-token pricing used for the running cost estimate.
const (
	costPerMillionInputTokens  = 0.30
	costPerMillionOutputTokens = 2.50
)

var languageNames = map[string]string{
	"nl": "Dutch",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
	"pl": "Polish",
	"sv": "Swedish",
}

// Service translates show text with content-addressed caching. Identical
// source text and locale always reuse the same cached translation no matter
// which show or field it came from.
type Service struct {
	gen    Generator
	store  Cache
	logger *zap.Logger

	mu    sync.Mutex
	stats domain.TranslationStats
}

func NewService(gen Generator, store Cache, logger *zap.Logger) *Service {
	return &Service{
		gen:    gen,
		store:  store,
		logger: logger,
	}
}

// Translate returns the translated text and true, or ("", false) when no
// translation is available. Missing translations are never errors to the
// caller; the source text stays in place.
func (s *Service) Translate(ctx context.Context, text string, targetLocale string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	locale := strings.ToLower(strings.TrimSpace(targetLocale))

	if trimmed == "" || locale == "" || locale == constants.SourceLanguage {
		return "", false
	}

	if len(trimmed) > constants.TranslationLimits.MaxTextLength {
		s.logger.Debug("Skipping translation, text too long",
			zap.Int("length", len(trimmed)),
			zap.Int("max", constants.TranslationLimits.MaxTextLength),
		)
		return "", false
	}

	key := cacheKey(trimmed, locale)

	var cached string
	if found, err := s.store.Get(ctx, key, &cached); err == nil && found {
		s.mu.Lock()
		s.stats.CacheHits++
		s.mu.Unlock()
		return cached, true
	}

	s.mu.Lock()
	s.stats.CacheMisses++
	s.mu.Unlock()

	result, err := s.gen.Generate(ctx, buildPrompt(trimmed, locale))
	if err != nil {
		s.logger.Warn("Translation failed",
			zap.String("locale", locale),
			zap.Error(err),
		)
		s.mu.Lock()
		s.stats.Errors++
		s.mu.Unlock()
		return "", false
	}

	translated := strings.TrimSpace(result.Text)
	if translated == "" {
		s.mu.Lock()
		s.stats.Errors++
		s.mu.Unlock()
		return "", false
	}

	// Translations never expire: the key is content-addressed, so stale
	// entries are unreachable once the source text changes.
	if err := s.store.Set(ctx, key, translated, 0); err != nil {
		s.logger.Warn("Failed to cache translation", zap.String("key", key), zap.Error(err))
	}

	s.mu.Lock()
	s.stats.TotalTranslations++
	s.stats.CostEstimate += estimateCost(result)
	s.mu.Unlock()

	return translated, true
}

// TranslateFields translates named fields concurrently. The returned map
// holds only the fields that translated successfully.
func (s *Service) TranslateFields(ctx context.Context, fields map[string]string, targetLocale string) map[string]string {
	translated := make(map[string]string, len(fields))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(len(fields))
	for name, text := range fields {
		p.Go(func() {
			if out, ok := s.Translate(ctx, text, targetLocale); ok {
				mu.Lock()
				translated[name] = out
				mu.Unlock()
			}
		})
	}
	p.Wait()

	return translated
}

// Stats returns a snapshot of the process-lifetime counters.
func (s *Service) Stats() domain.TranslationStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func cacheKey(trimmed string, locale string) string {
	sum := sha256.Sum256([]byte(trimmed))
	return fmt.Sprintf("translate:%s:%s:%s",
		constants.TranslationCacheVersion, hex.EncodeToString(sum[:]), locale)
}

func buildPrompt(text string, locale string) string {
	language := languageNames[locale]
	if language == "" {
		language = locale
	}

	return fmt.Sprintf(`Translate the following text to %s.
Keep any markup tags (such as <b> or <i>) exactly as they appear.
Keep proper nouns, show titles and personal names untranslated.
Reply with the translation only, without commentary.

%s`, language, text)
}

func estimateCost(result ProviderResult) float64 {
	return float64(result.InputTokens)/1_000_000*costPerMillionInputTokens +
		float64(result.OutputTokens)/1_000_000*costPerMillionOutputTokens
}
