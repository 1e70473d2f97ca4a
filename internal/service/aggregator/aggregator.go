package aggregator

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
	"github.com/kapu/showdex-go/internal/service/tmdb"
	"github.com/kapu/showdex-go/internal/util"
	"github.com/kapu/showdex-go/pkg/errors"
)

// Metadata serves show records, normally through the cached TVMaze client.
type Metadata interface {
	GetShow(ctx context.Context, id int) (*domain.ShowRecord, error)
}

// ProviderSource resolves shows against the watch-provider upstream.
type ProviderSource interface {
	Enabled() bool
	ResolveShow(ctx context.Context, name string, year int) (int, error)
	GetWatchProviders(ctx context.Context, tvID int, country string) (*tmdb.CountryProviders, error)
}

// Normalizer maps a raw provider block into the internal streaming model.
type Normalizer interface {
	Normalize(block *tmdb.CountryProviders, tvID int, country, showName string) []domain.StreamingProvider
	MergeWithOriginals(providers []domain.StreamingProvider, origin *domain.Network, country, showName string) []domain.StreamingProvider
}

// Translator translates named free-text fields, best effort.
type Translator interface {
	TranslateFields(ctx context.Context, fields map[string]string, targetLocale string) map[string]string
}

// Options let callers skip enrichment steps for a fast plain response.
type Options struct {
	SkipProviders   bool
	SkipTranslation bool
}

var (
	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
	localePattern  = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)
)

// Aggregator assembles the enriched per-request show view. Metadata is
// mandatory; provider availability and translation degrade silently.
type Aggregator struct {
	metadata   Metadata
	providers  ProviderSource
	normalizer Normalizer
	translator Translator
	logger     *zap.Logger
}

func NewAggregator(metadata Metadata, providers ProviderSource, normalizer Normalizer, translator Translator, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		metadata:   metadata,
		providers:  providers,
		normalizer: normalizer,
		translator: translator,
		logger:     logger,
	}
}

// Aggregate builds the enriched view for one show, scoped to a country and
// locale. Only a metadata failure aborts; everything else reduces the result.
func (a *Aggregator) Aggregate(ctx context.Context, showID int, country, locale string, opts Options) (*domain.AggregatedShow, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	locale = strings.ToLower(strings.TrimSpace(locale))

	if showID <= 0 {
		return nil, errors.NewValidationError("show id must be positive", "showId", showID)
	}
	if !countryPattern.MatchString(country) {
		return nil, errors.NewValidationError("invalid country code", "country", country)
	}
	if !localePattern.MatchString(locale) {
		return nil, errors.NewValidationError("invalid locale code", "locale", locale)
	}

	show, err := a.metadata.GetShow(ctx, showID)
	if err != nil {
		a.logger.Warn("Show metadata unavailable",
			zap.Int("show_id", showID),
			zap.Error(err),
		)
		return nil, errors.NewNotFoundError("show", strconv.Itoa(showID), err)
	}

	record := *show
	record.Summary = util.SanitizeHTML(record.Summary)

	result := &domain.AggregatedShow{
		ShowRecord:            record,
		StreamingAvailability: []domain.StreamingProvider{},
		Country:               country,
		Locale:                locale,
	}

	if !opts.SkipProviders {
		result.StreamingAvailability = a.lookupProviders(ctx, &record, country)
	}

	if !opts.SkipTranslation && locale != constants.SourceLanguage {
		a.translateFields(ctx, result, locale)
	}

	return result, nil
}

// lookupProviders is best effort end to end. Any failure along the chain
// leaves the metadata-derived origin platform as the only entry, or none.
func (a *Aggregator) lookupProviders(ctx context.Context, show *domain.ShowRecord, country string) []domain.StreamingProvider {
	var normalized []domain.StreamingProvider

	if a.providers != nil && a.providers.Enabled() {
		tvID := show.Externals.TMDB
		if tvID == 0 {
			id, err := a.providers.ResolveShow(ctx, show.Name, show.PremieredYear())
			if err != nil {
				a.logger.Debug("Provider resolution failed",
					zap.String("show", show.Name),
					zap.Error(err),
				)
			} else {
				tvID = id
			}
		}

		if tvID > 0 {
			block, err := a.providers.GetWatchProviders(ctx, tvID, country)
			if err != nil {
				a.logger.Warn("Watch provider fetch failed",
					zap.Int("tmdb_id", tvID),
					zap.String("country", country),
					zap.Error(err),
				)
			} else {
				normalized = a.normalizer.Normalize(block, tvID, country, show.Name)
			}
		}
	}

	origin := show.WebChannel
	if origin == nil {
		origin = show.Network
	}

	return a.normalizer.MergeWithOriginals(normalized, origin, country, show.Name)
}

// translateFields swaps in translated text per field when available, leaving
// the source text in place otherwise.
func (a *Aggregator) translateFields(ctx context.Context, result *domain.AggregatedShow, locale string) {
	if a.translator == nil {
		return
	}

	fields := map[string]string{
		"summary": result.Summary,
	}

	translated := a.translator.TranslateFields(ctx, fields, locale)
	if len(translated) == 0 {
		return
	}

	if summary, ok := translated["summary"]; ok {
		result.Summary = summary
		result.Translated = true
	}
}

// EnrichAll aggregates a batch of shows concurrently. Individual failures
// yield nil slots; a cancelled context stops scheduling further work.
func (a *Aggregator) EnrichAll(ctx context.Context, showIDs []int, country, locale string, opts Options) ([]*domain.AggregatedShow, error) {
	results := make([]*domain.AggregatedShow, len(showIDs))

	p := pool.New().WithMaxGoroutines(constants.WarmerConfig.Concurrency)
	for i, id := range showIDs {
		if err := ctx.Err(); err != nil {
			break
		}
		p.Go(func() {
			show, err := a.Aggregate(ctx, id, country, locale, opts)
			if err != nil {
				a.logger.Debug("Batch aggregation failed for show",
					zap.Int("show_id", id),
					zap.Error(err),
				)
				return
			}
			results[i] = show
		})
	}
	p.Wait()

	return results, ctx.Err()
}
