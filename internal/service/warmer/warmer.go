package warmer

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
	"github.com/kapu/showdex-go/internal/service/aggregator"
)

// Index pages through the full show catalog.
type Index interface {
	GetShowIndex(ctx context.Context, page int) ([]domain.ShowRecord, error)
}

// Enricher runs a full aggregation, which fills the upstream caches as a
// side effect.
type Enricher interface {
	Aggregate(ctx context.Context, showID int, country, locale string, opts aggregator.Options) (*domain.AggregatedShow, error)
}

// indexPages bounds how much of the catalog the warmer inspects for ranking.
const indexPages = 2

// Warmer pre-populates the caches for popular shows at startup so the first
// real requests hit warm entries. Results are discarded; only the cache
// side effects matter.
type Warmer struct {
	index    Index
	enricher Enricher
	logger   *zap.Logger
}

func NewWarmer(index Index, enricher Enricher, logger *zap.Logger) *Warmer {
	return &Warmer{
		index:    index,
		enricher: enricher,
		logger:   logger,
	}
}

// Warm selects candidate shows and aggregates each for every configured
// country. Failures are counted and logged but never propagate; warming is
// opportunistic.
func (w *Warmer) Warm(ctx context.Context) {
	start := time.Now()
	showIDs := w.selectShows(ctx)

	w.logger.Info("Cache warming started",
		zap.Int("shows", len(showIDs)),
		zap.Strings("countries", constants.WarmerConfig.Countries),
	)

	var warmed, failed atomic.Int64

	p := pool.New().WithMaxGoroutines(constants.WarmerConfig.Concurrency)
	for _, id := range showIDs {
		for _, country := range constants.WarmerConfig.Countries {
			if ctx.Err() != nil {
				break
			}
			p.Go(func() {
				_, err := w.enricher.Aggregate(ctx, id, country, constants.SourceLanguage, aggregator.Options{
					SkipTranslation: true,
				})
				if err != nil {
					failed.Add(1)
					w.logger.Debug("Warm request failed",
						zap.Int("show_id", id),
						zap.String("country", country),
						zap.Error(err),
					)
					return
				}
				warmed.Add(1)
			})
		}
	}
	p.Wait()

	w.logger.Info("Cache warming finished",
		zap.Int64("warmed", warmed.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// selectShows combines the fixed allowlist with the top-rated shows of the
// most common genres in the first index pages.
func (w *Warmer) selectShows(ctx context.Context) []int {
	seen := make(map[int]bool, len(constants.WarmerAllowlist))
	ids := make([]int, 0, len(constants.WarmerAllowlist))

	for _, id := range constants.WarmerAllowlist {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var catalog []domain.ShowRecord
	for page := 0; page < indexPages; page++ {
		shows, err := w.index.GetShowIndex(ctx, page)
		if err != nil {
			w.logger.Warn("Show index unavailable for warming",
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		if len(shows) == 0 {
			break
		}
		catalog = append(catalog, shows...)
	}

	for _, id := range topRatedByGenre(catalog) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids
}

// topRatedByGenre picks the highest-rated shows within each of the most
// populated genres.
func topRatedByGenre(catalog []domain.ShowRecord) []int {
	byGenre := make(map[string][]domain.ShowRecord)
	for _, show := range catalog {
		if show.Rating == nil {
			continue
		}
		for _, genre := range show.Genres {
			byGenre[genre] = append(byGenre[genre], show)
		}
	}

	genres := make([]string, 0, len(byGenre))
	for genre := range byGenre {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if len(byGenre[genres[i]]) != len(byGenre[genres[j]]) {
			return len(byGenre[genres[i]]) > len(byGenre[genres[j]])
		}
		return genres[i] < genres[j]
	})
	if len(genres) > constants.WarmerConfig.TopGenres {
		genres = genres[:constants.WarmerConfig.TopGenres]
	}

	var ids []int
	for _, genre := range genres {
		shows := byGenre[genre]
		sort.Slice(shows, func(i, j int) bool {
			return *shows[i].Rating > *shows[j].Rating
		})
		limit := constants.WarmerConfig.ShowsPerGenre
		if len(shows) < limit {
			limit = len(shows)
		}
		for _, show := range shows[:limit] {
			ids = append(ids, show.ID)
		}
	}

	return ids
}
