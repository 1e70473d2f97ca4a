// Package streaming maps raw watch-provider blocks into the application's
// streaming-service model: known platforms only, de-duplicated, with tagged
// outgoing links.
package streaming

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
	"github.com/kapu/showdex-go/internal/service/tmdb"
	"github.com/kapu/showdex-go/internal/util"
	"go.uber.org/zap"
)

const (
	tmdbLogoBaseURL = "https://image.tmdb.org/t/p/w92"
	tmdbShowBaseURL = "https://www.themoviedb.org/tv/"
)

type Normalizer struct {
	affiliateTag string
	logger       *zap.Logger
}

func NewNormalizer(affiliateTag string, logger *zap.Logger) *Normalizer {
	return &Normalizer{affiliateTag: affiliateTag, logger: logger}
}

type rawList struct {
	entries      []tmdb.ProviderEntry
	availability domain.Availability
}

// Normalize maps one country block into streaming providers. Unknown
// providers are dropped. Output order follows the raw lists but callers must
// not depend on it.
func (n *Normalizer) Normalize(block *tmdb.CountryProviders, tvID int, country, showName string) []domain.StreamingProvider {
	if block == nil {
		return []domain.StreamingProvider{}
	}

	upstreamLink := block.Link
	if upstreamLink == "" && tvID > 0 {
		upstreamLink = showPageURL(tvID)
	}

	lists := []rawList{
		{block.Flatrate, domain.AvailabilitySubscription},
		{block.Buy, domain.AvailabilityBuy},
		{block.Rent, domain.AvailabilityRent},
		{block.Free, domain.AvailabilityFree},
		{block.Ads, domain.AvailabilityAds},
	}

	type seenKey struct {
		id           int
		availability domain.Availability
	}
	seen := make(map[seenKey]bool)
	result := make([]domain.StreamingProvider, 0)

	for _, list := range lists {
		// Collapse raw duplicates by upstream provider id before type-splitting.
		inList := make(map[int]bool)

		for _, entry := range list.entries {
			if inList[entry.ProviderID] {
				continue
			}
			inList[entry.ProviderID] = true

			platform := lookupByTMDBID(entry.ProviderID)
			if platform == nil {
				platform = lookupByName(entry.ProviderName)
			}
			if platform == nil {
				n.logger.Debug("Dropped unmapped provider",
					zap.Int("provider_id", entry.ProviderID),
					zap.String("provider_name", entry.ProviderName),
				)
				continue
			}

			key := seenKey{platform.ID, list.availability}
			if seen[key] {
				continue
			}
			seen[key] = true

			provider := domain.StreamingProvider{
				ID:           platform.ID,
				Name:         platform.Name,
				Country:      country,
				Availability: list.availability,
				Link:         n.buildLink(platform, showName, upstreamLink),
			}
			if entry.LogoPath != "" {
				provider.LogoURL = tmdbLogoBaseURL + entry.LogoPath
			}

			result = append(result, provider)
		}
	}

	return result
}

// MergeWithOriginals folds the show's origin platform (derived from its
// web channel or network metadata) into the provider list. The origin entry is
// authoritative for where the show comes from and wins conflicts.
func (n *Normalizer) MergeWithOriginals(providers []domain.StreamingProvider, origin *domain.Network, country, showName string) []domain.StreamingProvider {
	if origin == nil || origin.Name == "" {
		return providers
	}

	platformID, ok := MatchesPlatform(origin.Name)
	if !ok {
		return providers
	}
	platform := platformByID(platformID)

	originEntry := domain.StreamingProvider{
		ID:           platform.ID,
		Name:         platform.Name,
		Country:      country,
		Availability: domain.AvailabilitySubscription,
		Link:         n.buildLink(platform, showName, ""),
	}

	merged := make([]domain.StreamingProvider, 0, len(providers)+1)
	merged = append(merged, originEntry)
	for _, p := range providers {
		if p.ID == originEntry.ID && p.Availability == originEntry.Availability {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// buildLink prefers a platform search URL templated with the show name, then
// the platform homepage, then the upstream's generic country link. Affiliate
// tagging and UTM parameters apply to whatever link wins.
func (n *Normalizer) buildLink(platform *Platform, showName, upstreamLink string) string {
	var link string
	switch {
	case platform.SearchURL != "" && showName != "":
		link = fmt.Sprintf(platform.SearchURL, url.QueryEscape(showName))
	case platform.Homepage != "":
		link = platform.Homepage
	default:
		link = upstreamLink
	}
	if link == "" {
		return ""
	}

	if platform.AffiliateParam != "" && n.affiliateTag != "" {
		link = util.AppendQueryParam(link, platform.AffiliateParam, n.affiliateTag)
	}

	link = util.AppendQueryParam(link, "utm_source", constants.TrackingConfig.UTMSource)
	link = util.AppendQueryParam(link, "utm_medium", constants.TrackingConfig.UTMMedium)
	link = util.AppendQueryParam(link, "utm_campaign", constants.TrackingConfig.UTMCampaign)
	link = util.AppendQueryParam(link, "utm_content", constants.TrackingConfig.UTMContent)

	return link
}

// showPageURL builds the upstream's own page for a show, used when a country
// block carries no generic link of its own.
func showPageURL(tvID int) string {
	return fmt.Sprintf("%s%d", tmdbShowBaseURL, tvID)
}

// MatchesPlatform reports whether a free-text service name maps to a known
// platform, and which one.
func MatchesPlatform(name string) (int, bool) {
	p := lookupByName(strings.TrimSpace(name))
	if p == nil {
		return 0, false
	}
	return p.ID, true
}
