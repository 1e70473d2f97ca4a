// Package tmdb talks to the watch-provider upstream. Without an API key the
// client is constructed in disabled mode and every call reports ErrDisabled so
// the aggregator can degrade to "no streaming data".
package tmdb

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrDisabled = stderrors.New("tmdb client disabled: no API key configured")
	ErrNoMatch  = stderrors.New("no matching show on provider upstream")
)

// ProviderEntry is one raw provider listing inside a country block.
type ProviderEntry struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority,omitempty"`
}

// CountryProviders is the per-country block of the watch-provider response:
// up to four availability lists plus one non-provider-specific deep link.
type CountryProviders struct {
	Link     string          `json:"link,omitempty"`
	Flatrate []ProviderEntry `json:"flatrate,omitempty"`
	Rent     []ProviderEntry `json:"rent,omitempty"`
	Buy      []ProviderEntry `json:"buy,omitempty"`
	Ads      []ProviderEntry `json:"ads,omitempty"`
	Free     []ProviderEntry `json:"free,omitempty"`
}

type watchProvidersResponse struct {
	ID      int                         `json:"id"`
	Results map[string]CountryProviders `json:"results"`
}

type searchTVResponse struct {
	Results []struct {
		ID           int    `json:"id"`
		Name         string `json:"name"`
		FirstAirDate string `json:"first_air_date,omitempty"`
	} `json:"results"`
}

// Cache is the subset of the kv store this client needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	store      Cache
	logger     *zap.Logger
}

func NewClient(apiKey string, store Cache, logger *zap.Logger) *Client {
	if apiKey == "" {
		logger.Warn("TMDB API key not configured, streaming data disabled")
	}
	return &Client{
		httpClient: &http.Client{Timeout: constants.APIConfig.TMDBTimeout},
		apiKey:     apiKey,
		baseURL:    constants.APIConfig.TMDBBaseURL,
		store:      store,
		logger:     logger,
	}
}

// Enabled reports whether the client has credentials to reach the upstream.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				body = data
				return nil
			case resp.StatusCode == 429 || resp.StatusCode >= 500:
				return errors.NewAPIError(fmt.Sprintf("provider upstream error: %d", resp.StatusCode), resp.StatusCode, nil)
			default:
				return retry.Unrecoverable(errors.NewAPIError(
					fmt.Sprintf("provider upstream client error: %d", resp.StatusCode), resp.StatusCode, nil))
			}
		},
		retry.Context(ctx),
		retry.Attempts(uint(constants.RetryConfig.MaxAttempts)),
		retry.Delay(constants.RetryConfig.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ResolveShow finds the upstream's id for a show by name and first-air year.
// Resolutions are cached; misses return ErrNoMatch.
func (c *Client) ResolveShow(ctx context.Context, name string, year int) (int, error) {
	if !c.Enabled() {
		return 0, ErrDisabled
	}

	key := fmt.Sprintf("tmdb:resolve:%s:%d", strings.ToLower(name), year)

	var cached int
	if found, err := c.store.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	params := url.Values{}
	params.Set("query", name)
	if year > 0 {
		params.Set("first_air_date_year", fmt.Sprintf("%d", year))
	}

	body, err := c.doRequest(ctx, "/search/tv", params)
	if err != nil {
		return 0, err
	}

	var resp searchTVResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, errors.NewServiceError("malformed search response", "tmdb", "ResolveShow", err)
	}

	if len(resp.Results) == 0 {
		// Retry once without the year filter; premiere years disagree between
		// upstreams often enough to matter.
		if year > 0 {
			id, err := c.ResolveShow(ctx, name, 0)
			if err == nil {
				_ = c.store.Set(ctx, key, id, constants.CacheTTL.ShowResolution)
			}
			return id, err
		}
		return 0, ErrNoMatch
	}

	id := resp.Results[0].ID
	_ = c.store.Set(ctx, key, id, constants.CacheTTL.ShowResolution)

	return id, nil
}

// GetWatchProviders returns the country-scoped provider block for a show. The
// cache key carries the country: the same show has different availability per
// country and the entries must never be shared.
func (c *Client) GetWatchProviders(ctx context.Context, tvID int, country string) (*CountryProviders, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	country = strings.ToUpper(country)
	key := fmt.Sprintf("tmdb:providers:%d:%s", tvID, country)

	var cached CountryProviders
	if found, err := c.store.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	body, err := c.doRequest(ctx, fmt.Sprintf("/tv/%d/watch/providers", tvID), nil)
	if err != nil {
		return nil, err
	}

	var resp watchProvidersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewServiceError("malformed providers response", "tmdb", "GetWatchProviders", err)
	}

	block := resp.Results[country] // zero value when the country is absent

	_ = c.store.Set(ctx, key, &block, constants.CacheTTL.WatchProviders)

	return &block, nil
}
