// Package tvmaze talks to the show-metadata upstream. The API is unauthenticated
// but rate-limited; the cached client in this package exists specifically to
// keep request volume down.
package tvmaze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kapu/showdex-go/internal/constants"
	"github.com/kapu/showdex-go/internal/domain"
	"github.com/kapu/showdex-go/pkg/errors"
	"go.uber.org/zap"
)

// showRaw mirrors the upstream show JSON.
type showRaw struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	Language     string   `json:"language,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Status       string   `json:"status,omitempty"`
	Premiered    string   `json:"premiered,omitempty"`
	Ended        string   `json:"ended,omitempty"`
	OfficialSite string   `json:"officialSite,omitempty"`
	Rating       struct {
		Average *float64 `json:"average,omitempty"`
	} `json:"rating"`
	Network    *networkRaw      `json:"network,omitempty"`
	WebChannel *networkRaw      `json:"webChannel,omitempty"`
	Schedule   *scheduleRaw     `json:"schedule,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	Image      *domain.ImageSet `json:"image,omitempty"`
	Externals  struct {
		IMDB    *string `json:"imdb,omitempty"`
		TheTVDB *int    `json:"thetvdb,omitempty"`
	} `json:"externals"`
}

type networkRaw struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country *struct {
		Code string `json:"code,omitempty"`
	} `json:"country,omitempty"`
}

type scheduleRaw struct {
	Time string   `json:"time,omitempty"`
	Days []string `json:"days,omitempty"`
}

type episodeRaw struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate,omitempty"`
	Runtime int    `json:"runtime,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type castRaw struct {
	Person    personRaw `json:"person"`
	Character *struct {
		Name string `json:"name"`
	} `json:"character,omitempty"`
}

type personRaw struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country *struct {
		Code string `json:"code,omitempty"`
	} `json:"country,omitempty"`
	Image *domain.ImageSet `json:"image,omitempty"`
}

type castCreditRaw struct {
	Embedded struct {
		Show *showRaw `json:"show,omitempty"`
	} `json:"_embedded"`
	Links struct {
		Character struct {
			Name string `json:"name,omitempty"`
		} `json:"character"`
	} `json:"_links"`
}

type searchResultRaw struct {
	Score float64 `json:"score"`
	Show  showRaw `json:"show"`
}

// Client is the raw metadata API client. Most callers want CachedClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger

	failureCount     int
	failureMu        sync.Mutex
	circuitOpenUntil *time.Time
	circuitMu        sync.RWMutex
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = constants.APIConfig.TVMazeBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: constants.APIConfig.TVMazeTimeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (c *Client) isCircuitOpen() bool {
	c.circuitMu.RLock()
	defer c.circuitMu.RUnlock()

	if c.circuitOpenUntil == nil {
		return false
	}
	return time.Now().Before(*c.circuitOpenUntil)
}

func (c *Client) openCircuit() {
	c.circuitMu.Lock()
	defer c.circuitMu.Unlock()

	resetTime := time.Now().Add(constants.CircuitBreakerConfig.ResetTimeout)
	c.circuitOpenUntil = &resetTime

	c.failureMu.Lock()
	c.failureCount = 0
	c.failureMu.Unlock()

	c.logger.Error("Metadata API circuit breaker opened",
		zap.Duration("reset_timeout", constants.CircuitBreakerConfig.ResetTimeout),
	)
}

func (c *Client) resetCircuit() {
	c.circuitMu.Lock()
	defer c.circuitMu.Unlock()

	c.failureMu.Lock()
	c.failureCount = 0
	c.failureMu.Unlock()

	c.circuitOpenUntil = nil
}

func (c *Client) incrementFailureCount() int {
	c.failureMu.Lock()
	defer c.failureMu.Unlock()
	c.failureCount++
	return c.failureCount
}

func (c *Client) computeDelay(attempt int) time.Duration {
	jitter := time.Duration(rand.Float64() * float64(constants.RetryConfig.Jitter))
	base := constants.RetryConfig.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	return base + jitter
}

// doRequest performs an HTTP GET with retry and circuit breaker.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.isCircuitOpen() {
		c.circuitMu.RLock()
		var remainingMs int64
		if c.circuitOpenUntil != nil {
			remainingMs = time.Until(*c.circuitOpenUntil).Milliseconds()
		}
		c.circuitMu.RUnlock()

		c.logger.Warn("Circuit breaker is open", zap.Int64("retry_after_ms", remainingMs))
		return nil, errors.NewAPIError("Circuit breaker open", 503, map[string]any{
			"retry_after_ms": remainingMs,
		})
	}

	maxAttempts := constants.RetryConfig.MaxAttempts
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		reqURL := c.baseURL + path
		if params != nil {
			reqURL += "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			count := c.incrementFailureCount()

			if count >= constants.CircuitBreakerConfig.FailureThreshold {
				c.openCircuit()
				break
			}

			if attempt < maxAttempts-1 {
				delay := c.computeDelay(attempt)
				c.logger.Warn("Request failed, retrying",
					zap.Error(err),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
				)
				time.Sleep(delay)
				continue
			}
			break
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		// Rate limited: back off and retry.
		if resp.StatusCode == 429 {
			c.logger.Warn("Rate limited by metadata API", zap.Int("attempt", attempt+1))
			if attempt < maxAttempts-1 {
				time.Sleep(c.computeDelay(attempt))
				continue
			}
			return nil, errors.NewAPIError("Metadata API rate limited", 429, map[string]any{
				"url": reqURL,
			})
		}

		if resp.StatusCode >= 500 {
			count := c.incrementFailureCount()
			c.logger.Warn("Server error",
				zap.Int("status", resp.StatusCode),
				zap.Int("failure_count", count),
			)

			if count >= constants.CircuitBreakerConfig.FailureThreshold {
				c.openCircuit()
				break
			}

			if attempt < maxAttempts-1 {
				time.Sleep(c.computeDelay(attempt))
				continue
			}

			return nil, errors.NewAPIError(fmt.Sprintf("Server error: %d", resp.StatusCode), resp.StatusCode, nil)
		}

		if resp.StatusCode == 404 {
			return nil, errors.NewAPIError("Not found", 404, map[string]any{"url": reqURL})
		}

		if resp.StatusCode >= 400 {
			return nil, errors.NewAPIError(fmt.Sprintf("Client error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
				"url":  reqURL,
				"body": string(body),
			})
		}

		c.resetCircuit()
		return body, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, errors.NewAPIError("Metadata API request failed after all retries", 502, nil)
}

func (c *Client) GetShow(ctx context.Context, id int) (*domain.ShowRecord, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/shows/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var raw showRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewServiceError("malformed show response", "tvmaze", "GetShow", err)
	}

	return mapShow(&raw), nil
}

func (c *Client) GetEpisodes(ctx context.Context, showID int) ([]domain.Episode, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/shows/%d/episodes", showID), nil)
	if err != nil {
		return nil, err
	}

	var raws []episodeRaw
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.NewServiceError("malformed episodes response", "tvmaze", "GetEpisodes", err)
	}

	episodes := make([]domain.Episode, len(raws))
	for i, raw := range raws {
		episodes[i] = domain.Episode(raw)
	}
	return episodes, nil
}

func (c *Client) GetCast(ctx context.Context, showID int) ([]domain.CastMember, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/shows/%d/cast", showID), nil)
	if err != nil {
		return nil, err
	}

	var raws []castRaw
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.NewServiceError("malformed cast response", "tvmaze", "GetCast", err)
	}

	cast := make([]domain.CastMember, len(raws))
	for i, raw := range raws {
		member := domain.CastMember{Person: mapPerson(&raw.Person)}
		if raw.Character != nil {
			member.Character = raw.Character.Name
		}
		cast[i] = member
	}
	return cast, nil
}

func (c *Client) GetPerson(ctx context.Context, id int) (*domain.Person, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/people/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var raw personRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewServiceError("malformed person response", "tvmaze", "GetPerson", err)
	}

	person := mapPerson(&raw)
	return &person, nil
}

func (c *Client) GetPersonCredits(ctx context.Context, id int) ([]domain.PersonCredit, error) {
	params := url.Values{}
	params.Set("embed", "show")

	body, err := c.doRequest(ctx, fmt.Sprintf("/people/%d/castcredits", id), params)
	if err != nil {
		return nil, err
	}

	var raws []castCreditRaw
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.NewServiceError("malformed credits response", "tvmaze", "GetPersonCredits", err)
	}

	credits := make([]domain.PersonCredit, 0, len(raws))
	for _, raw := range raws {
		if raw.Embedded.Show == nil {
			continue
		}
		credits = append(credits, domain.PersonCredit{
			ShowID:    raw.Embedded.Show.ID,
			ShowName:  raw.Embedded.Show.Name,
			Character: raw.Links.Character.Name,
		})
	}
	return credits, nil
}

func (c *Client) SearchShows(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	body, err := c.doRequest(ctx, "/search/shows", params)
	if err != nil {
		return nil, err
	}

	var raws []searchResultRaw
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.NewServiceError("malformed search response", "tvmaze", "SearchShows", err)
	}

	results := make([]domain.SearchResult, len(raws))
	for i, raw := range raws {
		results[i] = domain.SearchResult{Score: raw.Score, Show: *mapShow(&raw.Show)}
	}
	return results, nil
}

// GetShowIndex returns one page of the full show index. A page past the end of
// the catalog comes back empty.
func (c *Client) GetShowIndex(ctx context.Context, page int) ([]domain.ShowRecord, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))

	body, err := c.doRequest(ctx, "/shows", params)
	if err != nil {
		if apiErr, ok := err.(*errors.APIError); ok && apiErr.StatusCode == 404 {
			return []domain.ShowRecord{}, nil
		}
		return nil, err
	}

	var raws []showRaw
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.NewServiceError("malformed index response", "tvmaze", "GetShowIndex", err)
	}

	shows := make([]domain.ShowRecord, len(raws))
	for i, raw := range raws {
		shows[i] = *mapShow(&raw)
	}
	return shows, nil
}

func mapShow(raw *showRaw) *domain.ShowRecord {
	show := &domain.ShowRecord{
		ID:           raw.ID,
		Name:         raw.Name,
		Type:         raw.Type,
		Language:     raw.Language,
		Genres:       raw.Genres,
		Status:       raw.Status,
		Premiered:    raw.Premiered,
		Ended:        raw.Ended,
		OfficialSite: raw.OfficialSite,
		Rating:       raw.Rating.Average,
		Network:      mapNetwork(raw.Network),
		WebChannel:   mapNetwork(raw.WebChannel),
		Summary:      raw.Summary,
		Image:        raw.Image,
	}

	if raw.Schedule != nil {
		show.Schedule = &domain.Schedule{Time: raw.Schedule.Time, Days: raw.Schedule.Days}
	}
	if raw.Externals.IMDB != nil {
		show.Externals.IMDB = *raw.Externals.IMDB
	}
	if raw.Externals.TheTVDB != nil {
		show.Externals.TheTVDB = *raw.Externals.TheTVDB
	}

	return show
}

func mapNetwork(raw *networkRaw) *domain.Network {
	if raw == nil {
		return nil
	}
	network := &domain.Network{ID: raw.ID, Name: raw.Name}
	if raw.Country != nil {
		network.Country = raw.Country.Code
	}
	return network
}

func mapPerson(raw *personRaw) domain.Person {
	person := domain.Person{ID: raw.ID, Name: raw.Name, Image: raw.Image}
	if raw.Country != nil {
		person.Country = raw.Country.Code
	}
	return person
}
