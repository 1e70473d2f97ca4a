package constants

import "time"

var CacheTTL = struct {
	ShowMetadata   time.Duration
	Episodes       time.Duration
	Cast           time.Duration
	Person         time.Duration
	PersonCredits  time.Duration
	SearchResults  time.Duration
	ShowIndex      time.Duration
	WatchProviders time.Duration
	ShowResolution time.Duration
}{
	ShowMetadata:   7 * 24 * time.Hour,
	Episodes:       7 * 24 * time.Hour,
	Cast:           7 * 24 * time.Hour,
	Person:         7 * 24 * time.Hour,
	PersonCredits:  7 * 24 * time.Hour,
	SearchResults:  24 * time.Hour,
	ShowIndex:      24 * time.Hour,
	WatchProviders: 24 * time.Hour,
	ShowResolution: 7 * 24 * time.Hour,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var APIConfig = struct {
	TVMazeBaseURL string
	TVMazeTimeout time.Duration
	TMDBBaseURL   string
	TMDBTimeout   time.Duration
}{
	TVMazeBaseURL: "https://api.tvmaze.com",
	TVMazeTimeout: 10 * time.Second,
	TMDBBaseURL:   "https://api.themoviedb.org/3",
	TMDBTimeout:   10 * time.Second,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

// TranslationCacheVersion is baked into every translation cache key. Bumping it
// invalidates all cached translations at once.
const TranslationCacheVersion = "v2"

var TranslationLimits = struct {
	MaxTextLength   int
	MaxOutputTokens int
}{
	MaxTextLength:   4000,
	MaxOutputTokens: 1024,
}

// SourceLanguage is the language the metadata upstream serves its text in.
// Translating into it is a no-op.
const SourceLanguage = "en"

var WarmerConfig = struct {
	TopGenres     int
	ShowsPerGenre int
	Countries     []string
	Concurrency   int
}{
	TopGenres:     5,
	ShowsPerGenre: 10,
	Countries:     []string{"US", "GB", "NL", "DE"},
	Concurrency:   4,
}

// WarmerAllowlist is a fixed set of globally popular shows warmed regardless of
// genre ranking. TVMaze show IDs.
var WarmerAllowlist = []int{169, 82, 73, 216, 2993, 66, 179, 335}

var TrackingConfig = struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMContent  string
}{
	UTMSource:   "showdex",
	UTMMedium:   "referral",
	UTMCampaign: "watch-links",
	UTMContent:  "show-detail",
}
