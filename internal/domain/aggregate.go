package domain

// AggregatedShow is the per-request enriched view of a show: sanitized
// metadata plus best-effort country-scoped availability and best-effort
// locale-scoped translated text. Never persisted as a unit; its sub-parts are
// cached independently under their own dimensions.
type AggregatedShow struct {
	ShowRecord
	StreamingAvailability []StreamingProvider `json:"streamingAvailability"`
	Country               string              `json:"country"`
	Locale                string              `json:"locale"`
	Translated            bool                `json:"translated"`
}

// TranslationStats are process-lifetime counters, reset on restart.
type TranslationStats struct {
	TotalTranslations int64   `json:"totalTranslations"`
	CacheHits         int64   `json:"cacheHits"`
	CacheMisses       int64   `json:"cacheMisses"`
	Errors            int64   `json:"errors"`
	CostEstimate      float64 `json:"costEstimate"`
}
