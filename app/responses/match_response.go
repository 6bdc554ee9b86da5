package responses

import (
	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/review"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MatchListingResponse wraps one resolved listing.
type MatchListingResponse struct {
	Result           models.MatchRecord `json:"result"`
	Strategy         string             `json:"strategy"`
	CacheHit         bool               `json:"cache_hit"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}

// BatchMatchResponse acknowledges a queued batch job.
type BatchMatchResponse struct {
	JobID         string `json:"job_id"`
	TotalListings int    `json:"total_listings"`
	Message       string `json:"message"`
}

// JobResultsResponse returns the finished records of a job.
type JobResultsResponse struct {
	JobID   string               `json:"job_id"`
	Results []models.MatchRecord `json:"results"`
	Total   int                  `json:"total"`
}

// SuggestResponse returns near-miss hierarchy candidates for review.
type SuggestResponse struct {
	Text        string              `json:"text"`
	Suggestions []review.Suggestion `json:"suggestions"`
}

// LocationResponse describes one hierarchy node with its parent chain.
type LocationResponse struct {
	Level       int                `json:"level"`
	LevelName   string             `json:"level_name"`
	ID          int64              `json:"id"`
	DisplayName string             `json:"display_name"`
	SearchName  string             `json:"search_name"`
	Alternates  []string           `json:"alternates,omitempty"`
	ParentChain models.MatchRecord `json:"parent_chain"`
}

// StatsResponse reports service counters.
type StatsResponse struct {
	UptimeSeconds float64        `json:"uptime_seconds"`
	HierarchySize map[string]int `json:"hierarchy_size"`
	Cache         *CacheStats    `json:"cache,omitempty"`
}

// CacheStats mirrors the cache counters for the stats endpoint.
type CacheStats struct {
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
	HitRate    float64 `json:"hit_rate"`
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Locations     int     `json:"locations"`
}
