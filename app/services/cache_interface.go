package services

import (
	"context"

	"github.com/chivocasa/listing-locator/app/models"
)

// CacheStats summarizes cache effectiveness for the stats endpoint.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// MatchCache caches finished match records keyed by the fingerprint of a
// listing's normalized texts. Cached records carry no external id; the caller
// stamps its own. Implementations must be safe for concurrent use.
type MatchCache interface {
	// Get returns the cached record for a fingerprint, if any.
	Get(ctx context.Context, fingerprint string) (*models.MatchRecord, bool, error)

	// Set stores a record under a fingerprint.
	Set(ctx context.Context, fingerprint string, record *models.MatchRecord) error

	// Clear drops all cached records, e.g. after a hierarchy reload.
	Clear(ctx context.Context) error

	// Stats reports hit/miss counters.
	Stats(ctx context.Context) (*CacheStats, error)

	// Close releases any backing connection.
	Close() error
}
