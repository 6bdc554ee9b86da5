package services

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

// MemoryCacheService is the in-process L1 cache: a bounded LRU of match
// records. It is the only layer a standalone batch run needs.
type MemoryCacheService struct {
	cache  *lru.Cache[string, models.MatchRecord]
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCacheService builds an LRU cache holding up to size records.
func NewMemoryCacheService(size int, logger *zap.Logger) (*MemoryCacheService, error) {
	cache, err := lru.New[string, models.MatchRecord](size)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &MemoryCacheService{cache: cache, logger: logger}, nil
}

// Get returns a copy of the cached record, so callers can stamp their own
// external id without touching the cached value.
func (mcs *MemoryCacheService) Get(_ context.Context, fingerprint string) (*models.MatchRecord, bool, error) {
	record, ok := mcs.cache.Get(fingerprint)
	if !ok {
		mcs.misses.Add(1)
		return nil, false, nil
	}
	mcs.hits.Add(1)
	return &record, true, nil
}

// Set stores a record by value.
func (mcs *MemoryCacheService) Set(_ context.Context, fingerprint string, record *models.MatchRecord) error {
	stored := *record
	stored.ExternalID = 0
	mcs.cache.Add(fingerprint, stored)
	return nil
}

// Clear drops everything.
func (mcs *MemoryCacheService) Clear(context.Context) error {
	mcs.cache.Purge()
	return nil
}

// Stats reports hit/miss counters since startup.
func (mcs *MemoryCacheService) Stats(context.Context) (*CacheStats, error) {
	hits := mcs.hits.Load()
	misses := mcs.misses.Load()
	stats := &CacheStats{
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(mcs.cache.Len()),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats, nil
}

// Close is a no-op for the in-process cache.
func (mcs *MemoryCacheService) Close() error { return nil }
