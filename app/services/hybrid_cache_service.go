package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

// HybridCacheService layers a fast cache (memory or Redis) over the
// persistent Mongo cache. Reads promote L2 hits into L1 in the background;
// writes go to both.
type HybridCacheService struct {
	l1     MatchCache
	l2     MatchCache
	logger *zap.Logger
}

// NewHybridCacheService composes two cache layers.
func NewHybridCacheService(l1, l2 MatchCache, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{l1: l1, l2: l2, logger: logger}
}

// Get tries L1 first, falls back to L2 and promotes the hit.
func (hcs *HybridCacheService) Get(ctx context.Context, fingerprint string) (*models.MatchRecord, bool, error) {
	record, found, err := hcs.l1.Get(ctx, fingerprint)
	if err != nil {
		hcs.logger.Warn("l1 cache error, falling back", zap.Error(err))
	} else if found {
		return record, true, nil
	}

	record, found, err = hcs.l2.Get(ctx, fingerprint)
	if err != nil || !found {
		return nil, false, err
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hcs.l1.Set(bgCtx, fingerprint, record); err != nil {
			hcs.logger.Warn("l2→l1 promote failed", zap.Error(err))
		}
	}()

	return record, true, nil
}

// Set writes both layers; an L1 failure is tolerated, an L2 failure is not.
func (hcs *HybridCacheService) Set(ctx context.Context, fingerprint string, record *models.MatchRecord) error {
	if err := hcs.l1.Set(ctx, fingerprint, record); err != nil {
		hcs.logger.Warn("l1 cache set failed", zap.Error(err))
	}
	if err := hcs.l2.Set(ctx, fingerprint, record); err != nil {
		return fmt.Errorf("hybrid cache: l2 set: %w", err)
	}
	return nil
}

// Clear clears both layers.
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.l1.Clear(ctx); err != nil {
		return err
	}
	return hcs.l2.Clear(ctx)
}

// Stats combines the layers' counters.
func (hcs *HybridCacheService) Stats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.Stats(ctx)
	l2Stats, l2Err := hcs.l2.Stats(ctx)

	if l1Err != nil && l2Err != nil {
		return nil, fmt.Errorf("hybrid cache: both layers failed: %v, %v", l1Err, l2Err)
	}

	combined := &CacheStats{}
	if l1Err == nil {
		combined.TotalHits += l1Stats.TotalHits
		combined.TotalMiss += l1Stats.TotalMiss
		combined.TotalItems += l1Stats.TotalItems
	}
	if l2Err == nil {
		combined.TotalHits += l2Stats.TotalHits
		combined.TotalMiss += l2Stats.TotalMiss
		combined.TotalItems += l2Stats.TotalItems
	}
	if total := combined.TotalHits + combined.TotalMiss; total > 0 {
		combined.HitRate = float64(combined.TotalHits) / float64(total)
	}
	return combined, nil
}

// Close closes both layers.
func (hcs *HybridCacheService) Close() error {
	if err := hcs.l1.Close(); err != nil {
		return err
	}
	return hcs.l2.Close()
}
