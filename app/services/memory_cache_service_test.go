package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache, err := NewMemoryCacheService(16, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	level := models.LevelMunicipality
	record := models.MatchRecord{ExternalID: 42, MatchLevel: &level}
	if err := cache.Set(ctx, "fp-1", &record); err != nil {
		t.Fatal(err)
	}

	got, found, err := cache.Get(ctx, "fp-1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a hit")
	}
	if got.ExternalID != 0 {
		t.Errorf("cached record should not keep the listing's external id, got %d", got.ExternalID)
	}
	if got.MatchLevel == nil || *got.MatchLevel != models.LevelMunicipality {
		t.Errorf("match level = %v, want municipality", got.MatchLevel)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	cache, err := NewMemoryCacheService(16, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	_, found, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected a miss")
	}
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	cache, err := NewMemoryCacheService(16, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	record := models.MatchRecord{}
	cache.Set(ctx, "fp-1", &record)

	first, _, _ := cache.Get(ctx, "fp-1")
	first.ExternalID = 99

	second, _, _ := cache.Get(ctx, "fp-1")
	if second.ExternalID != 0 {
		t.Error("mutating a returned record must not affect the cached value")
	}
}

func TestMemoryCacheStats(t *testing.T) {
	cache, err := NewMemoryCacheService(16, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	cache.Set(ctx, "fp-1", &models.MatchRecord{})
	cache.Get(ctx, "fp-1")
	cache.Get(ctx, "absent")

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalHits != 1 || stats.TotalMiss != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", stats.TotalHits, stats.TotalMiss)
	}
	if stats.TotalItems != 1 {
		t.Errorf("items = %d, want 1", stats.TotalItems)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", stats.HitRate)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	cache, err := NewMemoryCacheService(16, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	cache.Set(ctx, "fp-1", &models.MatchRecord{})
	if err := cache.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := cache.Get(ctx, "fp-1"); found {
		t.Error("cleared cache should miss")
	}
}
