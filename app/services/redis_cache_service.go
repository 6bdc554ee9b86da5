package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

const redisKeyPrefix = "locmatch:"

// RedisCacheService is the shared remote cache layer: scraper workers on
// different hosts see each other's match results between runs.
type RedisCacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheService connects a Redis client from a URL and verifies it.
func NewRedisCacheService(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: ping: %w", err)
	}

	return &RedisCacheService{client: client, ttl: ttl, logger: logger}, nil
}

// Get fetches and decodes a cached record.
func (rcs *RedisCacheService) Get(ctx context.Context, fingerprint string) (*models.MatchRecord, bool, error) {
	data, err := rcs.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache: get: %w", err)
	}

	var record models.MatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		rcs.logger.Warn("dropping corrupt cache entry", zap.String("fingerprint", fingerprint))
		rcs.client.Del(ctx, redisKeyPrefix+fingerprint)
		return nil, false, nil
	}
	return &record, true, nil
}

// Set stores a record with the configured TTL.
func (rcs *RedisCacheService) Set(ctx context.Context, fingerprint string, record *models.MatchRecord) error {
	stored := *record
	stored.ExternalID = 0

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("redis cache: marshal: %w", err)
	}
	if err := rcs.client.Set(ctx, redisKeyPrefix+fingerprint, data, rcs.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set: %w", err)
	}
	return nil
}

// Clear removes every key under the match prefix.
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	iter := rcs.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := rcs.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis cache: clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis cache: scan: %w", err)
	}
	return nil
}

// Stats reports the key count; hit accounting lives in the layer above.
func (rcs *RedisCacheService) Stats(ctx context.Context) (*CacheStats, error) {
	var items int64
	iter := rcs.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		items++
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis cache: stats: %w", err)
	}
	return &CacheStats{TotalItems: items}, nil
}

// Close closes the client.
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}
