package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

const mongoCacheCollection = "match_cache"

// mongoCacheEntry is the persisted cache document.
type mongoCacheEntry struct {
	Fingerprint string             `bson:"_id"`
	Record      models.MatchRecord `bson:"record"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// MongoCacheService is the persistent cache layer. Unlike Redis it survives
// restarts, so backfill runs warm from everything previous runs resolved.
type MongoCacheService struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoCacheService wires the cache collection and its TTL index.
func NewMongoCacheService(db *mongo.Database, ttl time.Duration, logger *zap.Logger) (*MongoCacheService, error) {
	collection := db.Collection(mongoCacheCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("mongo cache: ttl index: %w", err)
	}

	return &MongoCacheService{collection: collection, logger: logger}, nil
}

// Get fetches a cached record.
func (mcs *MongoCacheService) Get(ctx context.Context, fingerprint string) (*models.MatchRecord, bool, error) {
	var entry mongoCacheEntry
	err := mcs.collection.FindOne(ctx, bson.M{"_id": fingerprint}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo cache: get: %w", err)
	}
	return &entry.Record, true, nil
}

// Set upserts a cache document.
func (mcs *MongoCacheService) Set(ctx context.Context, fingerprint string, record *models.MatchRecord) error {
	stored := *record
	stored.ExternalID = 0

	entry := mongoCacheEntry{
		Fingerprint: fingerprint,
		Record:      stored,
		CreatedAt:   time.Now(),
	}
	_, err := mcs.collection.ReplaceOne(ctx, bson.M{"_id": fingerprint}, entry,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo cache: set: %w", err)
	}
	return nil
}

// Clear drops all cache documents.
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mongo cache: clear: %w", err)
	}
	mcs.logger.Info("cleared mongo match cache")
	return nil
}

// Stats reports the document count.
func (mcs *MongoCacheService) Stats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("mongo cache: stats: %w", err)
	}
	return &CacheStats{TotalItems: count}, nil
}

// Close is a no-op; the mongo client is owned by the caller.
func (mcs *MongoCacheService) Close() error { return nil }
