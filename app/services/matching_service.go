package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/helpers/utils"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
	"github.com/chivocasa/listing-locator/internal/matcher"
	"github.com/chivocasa/listing-locator/internal/normalizer"
	"github.com/chivocasa/listing-locator/internal/review"
)

// ErrMissingExternalID rejects listings without an id before they reach the
// engine. This is the one programmer error the service refuses to swallow.
var ErrMissingExternalID = errors.New("listing has no external id")

// JobStatus tracks one async batch submitted through the API.
type JobStatus struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchingService fronts the matching engine: strategy selection, the
// fingerprint cache, review suggestions and async batch jobs. The index it
// wraps is read-only, so every method is safe for concurrent use.
type MatchingService struct {
	orchestrators   map[matcher.Strategy]*matcher.Orchestrator
	defaultStrategy matcher.Strategy
	cache           MatchCache
	suggester       *review.Suggester
	logger          *zap.Logger
	startTime       time.Time

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]models.MatchRecord
}

// NewMatchingService builds orchestrators for both strategies over one
// shared index. cache may be nil to disable caching.
func NewMatchingService(index *hierarchy.Index, engine *matcher.Engine,
	defaultStrategy matcher.Strategy, cache MatchCache, logger *zap.Logger) *MatchingService {

	return &MatchingService{
		orchestrators: map[matcher.Strategy]*matcher.Orchestrator{
			matcher.StrategyDepartmentFirst:   matcher.NewOrchestrator(index, engine, matcher.StrategyDepartmentFirst, logger),
			matcher.StrategyMunicipalityFirst: matcher.NewOrchestrator(index, engine, matcher.StrategyMunicipalityFirst, logger),
		},
		defaultStrategy: defaultStrategy,
		cache:           cache,
		suggester:       review.NewSuggester(index),
		logger:          logger,
		startTime:       time.Now(),
		jobs:            make(map[string]*JobStatus),
		jobResults:      make(map[string][]models.MatchRecord),
	}
}

// ResolveStrategy maps an optional request strategy to a known one, falling
// back to the configured default.
func (ms *MatchingService) ResolveStrategy(name string) (matcher.Strategy, error) {
	if name == "" {
		return ms.defaultStrategy, nil
	}
	return matcher.ParseStrategy(name)
}

// MatchListing resolves one listing, consulting the cache first. The second
// return reports whether the record came from cache.
func (ms *MatchingService) MatchListing(ctx context.Context, listing models.Listing,
	strategy matcher.Strategy) (models.MatchRecord, bool, error) {
	return ms.matchListing(ctx, listing, strategy, true)
}

// MatchListingNoCache resolves one listing without reading or writing the
// cache, for callers that need a fresh run against the current hierarchy.
func (ms *MatchingService) MatchListingNoCache(ctx context.Context, listing models.Listing,
	strategy matcher.Strategy) (models.MatchRecord, error) {
	record, _, err := ms.matchListing(ctx, listing, strategy, false)
	return record, err
}

func (ms *MatchingService) matchListing(ctx context.Context, listing models.Listing,
	strategy matcher.Strategy, useCache bool) (models.MatchRecord, bool, error) {

	if listing.ExternalID == 0 {
		return models.MatchRecord{}, false, ErrMissingExternalID
	}

	texts := normalizer.BuildSourceTexts(listing)
	cacheKey := string(strategy) + ":" + texts.Fingerprint()

	if useCache && ms.cache != nil {
		if cached, found, err := ms.cache.Get(ctx, cacheKey); err != nil {
			ms.logger.Warn("match cache read failed", zap.Error(err))
		} else if found {
			record := *cached
			record.ExternalID = listing.ExternalID
			return record, true, nil
		}
	}

	record := ms.orchestrators[strategy].Match(listing.ExternalID, texts)

	if useCache && ms.cache != nil {
		if err := ms.cache.Set(ctx, cacheKey, &record); err != nil {
			ms.logger.Warn("match cache write failed", zap.Error(err))
		}
	}

	return record, false, nil
}

// SearchedText renders the normalized title and location line for the review
// queue, mirroring what the matcher actually searched.
func (ms *MatchingService) SearchedText(listing models.Listing) string {
	texts := normalizer.BuildSourceTexts(listing)
	return fmt.Sprintf("title:%s | location:%s", texts.Title, texts.Location)
}

// Suggest returns near-miss hierarchy nodes for free text, for the review UI.
func (ms *MatchingService) Suggest(text string, limit int) []review.Suggestion {
	return ms.suggester.Suggest(text, limit)
}

// SubmitBatch queues listings for background matching and returns a job id.
func (ms *MatchingService) SubmitBatch(listings []models.Listing, strategy matcher.Strategy) string {
	jobID := utils.GenerateUUID()

	ms.mu.Lock()
	ms.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    "running",
		Total:     len(listings),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	ms.mu.Unlock()

	go ms.processBatchJob(jobID, listings, strategy)
	return jobID
}

func (ms *MatchingService) processBatchJob(jobID string, listings []models.Listing, strategy matcher.Strategy) {
	results := make([]models.MatchRecord, 0, len(listings))

	for i, listing := range listings {
		record, _, err := ms.MatchListing(context.Background(), listing, strategy)
		if err != nil {
			// Listings without an id are skipped, matching the scraper's
			// upstream behavior.
			ms.logger.Warn("skipping listing in batch job",
				zap.String("job_id", jobID), zap.Error(err))
		} else {
			results = append(results, record)
		}

		ms.mu.Lock()
		if job, ok := ms.jobs[jobID]; ok {
			job.Processed = i + 1
			job.Progress = float64(i+1) / float64(len(listings))
			job.UpdatedAt = time.Now()
		}
		ms.mu.Unlock()
	}

	ms.mu.Lock()
	ms.jobResults[jobID] = results
	if job, ok := ms.jobs[jobID]; ok {
		job.Status = "done"
		job.UpdatedAt = time.Now()
	}
	ms.mu.Unlock()

	ms.logger.Info("batch job completed",
		zap.String("job_id", jobID), zap.Int("listings", len(listings)))
}

// JobStatus returns the status of a submitted job.
func (ms *MatchingService) JobStatus(jobID string) (*JobStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	job, ok := ms.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	copied := *job
	return &copied, nil
}

// JobResults returns the finished records of a job.
func (ms *MatchingService) JobResults(jobID string) ([]models.MatchRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	results, ok := ms.jobResults[jobID]
	if !ok {
		return nil, fmt.Errorf("results for job %s not available", jobID)
	}
	return results, nil
}

// CacheStats exposes the cache counters, or nil when caching is disabled.
func (ms *MatchingService) CacheStats(ctx context.Context) (*CacheStats, error) {
	if ms.cache == nil {
		return nil, nil
	}
	return ms.cache.Stats(ctx)
}

// Uptime reports how long the service has been running.
func (ms *MatchingService) Uptime() time.Duration {
	return time.Since(ms.startTime)
}
