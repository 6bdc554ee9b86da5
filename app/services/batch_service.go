package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/review"
)

// Batch run modes.
const (
	RunModeFull = "full"
	RunModeNew  = "new"
)

// ListingSource pages listings out of the warehouse.
type ListingSource interface {
	ActiveListings(ctx context.Context, limit int) ([]models.Listing, error)
	UnmatchedListings(ctx context.Context, limit int) ([]models.Listing, error)
}

// ResultSink persists match results and the review queue.
type ResultSink interface {
	InsertMatches(ctx context.Context, records []models.MatchRecord) error
	UpsertUnmatched(ctx context.Context, listings []models.UnmatchedListing) (int, error)
}

// RunOptions controls one batch run.
type RunOptions struct {
	Mode     string
	Strategy string
	DryRun   bool
	Limit    int
	Workers  int
	// Progress, when set, is called after each listing finishes.
	Progress func(done, total int)
}

// RunReport summarizes a completed batch run.
type RunReport struct {
	Total        int
	Matched      int
	Unmatched    int
	CacheHits    int
	ByLevel      map[int]int
	Inserted     int
	ReviewQueued int
	Duration     time.Duration
}

// BatchRunner drives a full matching pass: page listings, match them across
// a worker pool, persist results and hand misses to the review queue.
type BatchRunner struct {
	matching *MatchingService
	source   ListingSource
	sink     ResultSink
	indexer  *review.Indexer
	logger   *zap.Logger
}

// NewBatchRunner wires a runner. indexer may be nil when Meilisearch is not
// configured; the review queue then lives in Postgres only.
func NewBatchRunner(matching *MatchingService, source ListingSource, sink ResultSink,
	indexer *review.Indexer, logger *zap.Logger) *BatchRunner {

	return &BatchRunner{
		matching: matching,
		source:   source,
		sink:     sink,
		indexer:  indexer,
		logger:   logger,
	}
}

// Run executes one batch pass and returns its report.
func (br *BatchRunner) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	strategy, err := br.matching.ResolveStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}

	listings, err := br.loadListings(ctx, opts)
	if err != nil {
		return nil, err
	}

	br.logger.Info("starting batch run",
		zap.String("mode", opts.Mode),
		zap.String("strategy", string(strategy)),
		zap.Int("listings", len(listings)),
		zap.Bool("dry_run", opts.DryRun))

	start := time.Now()
	records := make([]models.MatchRecord, len(listings))
	var cacheHits atomic.Int64
	var done atomic.Int64

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := range listings {
		group.Go(func() error {
			record, fromCache, err := br.matching.MatchListing(groupCtx, listings[i], strategy)
			if err != nil {
				return fmt.Errorf("listing %d: %w", listings[i].ExternalID, err)
			}
			records[i] = record
			if fromCache {
				cacheHits.Add(1)
			}
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(listings))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("batch run: %w", err)
	}

	report := &RunReport{
		Total:     len(listings),
		CacheHits: int(cacheHits.Load()),
		ByLevel:   make(map[int]int),
	}

	var matched []models.MatchRecord
	var unmatched []models.UnmatchedListing
	for i, record := range records {
		if record.Matched() {
			matched = append(matched, record)
			report.Matched++
			if record.MatchLevel != nil {
				report.ByLevel[*record.MatchLevel]++
			}
			continue
		}
		report.Unmatched++
		unmatched = append(unmatched, models.UnmatchedListing{
			ExternalID:   listings[i].ExternalID,
			Title:        listings[i].Title,
			LocationData: listings[i].Location,
			URL:          listings[i].URL,
			SearchedText: br.matching.SearchedText(listings[i]),
			Source:       listings[i].Source,
			Status:       models.ReviewStatusPending,
		})
	}

	if opts.DryRun {
		report.Duration = time.Since(start)
		br.logReport("dry run finished, nothing persisted", report)
		br.logSuggestions(unmatched)
		return report, nil
	}

	// Only matched records are persisted. An all-null row would make the
	// listing look resolved to the incremental (--new) query while it still
	// sits in the review queue.
	if len(matched) > 0 {
		if err := br.sink.InsertMatches(ctx, matched); err != nil {
			return nil, fmt.Errorf("batch run: persist matches: %w", err)
		}
		report.Inserted = len(matched)
	}

	if len(unmatched) > 0 {
		queued, err := br.sink.UpsertUnmatched(ctx, unmatched)
		if err != nil {
			return nil, fmt.Errorf("batch run: persist unmatched: %w", err)
		}
		report.ReviewQueued = queued

		if br.indexer != nil {
			if err := br.indexer.IndexUnmatched(unmatched); err != nil {
				// Search indexing is best effort; the Postgres queue is
				// the source of truth for review.
				br.logger.Warn("review index update failed", zap.Error(err))
			}
		}
		br.logSuggestions(unmatched)
	}

	report.Duration = time.Since(start)
	br.logReport("batch run finished", report)
	return report, nil
}

func (br *BatchRunner) loadListings(ctx context.Context, opts RunOptions) ([]models.Listing, error) {
	switch opts.Mode {
	case RunModeFull:
		return br.source.ActiveListings(ctx, opts.Limit)
	case RunModeNew:
		return br.source.UnmatchedListings(ctx, opts.Limit)
	default:
		return nil, fmt.Errorf("unknown run mode %q", opts.Mode)
	}
}

func (br *BatchRunner) logReport(msg string, report *RunReport) {
	fields := []zap.Field{
		zap.Int("total", report.Total),
		zap.Int("matched", report.Matched),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("cache_hits", report.CacheHits),
		zap.Duration("duration", report.Duration),
	}
	for _, level := range []int{5, 4, 3, 2} {
		if count := report.ByLevel[level]; count > 0 {
			fields = append(fields, zap.Int(fmt.Sprintf("level_%d", level), count))
		}
	}
	br.logger.Info(msg, fields...)
}

// logSuggestions surfaces near-miss candidates for a handful of unmatched
// listings so an operator scanning the log can spot fixable gazetteer gaps.
func (br *BatchRunner) logSuggestions(unmatched []models.UnmatchedListing) {
	const maxSuggested = 25

	for i, listing := range unmatched {
		if i >= maxSuggested {
			break
		}
		suggestions := br.matching.Suggest(listing.SearchedText, 3)
		if len(suggestions) == 0 {
			continue
		}
		names := make([]string, 0, len(suggestions))
		for _, sg := range suggestions {
			names = append(names, fmt.Sprintf("%s (%.2f)", sg.DisplayName, sg.Similarity))
		}
		br.logger.Debug("near-miss suggestions",
			zap.Int64("external_id", listing.ExternalID),
			zap.Strings("candidates", names))
	}
}
