package main

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/config"
	"github.com/chivocasa/listing-locator/app/services"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
	"github.com/chivocasa/listing-locator/internal/matcher"
	"github.com/chivocasa/listing-locator/internal/review"
	"github.com/chivocasa/listing-locator/internal/store"
)

var (
	flagFull     bool
	flagNew      bool
	flagDryRun   bool
	flagLimit    int
	flagStrategy string
	flagWorkers  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "locmatch",
		Short: "Resolve scraped listings against the location hierarchy",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch matching pass over the listings warehouse",
		RunE:  runBatch,
	}
	runCmd.Flags().BoolVar(&flagFull, "full", false, "rematch every active listing")
	runCmd.Flags().BoolVar(&flagNew, "new", false, "match only listings without a result yet")
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "match but persist nothing")
	runCmd.Flags().IntVar(&flagLimit, "limit", 0, "cap the number of listings (0 = all)")
	runCmd.Flags().StringVar(&flagStrategy, "strategy", "", "matching strategy (department-first or municipality-first)")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (0 = configured default)")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if flagFull == flagNew {
		return fmt.Errorf("pass exactly one of --full or --new")
	}
	mode := services.RunModeNew
	if flagFull {
		mode = services.RunModeFull
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := initLogger(cfg.Env)
	defer logger.Sync()

	ctx := cmd.Context()

	pg, err := store.New(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	rows, err := pg.LoadHierarchy(ctx)
	if err != nil {
		return fmt.Errorf("load hierarchy: %w", err)
	}
	index := hierarchy.Build(rows, logger)

	matcherCfg, err := matcher.LoadConfig(cfg.Matcher.ConfigPath)
	if err != nil {
		return fmt.Errorf("load matcher configuration: %w", err)
	}
	engine := matcher.New(matcherCfg)

	strategy := cfg.Matcher.Strategy
	if flagStrategy != "" {
		strategy = flagStrategy
	}
	defaultStrategy, err := matcher.ParseStrategy(strategy)
	if err != nil {
		return err
	}

	// One in-process LRU is all a batch run needs; duplicate listing texts
	// within a run are common across scraper sources.
	cache, err := services.NewMemoryCacheService(cfg.Cache.L1Size, logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	matching := services.NewMatchingService(index, engine, defaultStrategy, cache, logger)

	indexer := initIndexer(cfg, logger)
	runner := services.NewBatchRunner(matching, pg, pg, indexer, logger)

	workers := cfg.Matcher.Workers
	if flagWorkers > 0 {
		workers = flagWorkers
	}

	// The progress callback runs from concurrent workers.
	var barMu sync.Mutex
	var bar *progressbar.ProgressBar
	report, err := runner.Run(ctx, services.RunOptions{
		Mode:     mode,
		Strategy: strategy,
		DryRun:   flagDryRun,
		Limit:    flagLimit,
		Workers:  workers,
		Progress: func(done, total int) {
			barMu.Lock()
			defer barMu.Unlock()
			if bar == nil {
				bar = progressbar.Default(int64(total), "matching")
			}
			bar.Set(done)
		},
	})
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	fmt.Printf("\nmatched %d of %d listings (%d from cache, %d queued for review) in %s\n",
		report.Matched, report.Total, report.CacheHits, report.ReviewQueued,
		report.Duration.Round(time.Millisecond))
	for _, level := range []int{5, 4, 3, 2} {
		if count := report.ByLevel[level]; count > 0 {
			fmt.Printf("  level %d: %d\n", level, count)
		}
	}
	if flagDryRun {
		fmt.Println("dry run: nothing was persisted")
	}
	return nil
}

// initIndexer connects the review search index, or returns nil when
// Meilisearch is not reachable. The Postgres review queue still fills either
// way.
func initIndexer(cfg *config.AppConfig, logger *zap.Logger) *review.Indexer {
	indexer, err := review.NewIndexer(review.IndexerConfig{
		Host:      cfg.Meili.Host,
		APIKey:    cfg.Meili.APIKey,
		IndexName: cfg.Meili.ReviewIndex,
	}, logger)
	if err != nil {
		logger.Warn("meilisearch unavailable, review index disabled", zap.Error(err))
		return nil
	}
	if err := indexer.EnsureSettings(); err != nil {
		logger.Warn("review index settings update failed", zap.Error(err))
	}
	return indexer
}

func initLogger(env string) *zap.Logger {
	var zapCfg zap.Config
	if env == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatal("cannot initialize logger: ", err)
	}
	return logger
}
