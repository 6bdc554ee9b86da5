package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/config"
	"github.com/chivocasa/listing-locator/app/controllers"
	"github.com/chivocasa/listing-locator/app/services"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
	"github.com/chivocasa/listing-locator/internal/matcher"
	"github.com/chivocasa/listing-locator/internal/store"
	"github.com/chivocasa/listing-locator/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("cannot load configuration: ", err)
	}

	logger := initLogger(cfg.Env)
	defer logger.Sync()

	logger.Info("starting listing locator API", zap.String("env", cfg.Env))

	ctx := context.Background()

	// Postgres holds the hierarchy; the API only reads it at startup.
	pg, err := store.New(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Fatal("cannot connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	rows, err := pg.LoadHierarchy(ctx)
	if err != nil {
		logger.Fatal("cannot load location hierarchy", zap.Error(err))
	}
	index := hierarchy.Build(rows, logger)
	logger.Info("location hierarchy loaded", zap.Int("nodes", index.Size()))

	matcherCfg, err := matcher.LoadConfig(cfg.Matcher.ConfigPath)
	if err != nil {
		logger.Fatal("cannot load matcher configuration", zap.Error(err))
	}
	engine := matcher.New(matcherCfg)

	strategy, err := matcher.ParseStrategy(cfg.Matcher.Strategy)
	if err != nil {
		logger.Fatal("invalid matcher strategy", zap.Error(err))
	}

	cache := initCache(cfg, logger)
	if cache != nil {
		defer cache.Close()
	}

	matching := services.NewMatchingService(index, engine, strategy, cache, logger)

	matchController := controllers.NewMatchController(matching, index, logger)
	reviewController := controllers.NewReviewController(matching, index, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, matchController, reviewController)

	logger.Info("listing locator API listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// initLogger builds a structured logger for the environment.
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

// initCache assembles the best cache stack the environment offers: Redis over
// Mongo when both are up, degrading to whichever single layer is reachable,
// and finally to the in-process LRU. The API never refuses to start over a
// missing cache backend.
func initCache(cfg *config.AppConfig, logger *zap.Logger) services.MatchCache {
	var l1 services.MatchCache

	redisCache, err := services.NewRedisCacheService(cfg.RedisURL, cfg.Cache.TTL, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
		memCache, memErr := services.NewMemoryCacheService(cfg.Cache.L1Size, logger)
		if memErr != nil {
			logger.Warn("cache disabled", zap.Error(memErr))
			return nil
		}
		l1 = memCache
	} else {
		l1 = redisCache
	}

	mongoDB, err := initMongoDB(cfg.MongoURL, logger)
	if err != nil {
		logger.Warn("mongo unavailable, running without persistent cache", zap.Error(err))
		return l1
	}

	mongoCache, err := services.NewMongoCacheService(mongoDB, cfg.Cache.TTL, logger)
	if err != nil {
		logger.Warn("mongo cache init failed, running without persistent cache", zap.Error(err))
		return l1
	}

	return services.NewHybridCacheService(l1, mongoCache, logger)
}

// initMongoDB connects and pings the Mongo database named in the URL.
func initMongoDB(mongoURL string, logger *zap.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	dbName := databaseFromURL(mongoURL)
	logger.Info("connected to mongodb", zap.String("database", dbName))
	return client.Database(dbName), nil
}

// databaseFromURL pulls the database name out of a mongodb:// URL, falling
// back to the service default when the URL has none.
func databaseFromURL(mongoURL string) string {
	trimmed := mongoURL
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		name := trimmed[idx+1:]
		if q := strings.Index(name, "?"); q >= 0 {
			name = name[:q]
		}
		if name != "" {
			return name
		}
	}
	return "listing_locator"
}
