// Package config loads the application configuration from config/app.yaml
// with environment overrides. Credentials only ever come from here; nothing
// is hardcoded in the binaries.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MeiliConfig configures the review-queue search index.
type MeiliConfig struct {
	Host        string
	APIKey      string
	ReviewIndex string
}

// MatcherConfig configures the batch matcher.
type MatcherConfig struct {
	Strategy   string
	Workers    int
	ConfigPath string
}

// CacheConfig configures the match-result cache layers.
type CacheConfig struct {
	L1Size int
	TTL    time.Duration
}

// AppConfig is the full application configuration.
type AppConfig struct {
	Env         string
	Port        string
	PostgresDSN string
	MongoURL    string
	RedisURL    string
	Meili       MeiliConfig
	Matcher     MatcherConfig
	Cache       CacheConfig
}

// Load reads config/app.yaml (if present), applies defaults and env
// overrides, and returns the typed configuration.
func Load() (*AppConfig, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("postgres.dsn", "postgres://localhost:5432/chivocasa")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017/listing_locator")
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("meilisearch.url", "http://localhost:7700")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("meilisearch.review_index", "unmatched_listings")
	viper.SetDefault("matcher.strategy", "municipality-first")
	viper.SetDefault("matcher.workers", 4)
	viper.SetDefault("matcher.config_path", "")
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("cache.ttl", "168h")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOCATOR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read app.yaml: %w", err)
		}
	}

	cfg := &AppConfig{
		Env:         viper.GetString("app.env"),
		Port:        viper.GetString("app.port"),
		PostgresDSN: viper.GetString("postgres.dsn"),
		MongoURL:    viper.GetString("mongo.url"),
		RedisURL:    viper.GetString("redis.url"),
		Meili: MeiliConfig{
			Host:        viper.GetString("meilisearch.url"),
			APIKey:      viper.GetString("meilisearch.master_key"),
			ReviewIndex: viper.GetString("meilisearch.review_index"),
		},
		Matcher: MatcherConfig{
			Strategy:   viper.GetString("matcher.strategy"),
			Workers:    viper.GetInt("matcher.workers"),
			ConfigPath: viper.GetString("matcher.config_path"),
		},
		Cache: CacheConfig{
			L1Size: viper.GetInt("cache.l1_size"),
			TTL:    viper.GetDuration("cache.ttl"),
		},
	}

	if cfg.Matcher.Workers < 1 {
		cfg.Matcher.Workers = 1
	}

	return cfg, nil
}
