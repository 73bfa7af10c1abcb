package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	RecommendationURL     string
	RecommendationTimeout time.Duration
	BreakerFailures       uint32
	BreakerCooldown       time.Duration

	StorageBackend string
	StateDir       string
	SQLitePath     string
	DatabaseURL    string
	RedisURL       string

	CompareRatePerMinute int
	RenderCacheSize      int
}

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Load reads an optional .env file, then the environment, then defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:                  v.GetString("PORT"),
		GinMode:               v.GetString("GIN_MODE"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             strings.ToLower(v.GetString("LOG_FORMAT")),
		RecommendationURL:     v.GetString("RECOMMENDATION_URL"),
		RecommendationTimeout: v.GetDuration("RECOMMENDATION_TIMEOUT"),
		BreakerFailures:       v.GetUint32("BREAKER_FAILURES"),
		BreakerCooldown:       v.GetDuration("BREAKER_COOLDOWN"),
		StorageBackend:        strings.ToLower(v.GetString("STORAGE_BACKEND")),
		StateDir:              v.GetString("STATE_DIR"),
		SQLitePath:            v.GetString("SQLITE_PATH"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		RedisURL:              v.GetString("REDIS_URL"),
		CompareRatePerMinute:  v.GetInt("COMPARE_RATE_PER_MINUTE"),
		RenderCacheSize:       v.GetInt("RENDER_CACHE_SIZE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("RECOMMENDATION_URL", "http://localhost:8000")
	v.SetDefault("RECOMMENDATION_TIMEOUT", "0s")
	v.SetDefault("BREAKER_FAILURES", 3)
	v.SetDefault("BREAKER_COOLDOWN", "30s")
	v.SetDefault("STORAGE_BACKEND", BackendFile)
	v.SetDefault("STATE_DIR", "./data")
	v.SetDefault("SQLITE_PATH", "./data/nutricompare.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("COMPARE_RATE_PER_MINUTE", 30)
	v.SetDefault("RENDER_CACHE_SIZE", 64)
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.RecommendationURL == "" {
		return fmt.Errorf("RECOMMENDATION_URL must not be empty")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.CompareRatePerMinute < 0 {
		return fmt.Errorf("COMPARE_RATE_PER_MINUTE must not be negative")
	}
	return nil
}
