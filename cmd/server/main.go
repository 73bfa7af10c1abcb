package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/nutricompare/internal/compare"
	"github.com/Skufu/nutricompare/internal/config"
	"github.com/Skufu/nutricompare/internal/render"
	"github.com/Skufu/nutricompare/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		logrus.Fatalf("logger error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	persister, err := openPersister(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("backend", cfg.StorageBackend).Fatal("persistence setup failed")
	}

	client := compare.NewClient(compare.Config{
		BaseURL:         cfg.RecommendationURL,
		Timeout:         cfg.RecommendationTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}, logger)

	st := store.Open(ctx, persister, client, logger)
	defer func() {
		if err := st.Close(); err != nil {
			logger.WithError(err).Warn("closing store")
		}
	}()

	cache, err := render.NewCache(cfg.RenderCacheSize)
	if err != nil {
		logger.WithError(err).Fatal("render cache setup failed")
	}

	router := setupRouter(st, cache, newCompareLimiter(cfg.CompareRatePerMinute), logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// POST /api/compare waits on the recommendation service
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":           cfg.Port,
		"backend":        cfg.StorageBackend,
		"recommendation": cfg.RecommendationURL,
	}).Info("server listening")
	waitForShutdown(server, logger)
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	return logger, nil
}

func openPersister(ctx context.Context, cfg *config.Config) (store.Persister, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return store.NewMemoryPersister(), nil
	case config.BackendSQLite:
		return store.NewSQLitePersister(cfg.SQLitePath)
	case config.BackendPostgres:
		return store.NewPostgresPersister(ctx, cfg.DatabaseURL)
	case config.BackendRedis:
		return store.NewRedisPersister(ctx, cfg.RedisURL)
	default:
		return store.NewFilePersister(cfg.StateDir)
	}
}

func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
	}
}
