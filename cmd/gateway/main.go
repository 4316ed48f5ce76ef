package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/genai-playground/gateway/internal/gateway/deploy"
	"github.com/genai-playground/gateway/internal/gateway/handlers"
	"github.com/genai-playground/gateway/internal/gateway/providers"
	"github.com/genai-playground/gateway/internal/shared/auth"
	"github.com/genai-playground/gateway/internal/shared/config"
	"github.com/genai-playground/gateway/internal/shared/database"
	"github.com/genai-playground/gateway/internal/shared/logging"
	"github.com/genai-playground/gateway/internal/shared/metrics"
	"github.com/genai-playground/gateway/internal/shared/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting gateway",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize persistence. Without a Mongo URL the gateway serves from
	// an in-memory store: the API stays up, records don't survive restarts.
	var store database.Store
	if cfg.MongoURL != "" {
		mongoStore, err := database.NewMongoStore(ctx, cfg.MongoURL, cfg.MongoDBName)
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		store = mongoStore
		logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))
	} else {
		store = database.NewMemoryStore()
		logger.Warn("MONGO_DB_URL not set, persistence disabled (in-memory store)")
	}
	defer func() { _ = store.Close(context.Background()) }()

	// Initialize Redis-backed rate limiting if configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("connected to Redis, rate limiting enabled")
	}

	collector := metrics.NewDefault()

	// Core services
	authSvc := auth.NewService(store, cfg.JWTSecret,
		time.Duration(cfg.JWTExpiryHours)*time.Hour, cfg.InvitationCode)

	registry := providers.NewRegistry(cfg)
	gateway := providers.NewGateway(registry, cfg.VerdaAPIKey,
		time.Duration(cfg.UpstreamTimeoutSeconds)*time.Second,
		store, collector, logger)
	if cfg.VerdaAPIKey == "" {
		logger.Warn("VERDA_API_KEY not set, image generation will fail closed")
	}

	deploySvc := deploy.NewService(cfg.ContainerAPIURL, cfg.VerdaClientID,
		cfg.VerdaClientSecret, cfg.VerdaAPIKey, store, logger)

	// HTTP layer
	mw := handlers.NewMiddleware(authSvc, redisClient, cfg.RateLimitPerMinute,
		cfg.AllowedOrigins, collector, logger)
	router := handlers.NewRouter(mw,
		handlers.NewAuthHandler(authSvc, logger),
		handlers.NewImagesHandler(gateway, store, logger),
		handlers.NewTextHandler(deploySvc, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: time.Duration(cfg.UpstreamTimeoutSeconds+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}
