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
	"go.uber.org/zap"

	"github.com/egmaziero/ktrain/internal/adapter/client"
	"github.com/egmaziero/ktrain/internal/adapter/http/router"
	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/infrastructure/cache"
	"github.com/egmaziero/ktrain/internal/infrastructure/config"
	"github.com/egmaziero/ktrain/internal/infrastructure/database"
	"github.com/egmaziero/ktrain/internal/infrastructure/logger"
	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadArgs(os.Args[1:])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := database.NewDB(&cfg.Database, log.Named("gorm"))
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed")

	// Initialize Redis (optional, continue without it)
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("Failed to connect to Redis, continuing without cache", zap.Error(err))
		redisClient = nil
	} else {
		log.Info("Connected to Redis")
	}

	// Initialize zero-shot classifier (optional, requests fail with 503 without it)
	var (
		nli    service.InferenceChecker
		scorer service.TopicScorer
	)
	if cfg.NLI.Enabled {
		nliClient := client.NewNLIClient(cfg.NLI.BaseURL, cfg.NLI.Timeout)
		nli = nliClient

		ctx, cancel := context.WithTimeout(context.Background(), cfg.NLI.Timeout)
		clf, err := zeroshot.New(ctx, cfg.NLI.Model, client.NewNLIBackend(nliClient),
			zeroshot.WithTemplate(cfg.NLI.Template),
			zeroshot.WithLogger(log.Named("zeroshot")),
		)
		cancel()
		if err != nil {
			log.Warn("Failed to load NLI model, zero-shot classification disabled",
				zap.String("model", cfg.NLI.Model), zap.Error(err))
		} else {
			scorer = clf
			log.Info("NLI model loaded", zap.String("model", cfg.NLI.Model))
		}
	}

	// Setup router
	r := router.Setup(router.Deps{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		NLI:    nli,
		Scorer: scorer,
		Logger: log,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info("Server exited")
	return nil
}
