package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/harborline/product-import/internal/api"
	"github.com/harborline/product-import/internal/catalog"
	"github.com/harborline/product-import/internal/config"
	"github.com/harborline/product-import/internal/database"
	"github.com/harborline/product-import/internal/fetcher"
	"github.com/harborline/product-import/internal/ratelimit"
	"github.com/harborline/product-import/internal/scraper"
	"github.com/harborline/product-import/internal/uploader"
)

func main() {
	// Setup logging
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Import.VerboseImages || cfg.Import.VerbosePDFs || cfg.Import.DebugDomain != "" {
		logLevel.Set(slog.LevelDebug)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis client, shared by the relay and the uploader's document cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	// Relay for outbox processing
	relay := database.NewRelay(db, redisClient, logger, database.RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("relay stopped with error", "error", err)
		}
	}()

	// Services
	limiter := ratelimit.NewPerHostRateLimiter(
		time.Duration(cfg.Fetcher.RateLimitSeconds)*time.Second,
		time.Duration(cfg.Fetcher.RateLimitSeconds+2)*time.Second,
	)
	pageFetcher := fetcher.New(fetcher.Options{
		Timeout:    time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Fetcher.MaxRetries,
		UserAgent:  cfg.Fetcher.UserAgent,
		RateLimit:  limiter,
	}, logger)

	mediaUploader := uploader.New(pageFetcher, redisClient, uploader.Options{
		Dir:         "media",
		MaxPDFBytes: int64(cfg.Import.MaxPDFSizeMB) << 20,
	}, logger)

	scrapeService := scraper.New(logger)
	scrapeService.SetDebugDomain(cfg.Import.DebugDomain)
	catalogService := catalog.NewService(db, mediaUploader, catalog.Options{
		MaxImages:      cfg.Import.MaxImages,
		ApplyGSTMarkup: cfg.Import.ApplyGSTMarkup,
		DefaultStatus:  database.ProductStatus(cfg.Import.DefaultStatus),
	}, logger)

	products := database.NewProductRepository(db)
	handlers := api.NewHandlers(pageFetcher, scrapeService, catalogService, logger)

	// Setup Chi router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		pendingCount, _ := relay.GetPendingCount(context.Background())
		deadLetterCount, _ := relay.GetDeadLetterCount(context.Background())

		health := map[string]interface{}{
			"status": "ok",
			"outbox": map[string]interface{}{
				"pending":     pendingCount,
				"dead_letter": deadLetterCount,
			},
		}

		status := http.StatusOK
		if pendingCount > 1000 {
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
		if deadLetterCount > 100 {
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(health)
	})

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scrape", handlers.Scrape)
		r.Post("/import", handlers.Import)
		r.Get("/products", handlers.ListProducts(products))
		r.Get("/products/{sku}", handlers.GetProduct(products))
		r.Patch("/products/{sku}/status", handlers.UpdateProductStatus(products))
	})

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("starting import API", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
