package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/interviews"
	"peerprep/interview/internal/jobs"
	"peerprep/interview/internal/llm"
	_ "peerprep/interview/internal/llm/gemini"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/repositories"
	"peerprep/interview/internal/repositories/cache"
	"peerprep/interview/internal/repositories/mongo"
	"peerprep/interview/internal/repositories/postgres"
	"peerprep/interview/internal/routers"
	"peerprep/interview/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "interview"

func registerRoutes(router *chi.Mux, interviewHandler *handlers.InterviewHandler, feedbackHandler *handlers.FeedbackHandler, healthHandler *handlers.HealthHandler, jwtSecret string) {
	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, interviewHandler, feedbackHandler, jwtSecret)
}

// initStores connects the configured backend. The returned func releases it.
func initStores(ctx context.Context, cfg *config.Config) (repositories.InterviewStore, repositories.FeedbackStore, func(), error) {
	if cfg.StoreBackend == config.BackendPostgres {
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return postgres.NewInterviewRepo(db), postgres.NewFeedbackRepo(db), closeDB, nil
	}

	client, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, nil, err
	}
	closeClient := func() { _ = client.Close(context.Background()) }

	interviewRepo, err := mongo.NewInterviewRepo(ctx, client)
	if err != nil {
		closeClient()
		return nil, nil, nil, err
	}
	feedbackRepo, err := mongo.NewFeedbackRepo(ctx, client)
	if err != nil {
		closeClient()
		return nil, nil, nil, err
	}
	return interviewRepo, feedbackRepo, closeClient, nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("store", cfg.StoreBackend),
		zap.String("provider", cfg.Provider),
		zap.Bool("redis", cfg.RedisAddr != ""))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	interviewStore, feedbackStore, closeStores, err := initStores(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStores()

	checks := map[string]handlers.PingFunc{
		"interviews": interviewStore.Ping,
		"feedback":   feedbackStore.Ping,
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		interviewStore = cache.NewInterviewCache(interviewStore, rdb, cfg.InterviewCacheTTL, logger)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info("Interview cache enabled", zap.Duration("ttl", cfg.InterviewCacheTTL))
	}

	// prompt manager
	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	// scoring provider based on configuration
	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	engine := interviews.NewEngine(interviewStore, feedbackStore, logger, interviews.Config{
		DefaultLimit:        cfg.AvailableDefaultLimit,
		MaxLimit:            cfg.AvailableMaxLimit,
		OverfetchMultiplier: cfg.AvailableOverfetchMultiplier,
		MaxCandidates:       cfg.AvailableMaxCandidates,
	})
	feedbackManager := feedback.NewFeedbackManager(engine, feedbackStore, provider, promptManager, logger)

	interviewHandler := handlers.NewInterviewHandler(engine, logger)
	feedbackHandler := handlers.NewFeedbackHandler(engine, feedbackManager, logger)
	healthHandler := handlers.NewHealthHandler(serviceName, checks)

	var subscriber *services.CompletionSubscriber
	if rdb != nil {
		subscriber = services.NewCompletionSubscriber(rdb, engine, feedbackManager, logger)
		if err := subscriber.Start(ctx); err != nil {
			logger.Error("Failed to start completion subscriber", zap.Error(err))
			subscriber = nil
		}
	}

	exporterJob := jobs.NewFeedbackExporterJob(feedbackStore, &jobs.ExporterConfig{
		Schedule:      cfg.FeedbackExportSchedule,
		ExportDir:     cfg.FeedbackExportDir,
		ExportEnabled: cfg.FeedbackExportEnabled,
	}, logger)
	if err := exporterJob.Start(); err != nil {
		logger.Error("Failed to start feedback exporter job", zap.Error(err))
	}

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))
	router.Use(metrics.Middleware(serviceName))

	registerRoutes(router, interviewHandler, feedbackHandler, healthHandler, cfg.JWTSecret)

	serverAddr := ":" + cfg.Port

	// http server with timeouts; scoring calls can take a while
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")

	if subscriber != nil {
		subscriber.Stop()
	}
	exporterJob.Stop()

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
