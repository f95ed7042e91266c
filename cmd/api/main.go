package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/abdliliaai/Rxsentinel/internal/adapters/database"
	"github.com/abdliliaai/Rxsentinel/internal/adapters/documents"
	"github.com/abdliliaai/Rxsentinel/internal/adapters/events"
	"github.com/abdliliaai/Rxsentinel/internal/adapters/search"
	"github.com/abdliliaai/Rxsentinel/internal/api/handlers"
	"github.com/abdliliaai/Rxsentinel/internal/api/routes"
	"github.com/abdliliaai/Rxsentinel/internal/application/services"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/internal/domain/repositories"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/openai"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/postgres"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/redis"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/typesense"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
	"github.com/abdliliaai/Rxsentinel/internal/pipeline"
	"github.com/abdliliaai/Rxsentinel/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("rxsentinel-api", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Reasoning engine is mandatory; nothing works without it.
	if cfg.OpenAI.APIKey == "" {
		logger.Fatal().Msg("OPENAI_API_KEY is not set")
	}
	engine, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize reasoning client")
	}

	// Record store
	var records repositories.PrescriptionRepository
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("record store unavailable, runs will not be persisted")
	} else {
		defer pgClient.Close()
		records = database.NewPrescriptionAdapter(pgClient, metrics)
	}

	// Event bus
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("event bus unavailable")
	} else {
		defer redisClient.Close()
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
	}

	// Case history search
	var caseIndex repositories.CaseSearchRepository
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Warn().Err(err).Msg("case search unavailable")
	} else {
		adapter := search.NewCaseIndexAdapter(typesenseClient)
		if err := adapter.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to init case index schema")
		}
		caseIndex = adapter
	}

	orchestrator := pipeline.NewOrchestrator(engine, pipeline.Config{
		StageTimeout: cfg.Pipeline.StageTimeout,
	})
	rasterizer := documents.NewRasterizer(&cfg.Documents)

	verificationService := services.NewVerificationService(
		orchestrator,
		rasterizer,
		records,
		caseIndex,
		eventBus,
	)

	verificationHandler := handlers.NewVerificationHandler(verificationService)

	router := routes.NewRouter(verificationHandler, metrics)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// A full verification run holds the response open for many
		// sequential reasoning calls, so writes are unbounded here.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}
