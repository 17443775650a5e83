package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/loanpilot/loanpilot/internal/application/usecase"
	"github.com/loanpilot/loanpilot/internal/domain/port"
	"github.com/loanpilot/loanpilot/internal/domain/service"
	"github.com/loanpilot/loanpilot/internal/infrastructure/adapter"
	"github.com/loanpilot/loanpilot/internal/infrastructure/config"
	"github.com/loanpilot/loanpilot/internal/infrastructure/kafka"
	"github.com/loanpilot/loanpilot/internal/infrastructure/persistence"
	"github.com/loanpilot/loanpilot/internal/infrastructure/persistence/memory"
	pgRepo "github.com/loanpilot/loanpilot/internal/infrastructure/persistence/postgres"
	redisStore "github.com/loanpilot/loanpilot/internal/infrastructure/redis"
	"github.com/loanpilot/loanpilot/internal/presentation/rest"
	pkgkafka "github.com/loanpilot/loanpilot/pkg/kafka"
	"github.com/loanpilot/loanpilot/pkg/observability"
	pkgpostgres "github.com/loanpilot/loanpilot/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()
	cfg.Validate()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})

	logger.Info("starting loan-orchestrator", "http_port", cfg.HTTPPort)

	// Metrics exporter.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Run database migrations.
	if migErr := pkgpostgres.RunMigrations(cfg.DB.DSN(),
		"file://internal/infrastructure/persistence/postgres/migrations"); migErr != nil {
		logger.Warn("migration warning", "error", migErr)
	}

	// Conversation store: Postgres is authoritative, the in-process store
	// keeps serving reads when the database is unreachable.
	durable := pgRepo.NewConversationRepo(pool)
	fallback := memory.NewConversationStore()
	store := persistence.NewTieredStore(durable, fallback, logger)

	// OTP cache. Without Redis the store falls back to in-process entries.
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
	}
	otpStore := redisStore.NewOTPStore(redisClient)

	// Kafka event publisher.
	kafkaProducer := pkgkafka.NewProducer(cfg.Kafka)
	defer kafkaProducer.Close()
	publisher := kafka.NewEventPublisher(kafkaProducer, cfg.EventTopic, logger)

	// External service adapters.
	crmClient := adapter.NewCRMClient(adapter.CRMConfig{
		BaseURL:        cfg.CRM.BaseURL,
		TimeoutSeconds: int(cfg.CRM.Timeout.Seconds()),
	})
	bureauClient := adapter.NewBureauClient(adapter.BureauConfig{
		BaseURL:        cfg.Bureau.BaseURL,
		TimeoutSeconds: int(cfg.Bureau.Timeout.Seconds()),
	})
	notifier := adapter.NewHTTPNotifier(adapter.NotifierConfig{
		BaseURL:        cfg.Notifier.BaseURL,
		TimeoutSeconds: int(cfg.Notifier.Timeout.Seconds()),
	}, logger)
	extractor := adapter.NewSalarySlipExtractor()

	// Reply phrasing: the hosted model when configured, with the rule-based
	// generator as both the fallback and the no-key default.
	var textGen port.TextGenerator = adapter.NewRuleBasedGenerator()
	if cfg.OpenAI.APIKey != "" {
		textGen = adapter.NewFallbackTextGenerator(
			adapter.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model),
			adapter.NewRuleBasedGenerator(),
			logger,
		)
	}

	// Domain services and use cases.
	underwriter := service.NewUnderwritingEngine()
	handleTurnUC := usecase.NewHandleTurnUseCase(
		store,
		publisher,
		crmClient,
		bureauClient,
		notifier,
		textGen,
		otpStore,
		service.NewStageRouter(),
		service.NewPricingEngine(),
		underwriter,
		service.NewSanctionIssuer(cfg.DocumentBaseURL),
		service.NewGamificationEngine(),
		logger,
	)
	getConvUC := usecase.NewGetConversationUseCase(store)
	deleteConvUC := usecase.NewDeleteConversationUseCase(store)
	underwritingUC := usecase.NewEvaluateUnderwritingUseCase(underwriter)

	// HTTP server.
	mux := http.NewServeMux()
	rest.NewConversationHandler(handleTurnUC, getConvUC, deleteConvUC, underwritingUC, extractor, logger).
		RegisterRoutes(mux)
	rest.NewHealthHandler(logger, rest.ReadinessCheck{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			return pkgpostgres.HealthCheck(ctx, pool)
		},
	}).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           rest.LoggingMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("loan-orchestrator stopped")
}
