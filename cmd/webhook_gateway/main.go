package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/payment-webhook-ledger/internal/config"
	"github.com/payment-webhook-ledger/internal/data/mongo"
	"github.com/payment-webhook-ledger/internal/data/postgres"
	"github.com/payment-webhook-ledger/internal/data/redis"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/ingestion/components"
	"github.com/payment-webhook-ledger/internal/logger"
	"github.com/payment-webhook-ledger/internal/platform/persistence"
	"github.com/payment-webhook-ledger/internal/webhook_gateway"
	"github.com/payment-webhook-ledger/internal/webhook_gateway/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("webhook_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	if strings.TrimSpace(cfg.Webhook.Secret) == "" {
		log.Error("Refusing to start without WEBHOOK_SECRET", "error", components.ErrMissingSecret)
		os.Exit(1)
	}

	// Initialize databases with app context; migrations run before the pool opens
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())
	if err := auditRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure audit log indexes", "error", err)
		os.Exit(1)
	}

	var finder transaction.Finder = transactionRepo
	var closeRedis func() error
	if cfg.Redis.Enabled() {
		redisClient, err := persistence.NewRedisClient(appCtx, log, cfg.Redis.URL)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		finder = redis.NewCachedTransactionFinder(log, redisClient, transactionRepo, cfg.Redis.CacheTTL)
		closeRedis = redisClient.Close
	} else {
		log.Info("Idempotency cache disabled, REDIS_URL is empty")
	}

	// Initialize ingestion pipeline
	pipeline, auditRecorder, err := components.CreateIngestionPipeline(cfg, components.PipelineDependencies{
		DB:              postgresDB,
		Finder:          finder,
		TransactionRepo: transactionRepo,
		OutboxRepo:      outboxRepo,
		AuditRepo:       auditRepo,
	}, log)
	if err != nil {
		log.Error("Failed to create ingestion pipeline", "error", err)
		os.Exit(1)
	}

	// Initialize read services
	transactionService := service.NewTransactionService(log, finder)
	auditService := service.NewAuditService(log, auditRepo)

	// Initialize REST server
	server := webhook_gateway.NewServer(log, cfg, pipeline, transactionService, auditService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Graceful shutdown sequence: stop accepting requests, drain audit writes, then close stores
	log.Info("Starting graceful shutdown...")
	var shutdownErr error

	if err := server.Stop(context.Background(), cfg.Server.ShutdownTimeout); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	log.Info("Draining audit writes", "pending", auditRecorder.Running())
	if err := auditRecorder.Shutdown(cfg.Audit.ShutdownTimeout); err != nil {
		log.Error("Audit writes did not drain before timeout", "error", err)
		shutdownErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
			shutdownErr = err
		}
	}

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
