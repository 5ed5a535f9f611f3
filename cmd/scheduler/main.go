/**
 * @description
 * This is the main entry point for the ledger scheduler. It is a
 * non-HTTP, long-running process that executes scheduled tasks (cron
 * jobs), currently the daily overdue-detection scan. It initializes the
 * configuration, database connection, Redis day-marker, RabbitMQ
 * producer, and the cron scheduler, then starts it.
 */
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coopstack/ledger-service/internal/app"
	"github.com/coopstack/ledger-service/internal/config"
	"github.com/coopstack/ledger-service/internal/store"
	"github.com/coopstack/ledger-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load application configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	if err := store.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Member notifications ride the same event exchange as the API.
	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{}
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		logger.Warn("rabbitmq unavailable; notifications fall back to logging", "error", err)
	} else {
		defer producer.Close()
		publisher = producer
	}

	// Initialize dependencies
	repository := store.NewPostgresRepository(dbpool)
	ledgerService := app.NewService(repository, rabbitmq.NewMemberNotifier(publisher))

	// The Redis day-marker keeps multiple scheduler replicas from
	// running the same daily scan twice.
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Warn("redis url parse failed; day-marker disabled", "error", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				logger.Warn("redis ping failed; day-marker disabled", "error", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				ledgerService.SetJobMarker(app.NewRedisJobMarker(redisClient, cfg.RedisJobPrefix))
			}
			cancelPing()
		}
	}

	jobs := app.NewJobs(ledgerService, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.OverdueJobSchedule)

	// Start the cron scheduler in the background
	scheduler.Start()
	logger.Info("scheduler started")

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	// Stop the scheduler
	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for scheduler to fully stop
	logger.Info("scheduler stopped gracefully")
}
