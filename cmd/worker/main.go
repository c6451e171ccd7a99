package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/cache"
	"github.com/Curisan/anthropic-econ-index/internal/config"
	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/queue"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
	"github.com/Curisan/anthropic-econ-index/internal/telemetry"
	"github.com/Curisan/anthropic-econ-index/internal/workers"
)

var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireQueue(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag
	zapLogger, err := logger.New(cfg.Environment, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.WorkerServiceName, version, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = telemetry.Shutdown(ctx, tp)
			}()
		}
	}

	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		zapLogger.Fatal("invalid_database_driver", zap.Error(err))
	}
	db, err := database.New(driver, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	// The worker only invalidates the listing cache; readers live in the API server
	var listingCache stats.ListingCache
	if cfg.RedisURL != "" {
		var redisClient *redis.Client
		redisClient, err = cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("redis_unavailable_cache_will_expire_by_ttl", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			listingCache = cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)
		}
	}

	engine := stats.NewEngine(
		database.NewTaskRecordRepository(db),
		database.NewOccupationStatsRepository(db),
		listingCache,
		zapLogger.Named("stats"),
	)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger.Named("queue"))
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	rebuilder := workers.NewStatsRebuilder(engine, jobQueue, zapLogger.Named("worker"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_consuming")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgChan {
			if err := rebuilder.ProcessJob(ctx, msg); err != nil {
				zapLogger.Error("failed_to_process_job",
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
					zap.Bool("redelivered", msg.Redelivered()),
					zap.Error(err),
				)
			}
		}
	}()

	go func() {
		for err := range errChan {
			zapLogger.Error("queue_error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		zapLogger.Info("worker_shutting_down")
	case <-done:
		zapLogger.Error("worker_delivery_stopped")
	}

	cancel()
	<-done
	zapLogger.Info("worker_stopped")
}
