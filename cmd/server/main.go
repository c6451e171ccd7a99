package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
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
	"github.com/Curisan/anthropic-econ-index/internal/telemetry"
	"github.com/Curisan/anthropic-econ-index/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag
	zapLogger, err := logger.New(cfg.Environment, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("database_driver", cfg.DatabaseDriver),
		zap.Strings("frontend_urls", cfg.FrontendURLs),
		zap.Bool("redis_enabled", cfg.RedisURL != ""),
		zap.Bool("queue_enabled", cfg.RabbitMQURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracing := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, version, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(ctx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
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
	zapLogger.Info("connected_to_database", zap.String("driver", string(driver)))

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	a := newApp(cfg, zapLogger, db, redisClient)
	a.tracing = tracing

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if cfg.RabbitMQURL != "" {
		jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()

		scheduler := workers.NewRebuildScheduler(jobQueue, cfg.RebuildInterval, zapLogger.Named("scheduler"))
		if err := scheduler.Schedule(bgCtx, workers.ReasonStartup); err != nil {
			zapLogger.Warn("failed_to_schedule_startup_rebuild", zap.Error(err))
		}
		go scheduler.Start(bgCtx)

		janitor := queue.NewDLQJanitor(jobQueue, time.Hour, cfg.DLQRetention, zapLogger.Named("dlq"))
		go func() {
			if err := janitor.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_janitor_stopped_with_error", zap.Error(err))
			}
		}()

		// The worker owns rebuilds; the last snapshot is served meanwhile
		a.lifecycle.MarkReady()
	} else {
		go a.warmUp(bgCtx)
	}

	handler, err := a.routes()
	if err != nil {
		zapLogger.Fatal("failed_to_build_routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	// Let in-flight search events land before the pool closes
	a.svc.Wait()

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with capped exponential backoff
func connectQueue(url string, log *zap.Logger) *queue.RabbitMQQueue {
	const (
		maxAttempts  = 10
		initialDelay = 2 * time.Second
		maxDelay     = 30 * time.Second
	)

	var lastErr error
	for attempt := range maxAttempts {
		q, err := queue.NewRabbitMQQueue(url, log.Named("queue"))
		if err == nil {
			log.Info("connected_to_rabbitmq")
			return q
		}
		lastErr = err
		delay := min(initialDelay*time.Duration(1<<attempt), maxDelay)
		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	log.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(lastErr))
	return nil
}
