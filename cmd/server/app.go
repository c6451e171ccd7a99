package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/cache"
	"github.com/Curisan/anthropic-econ-index/internal/config"
	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/feedback"
	"github.com/Curisan/anthropic-econ-index/internal/handlers"
	"github.com/Curisan/anthropic-econ-index/internal/history"
	"github.com/Curisan/anthropic-econ-index/internal/lifecycle"
	"github.com/Curisan/anthropic-econ-index/internal/middleware"
	"github.com/Curisan/anthropic-econ-index/internal/search"
	"github.com/Curisan/anthropic-econ-index/internal/service"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
	"github.com/Curisan/anthropic-econ-index/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// app holds the wired components of the API server
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *database.DB
	redis     *redis.Client
	lifecycle *lifecycle.Lifecycle
	engine    *stats.Engine
	svc       *service.Service
	tracing   bool
}

// newApp wires repositories, components and the query façade on top of an open database.
// redisClient may be nil.
func newApp(cfg *config.Config, log *zap.Logger, db *database.DB, redisClient *redis.Client) *app {
	taskRecords := database.NewTaskRecordRepository(db)
	statsRepo := database.NewOccupationStatsRepository(db)
	events := database.NewSearchEventRepository(db)
	entries := database.NewFeedbackRepository(db)

	var listingCache stats.ListingCache
	if redisClient != nil {
		listingCache = cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)
	}

	lc := lifecycle.New()
	engine := stats.NewEngine(taskRecords, statsRepo, listingCache, log.Named("stats"))

	svc := service.New(service.Deps{
		Search:    search.NewIndex(taskRecords),
		Tasks:     taskRecords,
		History:   history.NewTracker(events, log.Named("history")),
		Feedback:  feedback.NewLedger(entries, log.Named("feedback")),
		Stats:     engine,
		Readiness: lc,
		Logger:    log,
	})

	return &app{
		cfg:       cfg,
		logger:    log,
		db:        db,
		redis:     redisClient,
		lifecycle: lc,
		engine:    engine,
		svc:       svc,
	}
}

// routes builds the router with the full middleware chain
func (a *app) routes() (http.Handler, error) {
	r := mux.NewRouter()

	// gorilla/mux runs router middleware after route matching, inside the outer chain
	if a.tracing {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}

	var cachePinger handlers.Pinger
	if a.redis != nil {
		cachePinger = cache.NewStatsCache(a.redis, a.cfg.StatsCacheTTL)
	}
	health := handlers.NewHealthChecker(a.db, cachePinger, a.lifecycle, version)
	r.HandleFunc("/healthz", health.HealthCheck).Methods("GET")
	r.HandleFunc("/health", health.Detailed).Methods("GET")
	r.HandleFunc("/version", health.Version).Methods("GET")

	openAPI, err := handlers.NewOpenAPIHandler()
	if err != nil {
		return nil, err
	}
	openAPI.RegisterRoutes(r)

	rateLimit, err := middleware.RateLimit(a.cfg.RateLimit, a.redis)
	if err != nil {
		return nil, fmt.Errorf("failed to configure rate limit: %w", err)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimit)
	handlers.NewOccupationHandler(a.svc, a.logger.Named("occupation")).
		RegisterRoutes(api.PathPrefix("/occupation").Subrouter())
	handlers.NewFeedbackHandler(a.svc, a.logger.Named("feedback")).
		RegisterRoutes(api.PathPrefix("/feedback").Subrouter())

	// Outermost first: request id and access log, panic recovery, audit, headers,
	// CORS (answers preflight itself), body checks, deadline
	var h http.Handler = r
	h = middleware.Timeout(middleware.DefaultRequestTimeout)(h)
	h = middleware.ContentType(h)
	h = middleware.MaxRequestSize(middleware.DefaultMaxRequestSize)(h)
	h = middleware.CORS(a.cfg.FrontendURLs, a.logger)(h)
	h = middleware.SecurityHeaders(a.cfg.EnableHSTS)(h)
	h = middleware.Audit(a.logger)(h)
	h = middleware.ErrorHandler(a.logger)(h)
	h = middleware.Logging(a.logger)(h)
	return h, nil
}

// warmUp rebuilds the statistics table in-process and marks the app ready. It is used
// when no worker queue is configured.
func (a *app) warmUp(ctx context.Context) {
	if _, err := a.engine.Rebuild(ctx); err != nil {
		a.logger.Error("startup_stats_rebuild_failed", zap.Error(err))
		a.lifecycle.MarkFailed(fmt.Errorf("startup stats rebuild: %w", err))
		return
	}
	a.lifecycle.MarkReady()
}
