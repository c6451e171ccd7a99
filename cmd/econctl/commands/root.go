package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/cache"
	"github.com/Curisan/anthropic-econ-index/internal/config"
	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/queue"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
)

// Publisher is the queue handle a command needs to hand work to the worker
type Publisher interface {
	queue.Enqueuer
	Close() error
}

// Env carries the backends shared by every command
type Env struct {
	DB     *database.DB
	Logger *zap.Logger
	// Cache is invalidated after a rebuild. It may be nil.
	Cache stats.ListingCache
	// OpenQueue connects to the job queue on demand. It is nil when no queue is configured.
	OpenQueue func() (Publisher, error)

	closers []func() error
}

// Close releases the database connection and any cache client
func (e *Env) Close() {
	for _, closeFn := range e.closers {
		_ = closeFn()
	}
	if err := e.DB.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// Connector builds an Env. verbose enables debug logging on stderr.
type Connector func(ctx context.Context, verbose bool) (*Env, error)

// Connect builds an Env from the environment variables the server reads
func Connect(ctx context.Context, verbose bool) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := zap.NewNop()
	if verbose {
		if log, err = logger.NewDevelopmentLogger(true); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	db, err := database.New(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	env := &Env{DB: db, Logger: log}
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis_unavailable_cache_will_expire_by_ttl", zap.Error(err))
		} else {
			env.Cache = cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)
			env.closers = append(env.closers, redisClient.Close)
		}
	}
	if cfg.RabbitMQURL != "" {
		env.OpenQueue = func() (Publisher, error) {
			q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, log.Named("queue"))
			if err != nil {
				return nil, err
			}
			return q, nil
		}
	}
	return env, nil
}

// envRunner wraps a command body so it runs with a connected Env
type envRunner func(run func(cmd *cobra.Command, args []string, env *Env) error) func(*cobra.Command, []string) error

// NewRootCmd assembles the econctl command tree
func NewRootCmd(connect Connector) *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:           "econctl",
		Short:         "Administration tool for the automation exposure index",
		Long:          "Load task datasets, rebuild occupation statistics and inspect search and feedback history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	var withEnv envRunner = func(run func(cmd *cobra.Command, args []string, env *Env) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			env, err := connect(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			defer env.Close()
			return run(cmd, args, env)
		}
	}

	rootCmd.AddCommand(newImportCmd(withEnv))
	rootCmd.AddCommand(newRebuildCmd(withEnv))
	rootCmd.AddCommand(newStatsCmd(withEnv))
	rootCmd.AddCommand(newPopularCmd(withEnv))
	rootCmd.AddCommand(newFeedbackCmd(withEnv))
	return rootCmd
}

// enqueueRebuild hands a rebuild to the worker instead of running it in this process
func enqueueRebuild(ctx context.Context, env *Env, reason string) error {
	if env.OpenQueue == nil {
		return fmt.Errorf("RABBITMQ_URL is required to enqueue a rebuild")
	}
	publisher, err := env.OpenQueue()
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer func() { _ = publisher.Close() }()

	job := queue.NewJob(queue.JobTypeStatsRebuild, reason)
	if err := publisher.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue rebuild: %w", err)
	}
	return nil
}
