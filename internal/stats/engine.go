// Package stats derives per-occupation exposure statistics from the task records.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/models"
	"github.com/Curisan/anthropic-econ-index/internal/telemetry"
)

// ErrUnsupportedMetric is returned by List for a metric other than percentage_sum or percentage_non_zero
var ErrUnsupportedMetric = errors.New("unsupported stats metric")

// ParseMetric validates a metric name
func ParseMetric(name string) (models.StatsMetric, error) {
	m := models.StatsMetric(name)
	switch m {
	case models.MetricPercentageSum, models.MetricPercentageNonZero:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, name)
	}
}

// ListingCache stores computed listings between rebuilds. GetStats reports the cache
// generation it read under; SetStats writes under that same generation so a listing
// computed before a rebuild cannot be published after it.
type ListingCache interface {
	GetStats(ctx context.Context, metric models.StatsMetric, limit int) ([]models.OccupationStatValue, int64, bool, error)
	SetStats(ctx context.Context, generation int64, metric models.StatsMetric, limit int, values []models.OccupationStatValue) error
	InvalidateStats(ctx context.Context) error
}

// RebuildResult summarises a completed rebuild
type RebuildResult struct {
	Records     int
	Occupations int
	RebuiltAt   time.Time
}

// Engine rebuilds and lists occupation statistics. It is the only writer of the stats table.
type Engine struct {
	records database.TaskRecordRepositoryInterface
	stats   database.OccupationStatsRepositoryInterface
	cache   ListingCache
	logger  *zap.Logger
	now     func() time.Time
}

// NewEngine creates a new aggregation engine. cache may be nil.
func NewEngine(
	records database.TaskRecordRepositoryInterface,
	stats database.OccupationStatsRepositoryInterface,
	cache ListingCache,
	log *zap.Logger,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		records: records,
		stats:   stats,
		cache:   cache,
		logger:  log,
		now:     time.Now,
	}
}

// Rebuild recomputes every occupation row from the task records and replaces the stats
// table in one transaction. On failure the previous snapshot stays in place.
func (e *Engine) Rebuild(ctx context.Context) (result RebuildResult, err error) {
	defer logger.Track(e.logger, "rebuild_occupation_stats")()
	ctx, span := telemetry.StartSpan(ctx, "stats.rebuild")
	defer func() {
		span.SetAttributes(attribute.Int("occupations", result.Occupations))
		telemetry.EndSpan(span, err)
	}()

	records, err := e.records.ListAll(ctx)
	if err != nil {
		e.logger.Error("failed_to_load_task_records", zap.Error(err))
		return RebuildResult{}, fmt.Errorf("failed to load task records: %w", err)
	}

	rebuiltAt := e.now().UTC()
	rows := Aggregate(records, rebuiltAt)

	if err := e.stats.ReplaceAll(ctx, rows); err != nil {
		e.logger.Error("failed_to_replace_occupation_stats", zap.Error(err))
		return RebuildResult{}, fmt.Errorf("failed to replace occupation stats: %w", err)
	}

	if e.cache != nil {
		if err := e.cache.InvalidateStats(ctx); err != nil {
			e.logger.Warn("failed_to_invalidate_stats_cache", zap.Error(err))
		}
	}

	e.logger.Info("occupation_stats_rebuilt",
		zap.Int("records", len(records)),
		zap.Int("occupations", len(rows)),
	)

	return RebuildResult{Records: len(records), Occupations: len(rows), RebuiltAt: rebuiltAt}, nil
}

// List returns up to limit occupations ranked by percentage_sum descending. The value
// column carries the requested metric; the ranking does not change with it.
func (e *Engine) List(ctx context.Context, metric models.StatsMetric, limit int) ([]models.OccupationStatValue, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", limit)
	}

	// cacheable stays false when the generation is unknown
	var (
		generation int64
		cacheable  bool
	)
	if e.cache != nil {
		values, gen, ok, err := e.cache.GetStats(ctx, metric, limit)
		switch {
		case err != nil:
			e.logger.Warn("stats_cache_read_failed", zap.Error(err))
		case ok:
			return values, nil
		default:
			generation, cacheable = gen, true
		}
	}

	rows, err := e.stats.ListByPercentageSum(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupation stats: %w", err)
	}

	values := make([]models.OccupationStatValue, 0, len(rows))
	for _, row := range rows {
		v, _ := row.Value(metric)
		values = append(values, models.OccupationStatValue{
			Title:   row.Title,
			TitleCN: row.TitleCN,
			Value:   v,
		})
	}

	if cacheable {
		if err := e.cache.SetStats(ctx, generation, metric, limit, values); err != nil {
			e.logger.Warn("stats_cache_write_failed", zap.Error(err))
		}
	}

	return values, nil
}
