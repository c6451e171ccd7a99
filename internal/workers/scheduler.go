package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/queue"
)

// Rebuild reasons recorded on scheduled jobs
const (
	ReasonStartup   = "startup"
	ReasonScheduled = "scheduled"
)

// RebuildScheduler enqueues stats rebuild jobs on a fixed interval
type RebuildScheduler struct {
	jobQueue queue.Enqueuer
	interval time.Duration
	logger   *zap.Logger
}

// NewRebuildScheduler creates a scheduler. A zero interval disables the periodic loop;
// Schedule still works.
func NewRebuildScheduler(jobQueue queue.Enqueuer, interval time.Duration, logger *zap.Logger) *RebuildScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RebuildScheduler{jobQueue: jobQueue, interval: interval, logger: logger}
}

// Schedule enqueues one rebuild. The job expires after an hour so a backlog of
// stale rebuilds cannot pile up behind a stopped worker.
func (s *RebuildScheduler) Schedule(ctx context.Context, reason string) error {
	job := queue.NewJob(queue.JobTypeStatsRebuild, reason)
	notAfter := job.CreatedAt.Add(time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue stats rebuild: %w", err)
	}
	s.logger.Info("stats_rebuild_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// Start enqueues a rebuild every interval until ctx is cancelled
func (s *RebuildScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Schedule(ctx, ReasonScheduled); err != nil {
				s.logger.Warn("failed_to_schedule_stats_rebuild", zap.Error(err))
			}
		}
	}
}
