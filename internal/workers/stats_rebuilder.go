package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/queue"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
)

// JobProcessor handles one job type
type JobProcessor func(ctx context.Context, job *queue.Job) error

// Rebuilder recomputes the occupation statistics table
type Rebuilder interface {
	Rebuild(ctx context.Context) (stats.RebuildResult, error)
}

// retryBackoff is the delay before a failed job is redelivered
const retryBackoff = 30 * time.Second

// maxHold bounds how long the consumer sits on a delivered job that is not due yet.
// It stays well below the broker's delivery acknowledgement timeout.
const maxHold = 5 * time.Minute

// StatsRebuilder processes stats rebuild jobs
type StatsRebuilder struct {
	engine   Rebuilder
	requeue  queue.Enqueuer
	logger   *zap.Logger
	registry map[queue.JobType]JobProcessor
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewStatsRebuilder creates the worker and registers the stats_rebuild processor. requeue
// is used to retry failed jobs with backoff; when nil failures go straight to the DLQ.
func NewStatsRebuilder(engine Rebuilder, requeue queue.Enqueuer, logger *zap.Logger) *StatsRebuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &StatsRebuilder{
		engine:   engine,
		requeue:  requeue,
		logger:   logger,
		registry: make(map[queue.JobType]JobProcessor),
		now:      time.Now,
		sleep:    sleepContext,
	}
	w.RegisterProcessor(queue.JobTypeStatsRebuild, w.ProcessStatsRebuildJob)
	return w
}

// RegisterProcessor registers a processor for a job type
func (w *StatsRebuilder) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	w.registry[typ] = proc
}

// ProcessStatsRebuildJob rebuilds the statistics table
func (w *StatsRebuilder) ProcessStatsRebuildJob(ctx context.Context, job *queue.Job) error {
	w.logger.Info("processing_stats_rebuild_job",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", logpkg.SanitizeString(job.Reason, 100)),
		zap.Int("retry_count", job.RetryCount),
	)
	result, err := w.engine.Rebuild(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("stats_rebuild_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("records", result.Records),
		zap.Int("occupations", result.Occupations),
	)
	return nil
}

// ProcessJob dispatches a delivered message to its processor and settles it. A job
// that is not due yet is held until it is (the broker may hand it over early when no
// delayed exchange is available); unknown types and expired jobs are dead-lettered;
// failures are retried until MaxRetries and then dead-lettered.
func (w *StatsRebuilder) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if !w.holdUntilDue(ctx, job) {
		// Shutting down, or due beyond maxHold: hand it back for a later delivery
		if err := msg.Nack(true); err != nil {
			w.logger.Warn("failed_to_requeue_job",
				zap.String("job_id", job.ID.String()),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
		return nil
	}

	if job.ExpiredAt(w.now()) {
		w.logger.Info("job_expired", zap.String("job_id", job.ID.String()))
		if err := msg.Nack(false); err != nil {
			w.logger.Warn("failed_to_nack_expired_job",
				zap.String("job_id", job.ID.String()),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
		return nil
	}

	proc, ok := w.registry[job.Type]
	if !ok {
		if err := msg.Nack(false); err != nil {
			w.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", logpkg.SanitizeString(string(job.Type), 100)),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := proc(ctx, job); err != nil {
		w.logger.Error("job_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		w.settleFailure(ctx, msg, job)
		return fmt.Errorf("%s job failed: %w", job.Type, err)
	}

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack %s job: %w", job.Type, err)
	}
	return nil
}

// holdUntilDue waits until job is due, at most maxHold. It reports false when the wait
// was cut short by ctx or the job is still not due afterwards.
func (w *StatsRebuilder) holdUntilDue(ctx context.Context, job *queue.Job) bool {
	delay := job.DueIn(w.now())
	if delay <= 0 {
		return true
	}

	hold := min(delay, maxHold)
	w.logger.Debug("holding_job_until_due",
		zap.String("job_id", job.ID.String()),
		zap.Duration("hold", hold),
	)
	if err := w.sleep(ctx, hold); err != nil {
		return false
	}
	return hold == delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// settleFailure republishes a retryable job with a delay and acks the original, or
// dead-letters it once retries are exhausted or republishing fails.
func (w *StatsRebuilder) settleFailure(ctx context.Context, msg queue.MessageInterface, job *queue.Job) {
	if w.requeue != nil && job.CanRetry() {
		retry := *job
		retry.IncrementRetry()
		notBefore := w.now().Add(retryBackoff * time.Duration(retry.RetryCount))
		retry.NotBefore = &notBefore

		err := w.requeue.Enqueue(ctx, &retry)
		if err == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("failed_to_ack_retried_job",
					zap.String("job_id", job.ID.String()),
					zap.String("error", logpkg.SanitizeError(ackErr)),
				)
			}
			return
		}
		w.logger.Warn("failed_to_enqueue_retry",
			zap.String("job_id", job.ID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}

	if err := msg.Nack(false); err != nil {
		w.logger.Warn("failed_to_nack_job",
			zap.String("job_id", job.ID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}
