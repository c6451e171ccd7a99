package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DLQJanitor drops dead-lettered rebuild jobs once they are older than the retention
// window. A rebuild is only useful while its snapshot is fresh, so old failures carry
// nothing worth replaying.
type DLQJanitor struct {
	purger    DLQPurger
	every     time.Duration
	retention time.Duration
	logger    *zap.Logger
	purged    atomic.Int64
}

// NewDLQJanitor creates a janitor that sweeps every interval. A nil purger makes every
// sweep a no-op.
func NewDLQJanitor(purger DLQPurger, every, retention time.Duration, logger *zap.Logger) *DLQJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if every <= 0 {
		every = time.Hour
	}
	return &DLQJanitor{purger: purger, every: every, retention: retention, logger: logger}
}

// Run sweeps once straight away and then on every tick until ctx is cancelled.
// It returns ctx.Err().
func (j *DLQJanitor) Run(ctx context.Context) error {
	j.sweepAndLog(ctx)

	ticker := time.NewTicker(j.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweepAndLog(ctx)
		}
	}
}

func (j *DLQJanitor) sweepAndLog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := j.Sweep(ctx); err != nil {
		j.logger.Warn("dlq_sweep_failed", zap.Error(err))
	}
}

// Sweep runs one purge bounded to two minutes and reports how many messages it removed
func (j *DLQJanitor) Sweep(ctx context.Context) (int, error) {
	if j.purger == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	n, err := j.purger.PurgeOlderThan(ctx, j.retention)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead-letter queue: %w", err)
	}
	if n > 0 {
		total := j.purged.Add(int64(n))
		j.logger.Info("dlq_swept",
			zap.Int("messages", n),
			zap.Int64("total_messages", total),
			zap.Duration("retention", j.retention),
		)
	}
	return n, nil
}

// Purged returns the number of messages removed since the janitor was created
func (j *DLQJanitor) Purged() int64 {
	return j.purged.Load()
}
