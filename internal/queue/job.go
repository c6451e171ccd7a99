package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeStatsRebuild recomputes the per-occupation statistics table
	JobTypeStatsRebuild JobType = "stats_rebuild"
)

// DefaultMaxRetries is how often a failed job is redelivered before it goes to the DLQ
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	Reason     string         `json:"reason,omitempty"`
	NotBefore  *time.Time     `json:"not_before,omitempty"`
	NotAfter   *time.Time     `json:"not_after,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a job. reason is free text recorded in worker logs, e.g. "import" or "startup".
func NewJob(jobType JobType, reason string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Reason:     reason,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now().UTC(),
		MaxRetries: DefaultMaxRetries,
	}
}

// DueIn returns how long after now the job becomes due, or zero when it already is
func (j *Job) DueIn(now time.Time) time.Duration {
	if j.NotBefore == nil {
		return 0
	}
	return max(j.NotBefore.Sub(now), 0)
}

// IsExpired checks if the job has passed NotAfter
func (j *Job) IsExpired() bool {
	return j.ExpiredAt(time.Now())
}

// ExpiredAt reports whether now is past NotAfter
func (j *Job) ExpiredAt(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
