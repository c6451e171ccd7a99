// Package history records task-distribution lookups and ranks titles by how often they were searched.
package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// Tracker appends search events and answers popularity queries
type Tracker struct {
	events database.SearchEventRepositoryInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker creates a new search history tracker
func NewTracker(events database.SearchEventRepositoryInterface, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{events: events, logger: log, now: time.Now}
}

// RecordSearch appends one event. Failures are logged and never returned; a lost
// event only makes popularity counts slightly low.
func (t *Tracker) RecordSearch(ctx context.Context, title string, lang models.Language, clientIP string) {
	event := &models.SearchEvent{
		Title:     title,
		Language:  lang,
		CreatedAt: t.now().UTC(),
	}
	if clientIP != "" {
		event.ClientIP = &clientIP
	}

	if err := t.events.Create(ctx, event); err != nil {
		t.logger.Warn("failed_to_record_search_event",
			zap.String("title", logger.SanitizeKeyword(title)),
			zap.String("language", string(lang)),
			zap.Error(err),
		)
		return
	}

	t.logger.Debug("search_event_recorded",
		zap.Int64("event_id", event.ID),
		zap.String("title", logger.SanitizeKeyword(title)),
	)
}

// Popular counts events from the last windowDays calendar days, grouped by title,
// most searched first, truncated to limit
func (t *Tracker) Popular(ctx context.Context, windowDays, limit int) ([]models.PopularOccupation, error) {
	if windowDays < 0 || limit < 0 {
		return nil, fmt.Errorf("window and limit must be non-negative (days=%d, limit=%d)", windowDays, limit)
	}

	cutoff := Cutoff(t.now(), windowDays)
	popular, err := t.events.PopularSince(ctx, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank popular occupations: %w", err)
	}
	return popular, nil
}

// Cutoff returns now minus windowDays calendar days in UTC. AddDate normalises
// month and year boundaries.
func Cutoff(now time.Time, windowDays int) time.Time {
	return now.UTC().AddDate(0, 0, -windowDays)
}
