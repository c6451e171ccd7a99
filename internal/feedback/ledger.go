// Package feedback stores categorized free-text feedback.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// ErrMissingIdentifier means the store accepted an entry but returned no id
var ErrMissingIdentifier = errors.New("feedback stored without an identifier")

// ErrEmptyContent is returned for blank feedback
var ErrEmptyContent = errors.New("feedback content is required")

// ErrContentTooLong is returned when content exceeds models.MaxFeedbackContentLength runes
var ErrContentTooLong = errors.New("feedback content is too long")

// Ledger is the append-only feedback log
type Ledger struct {
	entries database.FeedbackRepositoryInterface
	logger  *zap.Logger
	now     func() time.Time
}

// NewLedger creates a new feedback ledger
func NewLedger(entries database.FeedbackRepositoryInterface, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{entries: entries, logger: log, now: time.Now}
}

// Add stores one entry and returns its id. Unknown categories are stored as "other".
func (l *Ledger) Add(ctx context.Context, category, content, clientIP string) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > models.MaxFeedbackContentLength {
		return 0, fmt.Errorf("%w: limit is %d characters", ErrContentTooLong, models.MaxFeedbackContentLength)
	}

	entry := &models.FeedbackEntry{
		Category:  models.NormalizeFeedbackCategory(category),
		Content:   content,
		CreatedAt: l.now().UTC(),
	}
	if clientIP != "" {
		entry.ClientIP = &clientIP
	}

	if err := l.entries.Create(ctx, entry); err != nil {
		return 0, fmt.Errorf("failed to store feedback: %w", err)
	}

	if entry.ID == 0 {
		l.logger.Error("feedback_stored_without_id",
			zap.String("category", string(entry.Category)),
			zap.String("client_ip", logger.SanitizeIP(clientIP)),
		)
		return 0, ErrMissingIdentifier
	}

	l.logger.Info("feedback_received",
		zap.Int64("feedback_id", entry.ID),
		zap.String("category", string(entry.Category)),
	)
	return entry.ID, nil
}

// List returns entries from the last windowDays calendar days, newest first
func (l *Ledger) List(ctx context.Context, windowDays, limit int) ([]*models.FeedbackEntry, error) {
	if windowDays < 0 || limit < 0 {
		return nil, fmt.Errorf("window and limit must be non-negative (days=%d, limit=%d)", windowDays, limit)
	}

	since := l.now().UTC().AddDate(0, 0, -windowDays)
	entries, err := l.entries.ListSince(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return entries, nil
}
