package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// FeedbackRepository handles the append-only feedback log
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create appends a feedback entry and stores the assigned id on entry.ID.
// entry.ID stays 0 if the database hands back no identifier.
func (r *FeedbackRepository) Create(ctx context.Context, entry *models.FeedbackEntry) error {
	query := `
		INSERT INTO feedback_entries (category, content, client_ip, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var id sql.NullInt64
	err := r.db.QueryRowContext(ctx, query,
		string(entry.Category),
		entry.Content,
		nullableString(entry.ClientIP),
		entry.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	if id.Valid {
		entry.ID = id.Int64
	}
	return nil
}

// ListSince returns entries created at or after since, newest first
func (r *FeedbackRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.FeedbackEntry, error) {
	query := `
		SELECT id, category, content, client_ip, created_at
		FROM feedback_entries
		WHERE created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := []*models.FeedbackEntry{}
	for rows.Next() {
		entry := &models.FeedbackEntry{}
		var category string
		var clientIP sql.NullString
		if err := rows.Scan(&entry.ID, &category, &entry.Content, &clientIP, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entry.Category = models.FeedbackCategory(category)
		entry.ClientIP = stringPtr(clientIP)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return entries, nil
}
