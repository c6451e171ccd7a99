package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// SearchEventRepository handles the append-only search history log
type SearchEventRepository struct {
	db *DB
}

// NewSearchEventRepository creates a new search event repository
func NewSearchEventRepository(db *DB) *SearchEventRepository {
	return &SearchEventRepository{db: db}
}

// Create appends a search event
func (r *SearchEventRepository) Create(ctx context.Context, event *models.SearchEvent) error {
	query := `
		INSERT INTO search_events (title, language, client_ip, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		string(event.Language),
		nullableString(event.ClientIP),
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to create search event: %w", err)
	}

	return nil
}

// PopularSince counts events at or after since, grouped by title, most searched first
func (r *SearchEventRepository) PopularSince(ctx context.Context, since time.Time, limit int) ([]models.PopularOccupation, error) {
	query := `
		SELECT title, COUNT(*) AS search_count
		FROM search_events
		WHERE created_at >= ?
		GROUP BY title
		ORDER BY search_count DESC, MIN(id)
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular occupations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	popular := []models.PopularOccupation{}
	for rows.Next() {
		var p models.PopularOccupation
		if err := rows.Scan(&p.Title, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan popular occupation: %w", err)
		}
		popular = append(popular, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating popular occupations: %w", err)
	}

	return popular, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
