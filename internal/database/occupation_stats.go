package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// OccupationStatsRepository handles the derived occupation_stats table
type OccupationStatsRepository struct {
	db *DB
}

// NewOccupationStatsRepository creates a new occupation stats repository
func NewOccupationStatsRepository(db *DB) *OccupationStatsRepository {
	return &OccupationStatsRepository{db: db}
}

// ReplaceAll swaps the whole table for stats in a single transaction. Concurrent readers
// see either the previous snapshot or the new one; a failure keeps the previous one.
func (r *OccupationStatsRepository) ReplaceAll(ctx context.Context, stats []*models.OccupationStats) error {
	return r.db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM occupation_stats`); err != nil {
			return fmt.Errorf("failed to clear occupation stats: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO occupation_stats (title, title_cn, percentage_sum, percentage_non_zero,
				automated_score_avg, task_count, rebuilt_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare occupation stats insert: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, s := range stats {
			rebuiltAt := s.RebuiltAt
			if rebuiltAt.IsZero() {
				rebuiltAt = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx,
				s.Title,
				s.TitleCN,
				s.PercentageSum,
				s.PercentageNonZero,
				s.AutomatedScoreAvg,
				s.TaskCount,
				rebuiltAt,
			); err != nil {
				return fmt.Errorf("failed to insert occupation stats for %q: %w", s.Title, err)
			}
		}
		return nil
	})
}

// ListByPercentageSum returns up to limit rows ranked by percentage_sum descending
func (r *OccupationStatsRepository) ListByPercentageSum(ctx context.Context, limit int) ([]*models.OccupationStats, error) {
	query := `
		SELECT id, title, title_cn, percentage_sum, percentage_non_zero, automated_score_avg, task_count, rebuilt_at
		FROM occupation_stats
		ORDER BY percentage_sum DESC, id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupation stats: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var stats []*models.OccupationStats
	for rows.Next() {
		s := &models.OccupationStats{}
		err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.TitleCN,
			&s.PercentageSum,
			&s.PercentageNonZero,
			&s.AutomatedScoreAvg,
			&s.TaskCount,
			&s.RebuiltAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occupation stats: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating occupation stats: %w", err)
	}

	return stats, nil
}

