package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// TaskRecordRepository handles the raw occupation-task table. Import is its only writer.
type TaskRecordRepository struct {
	db *DB
}

// NewTaskRecordRepository creates a new task record repository
func NewTaskRecordRepository(db *DB) *TaskRecordRepository {
	return &TaskRecordRepository{db: db}
}

const taskRecordColumns = `id, onet_soc_code, title, title_cn, task_id, task, task_cn, task_type,
	incumbents_responding, date, domain_source, percentage, automated_score, automated_score_reason`

// BulkInsert writes all records in one transaction. When replace is true the existing
// dataset is removed first, which is how a full reimport happens. Nothing is visible to
// readers unless every row is written.
func (r *TaskRecordRepository) BulkInsert(ctx context.Context, records []*models.TaskRecord, replace bool) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *Tx) error {
		if replace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM task_records`); err != nil {
				return fmt.Errorf("failed to clear task records: %w", err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO task_records (onet_soc_code, title, title_cn, task_id, task, task_cn, task_type,
				incumbents_responding, date, domain_source, percentage, automated_score, automated_score_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare task record insert: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for i, rec := range records {
			_, err := stmt.ExecContext(ctx,
				rec.OccupationCode,
				rec.Title,
				rec.TitleCN,
				rec.TaskID,
				rec.Task,
				rec.TaskCN,
				rec.TaskType,
				rec.IncumbentsResponding,
				rec.Date,
				rec.DomainSource,
				rec.Percentage,
				rec.AutomatedScore,
				rec.AutomatedScoreReason,
			)
			if err != nil {
				return fmt.Errorf("failed to insert task record %d (%s/%d): %w", i+1, rec.OccupationCode, rec.TaskID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListAll returns every record in storage order
func (r *TaskRecordRepository) ListAll(ctx context.Context) ([]*models.TaskRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskRecordColumns+` FROM task_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query task records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*models.TaskRecord
	for rows.Next() {
		rec, err := scanTaskRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task records: %w", err)
	}

	return records, nil
}

// TitlesContaining returns the distinct titles in lang whose text contains keyword,
// case-sensitively, in order of first appearance in storage
func (r *TaskRecordRepository) TitlesContaining(ctx context.Context, keyword string, lang models.Language) ([]string, error) {
	column := titleColumn(lang)
	query := `
		SELECT ` + column + `
		FROM task_records
		WHERE ` + r.db.containsExpr(column) + `
		GROUP BY ` + column + `
		ORDER BY MIN(id)
	`

	rows, err := r.db.QueryContext(ctx, query, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search titles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating titles: %w", err)
	}

	return titles, nil
}

// TasksByTitle returns the tasks of the occupation whose title in lang equals title,
// ordered by exposure percentage descending
func (r *TaskRecordRepository) TasksByTitle(ctx context.Context, title string, lang models.Language) ([]models.TaskShare, error) {
	query := `
		SELECT ` + taskColumn(lang) + `, percentage
		FROM task_records
		WHERE ` + titleColumn(lang) + ` = ?
		ORDER BY percentage DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, title)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tasks := []models.TaskShare{}
	for rows.Next() {
		var share models.TaskShare
		if err := rows.Scan(&share.Task, &share.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Count returns the number of stored records
func (r *TaskRecordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count task records: %w", err)
	}
	return n, nil
}

func scanTaskRecord(rows *sql.Rows) (*models.TaskRecord, error) {
	rec := &models.TaskRecord{}
	err := rows.Scan(
		&rec.ID,
		&rec.OccupationCode,
		&rec.Title,
		&rec.TitleCN,
		&rec.TaskID,
		&rec.Task,
		&rec.TaskCN,
		&rec.TaskType,
		&rec.IncumbentsResponding,
		&rec.Date,
		&rec.DomainSource,
		&rec.Percentage,
		&rec.AutomatedScore,
		&rec.AutomatedScoreReason,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// titleColumn and taskColumn map a language onto a fixed column name; never user input
func titleColumn(lang models.Language) string {
	if lang == models.LanguageChinese {
		return "title_cn"
	}
	return "title"
}

func taskColumn(lang models.Language) string {
	if lang == models.LanguageChinese {
		return "task_cn"
	}
	return "task"
}
