package database

import (
	"context"
	"time"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// TaskRecordRepositoryInterface defines the interface for task record repository operations
// This interface enables better testability by allowing mock implementations
type TaskRecordRepositoryInterface interface {
	BulkInsert(ctx context.Context, records []*models.TaskRecord, replace bool) (int, error)
	ListAll(ctx context.Context) ([]*models.TaskRecord, error)
	TitlesContaining(ctx context.Context, keyword string, lang models.Language) ([]string, error)
	TasksByTitle(ctx context.Context, title string, lang models.Language) ([]models.TaskShare, error)
	Count(ctx context.Context) (int, error)
}

// OccupationStatsRepositoryInterface defines the interface for occupation stats repository operations
type OccupationStatsRepositoryInterface interface {
	ReplaceAll(ctx context.Context, stats []*models.OccupationStats) error
	ListByPercentageSum(ctx context.Context, limit int) ([]*models.OccupationStats, error)
}

// SearchEventRepositoryInterface defines the interface for search history operations
type SearchEventRepositoryInterface interface {
	Create(ctx context.Context, event *models.SearchEvent) error
	PopularSince(ctx context.Context, since time.Time, limit int) ([]models.PopularOccupation, error)
}

// FeedbackRepositoryInterface defines the interface for feedback operations
type FeedbackRepositoryInterface interface {
	Create(ctx context.Context, entry *models.FeedbackEntry) error
	ListSince(ctx context.Context, since time.Time, limit int) ([]*models.FeedbackEntry, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRecordRepositoryInterface      = (*TaskRecordRepository)(nil)
	_ OccupationStatsRepositoryInterface = (*OccupationStatsRepository)(nil)
	_ SearchEventRepositoryInterface     = (*SearchEventRepository)(nil)
	_ FeedbackRepositoryInterface        = (*FeedbackRepository)(nil)
)
