// Package service is the query surface the transport layer calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/feedback"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/models"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
)

// recordTimeout bounds a background search-event write
const recordTimeout = 5 * time.Second

// TitleSearcher finds titles by keyword
type TitleSearcher interface {
	SearchTitles(ctx context.Context, keyword string, lang models.Language) ([]string, error)
}

// TaskLister loads one occupation's tasks
type TaskLister interface {
	TasksByTitle(ctx context.Context, title string, lang models.Language) ([]models.TaskShare, error)
}

// SearchHistory records lookups and ranks them
type SearchHistory interface {
	RecordSearch(ctx context.Context, title string, lang models.Language, clientIP string)
	Popular(ctx context.Context, windowDays, limit int) ([]models.PopularOccupation, error)
}

// FeedbackLedger stores and lists feedback
type FeedbackLedger interface {
	Add(ctx context.Context, category, content, clientIP string) (int64, error)
	List(ctx context.Context, windowDays, limit int) ([]*models.FeedbackEntry, error)
}

// StatsLister lists derived occupation statistics
type StatsLister interface {
	List(ctx context.Context, metric models.StatsMetric, limit int) ([]models.OccupationStatValue, error)
}

// Readiness reports whether startup has finished
type Readiness interface {
	Ready() bool
}

// Service validates caller input and delegates to the components
type Service struct {
	search    TitleSearcher
	tasks     TaskLister
	history   SearchHistory
	feedback  FeedbackLedger
	stats     StatsLister
	readiness Readiness
	logger    *zap.Logger

	recorders sync.WaitGroup
}

// Deps bundles the components a Service needs
type Deps struct {
	Search    TitleSearcher
	Tasks     TaskLister
	History   SearchHistory
	Feedback  FeedbackLedger
	Stats     StatsLister
	Readiness Readiness
	Logger    *zap.Logger
}

// New creates a new query façade
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		search:    d.Search,
		tasks:     d.Tasks,
		history:   d.History,
		feedback:  d.Feedback,
		stats:     d.Stats,
		readiness: d.Readiness,
		logger:    log,
	}
}

func (s *Service) checkReady() error {
	if s.readiness != nil && !s.readiness.Ready() {
		return ErrNotReady
	}
	return nil
}

func validateLanguage(lang models.Language) error {
	if !lang.Valid() {
		return invalid("language", "must be %q or %q, got %q", models.LanguageEnglish, models.LanguageChinese, lang)
	}
	return nil
}

func validateNonNegative(field string, v int) error {
	if v < 0 {
		return invalid(field, "must be non-negative, got %d", v)
	}
	return nil
}

// SearchOccupations returns at most limit titles in lang containing keyword
func (s *Service) SearchOccupations(ctx context.Context, keyword string, lang models.Language, limit int) ([]string, error) {
	if err := validateLanguage(lang); err != nil {
		return nil, err
	}
	if err := validateNonNegative("limit", limit); err != nil {
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	titles, err := s.search.SearchTitles(ctx, keyword, lang)
	if err != nil {
		return nil, err
	}
	if len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

// GetOccupationTasks returns the tasks of title ordered by exposure descending. The lookup
// is recorded in the search history in the background; the response never waits for it.
func (s *Service) GetOccupationTasks(ctx context.Context, title string, lang models.Language, clientIP string) ([]models.TaskShare, error) {
	if err := validateLanguage(lang); err != nil {
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if title == "" {
		return []models.TaskShare{}, nil
	}

	s.recordAsync(ctx, title, lang, clientIP)

	tasks, err := s.tasks.TasksByTitle(ctx, title, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for occupation: %w", err)
	}
	return tasks, nil
}

func (s *Service) recordAsync(ctx context.Context, title string, lang models.Language, clientIP string) {
	// Detached from the request so a finished response does not cancel the write
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	s.recorders.Add(1)
	go func() {
		defer s.recorders.Done()
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("search_event_recorder_panicked",
					zap.Any("panic", p),
					zap.String("title", logger.SanitizeKeyword(title)),
				)
			}
		}()
		s.history.RecordSearch(recordCtx, title, lang, clientIP)
	}()
}

// Wait blocks until every background search-event write has finished
func (s *Service) Wait() {
	s.recorders.Wait()
}

// GetPopularOccupations ranks titles searched in the last days days
func (s *Service) GetPopularOccupations(ctx context.Context, days, limit int) ([]models.PopularOccupation, error) {
	if err := validateNonNegative("days", days); err != nil {
		return nil, err
	}
	if err := validateNonNegative("limit", limit); err != nil {
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.history.Popular(ctx, days, limit)
}

// SubmitFeedback stores feedback and returns its id
func (s *Service) SubmitFeedback(ctx context.Context, category, content, clientIP string) (int64, error) {
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	id, err := s.feedback.Add(ctx, category, content, clientIP)
	switch {
	case errors.Is(err, feedback.ErrEmptyContent):
		return 0, invalid("content", "must not be empty")
	case errors.Is(err, feedback.ErrContentTooLong):
		return 0, invalid("content", "must be at most %d characters", models.MaxFeedbackContentLength)
	case err != nil:
		return 0, err
	}
	return id, nil
}

// ListFeedback returns feedback from the last days days, newest first
func (s *Service) ListFeedback(ctx context.Context, days, limit int) ([]*models.FeedbackEntry, error) {
	if err := validateNonNegative("days", days); err != nil {
		return nil, err
	}
	if err := validateNonNegative("limit", limit); err != nil {
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.feedback.List(ctx, days, limit)
}

// GetOccupationStats lists occupations ranked by percentage_sum with the metric as value
func (s *Service) GetOccupationStats(ctx context.Context, metric string, limit int) ([]models.OccupationStatValue, error) {
	m, err := stats.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	if err := validateNonNegative("limit", limit); err != nil {
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.stats.List(ctx, m, limit)
}
