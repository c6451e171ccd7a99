package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/models"
	"github.com/Curisan/anthropic-econ-index/internal/request"
	"github.com/Curisan/anthropic-econ-index/internal/validation"
)

const (
	// DefaultSearchLimit caps search results when no limit is given
	DefaultSearchLimit = 10
	// DefaultPopularDays is the popularity window when days is absent
	DefaultPopularDays = 30
	// DefaultPopularLimit caps the popularity list when no limit is given
	DefaultPopularLimit = 10
	// DefaultStatsLimit caps the stats listing when no limit is given
	DefaultStatsLimit = 20
	// MaxListLimit is the largest limit accepted on any listing
	MaxListLimit = 1000
)

// OccupationService is the part of the query façade the occupation endpoints use
type OccupationService interface {
	SearchOccupations(ctx context.Context, keyword string, lang models.Language, limit int) ([]string, error)
	GetOccupationTasks(ctx context.Context, title string, lang models.Language, clientIP string) ([]models.TaskShare, error)
	GetPopularOccupations(ctx context.Context, days, limit int) ([]models.PopularOccupation, error)
	GetOccupationStats(ctx context.Context, metric string, limit int) ([]models.OccupationStatValue, error)
}

// OccupationHandler handles occupation lookup requests
type OccupationHandler struct {
	svc    OccupationService
	logger *zap.Logger
}

// NewOccupationHandler creates a new occupation handler
func NewOccupationHandler(svc OccupationService, log *zap.Logger) *OccupationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OccupationHandler{svc: svc, logger: log}
}

// RegisterRoutes registers occupation routes on a router already prefixed with /occupation
func (h *OccupationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/search", h.Search).Methods("GET")
	r.HandleFunc("/tasks", h.Tasks).Methods("GET")
	r.HandleFunc("/popular", h.Popular).Methods("GET")
	r.HandleFunc("/stats", h.Stats).Methods("GET")
}

// SearchQuery is the validated query string of /occupation/search
type SearchQuery struct {
	Keyword  string
	Language string `validate:"required,language"`
	Limit    int    `validate:"gte=0,lte=1000"`
}

// TasksQuery is the validated query string of /occupation/tasks
type TasksQuery struct {
	Title    string
	Language string `validate:"required,language"`
}

// PopularQuery is the validated query string of /occupation/popular
type PopularQuery struct {
	Days  int `validate:"gte=0,lte=3650"`
	Limit int `validate:"gte=0,lte=1000"`
}

// StatsQuery is the validated query string of /occupation/stats
type StatsQuery struct {
	Metric string `validate:"required,stats_metric"`
	Limit  int    `validate:"gte=0,lte=1000"`
}

func languageParam(r *http.Request) string {
	if lang := r.URL.Query().Get("language"); lang != "" {
		return lang
	}
	return string(models.LanguageEnglish)
}

// Search returns titles containing the keyword
func (h *OccupationHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultSearchLimit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "")
		return
	}

	q := SearchQuery{
		Keyword:  r.URL.Query().Get("keyword"),
		Language: languageParam(r),
		Limit:    limit,
	}
	if err := validation.Validate.Struct(q); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FormatError(err))
		return
	}

	titles, err := h.svc.SearchOccupations(r.Context(), q.Keyword, models.Language(q.Language), q.Limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to search occupations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"occupations": titles})
}

// Tasks returns the task distribution of one occupation
func (h *OccupationHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	q := TasksQuery{
		Title:    r.URL.Query().Get("title"),
		Language: languageParam(r),
	}
	if err := validation.Validate.Struct(q); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FormatError(err))
		return
	}

	tasks, err := h.svc.GetOccupationTasks(r.Context(), q.Title, models.Language(q.Language), request.ClientIP(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to load occupation tasks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// Popular returns the most searched occupations
func (h *OccupationHandler) Popular(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", DefaultPopularDays)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "")
		return
	}
	limit, err := queryInt(r, "limit", DefaultPopularLimit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "")
		return
	}

	q := PopularQuery{Days: days, Limit: limit}
	if err := validation.Validate.Struct(q); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FormatError(err))
		return
	}

	popular, err := h.svc.GetPopularOccupations(r.Context(), q.Days, q.Limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to load popular occupations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"occupations": popular})
}

// Stats returns occupations ranked by total exposure
func (h *OccupationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultStatsLimit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "")
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = string(models.MetricPercentageSum)
	}

	q := StatsQuery{Metric: metric, Limit: limit}
	if err := validation.Validate.Struct(q); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FormatError(err))
		return
	}

	values, err := h.svc.GetOccupationStats(r.Context(), q.Metric, q.Limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to load occupation stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"stats": values})
}
