package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/feedback"
	"github.com/Curisan/anthropic-econ-index/internal/models"
	"github.com/Curisan/anthropic-econ-index/internal/request"
	"github.com/Curisan/anthropic-econ-index/internal/validation"
)

const (
	// DefaultFeedbackDays is the listing window when days is absent
	DefaultFeedbackDays = 30
	// DefaultFeedbackLimit caps the listing when no limit is given
	DefaultFeedbackLimit = 100
	// maxFormMemory bounds in-memory multipart parsing; content is small text
	maxFormMemory = 64 << 10
)

// FeedbackService is the part of the query façade the feedback endpoints use
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, category, content, clientIP string) (int64, error)
	ListFeedback(ctx context.Context, days, limit int) ([]*models.FeedbackEntry, error)
}

// FeedbackHandler handles feedback requests
type FeedbackHandler struct {
	svc    FeedbackService
	logger *zap.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(svc FeedbackService, log *zap.Logger) *FeedbackHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedbackHandler{svc: svc, logger: log}
}

// RegisterRoutes registers feedback routes on a router already prefixed with /feedback
func (h *FeedbackHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Submit).Methods("POST")
	r.HandleFunc("", h.List).Methods("GET")
}

// SubmitFeedbackRequest is the feedback body; form posts use the same field names
type SubmitFeedbackRequest struct {
	Type    string `json:"type"`
	Content string `json:"content" validate:"required"`
}

// ListFeedbackQuery is the validated query string of GET /feedback
type ListFeedbackQuery struct {
	Days  int `validate:"gte=0,lte=3650"`
	Limit int `validate:"gte=0,lte=1000"`
}

func decodeFeedbackRequest(r *http.Request) (SubmitFeedbackRequest, error) {
	var req SubmitFeedbackRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid JSON body")
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return req, errors.New("invalid multipart form")
		}
		req.Type = r.PostFormValue("type")
		req.Content = r.PostFormValue("content")
	default:
		if err := r.ParseForm(); err != nil {
			return req, errors.New("invalid form body")
		}
		req.Type = r.PostFormValue("type")
		req.Content = r.PostFormValue("content")
	}

	req.Content = validation.SanitizeText(req.Content)
	return req, nil
}

// Submit stores one piece of feedback
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeFeedbackRequest(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FormatError(err))
		return
	}

	id, err := h.svc.SubmitFeedback(r.Context(), req.Type, req.Content, request.ClientIP(r))
	if err != nil {
		if errors.Is(err, feedback.ErrMissingIdentifier) {
			h.logger.Error("feedback_integrity_fault",
				zap.String("request_id", request.RequestIDFromContext(r.Context())),
				zap.Error(err),
			)
		}
		respondServiceError(w, r, h.logger, err, "Failed to submit feedback")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"feedbackId": id})
}

// List returns recent feedback, newest first
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", DefaultFeedbackDays)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "")
		return
	}
	limit, err := queryInt(r, "limit", DefaultFeedbackLimit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "")
		return
	}

	q := ListFeedbackQuery{Days: days, Limit: limit}
	if err := validation.Validate.Struct(q); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FormatError(err))
		return
	}

	entries, err := h.svc.ListFeedback(r.Context(), q.Days, q.Limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list feedback")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"feedbacks": entries})
}
