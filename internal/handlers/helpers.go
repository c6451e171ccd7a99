package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/request"
	"github.com/Curisan/anthropic-econ-index/internal/service"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
	"github.com/Curisan/anthropic-econ-index/internal/telemetry"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage caps the message shown to clients
func sanitizeErrorMessage(message string) string {
	r := []rune(message)
	if len(r) > 200 {
		return string(r[:200]) + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps façade errors onto HTTP statuses. Storage faults are logged
// and reported without internal detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, fallback string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", vErr.Error())
	case errors.Is(err, stats.ErrUnsupportedMetric):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, service.ErrNotReady):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Service is starting, try again shortly")
	default:
		log.Error("request_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.String("trace_id", telemetry.TraceID(r.Context())),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", fallback)
	}
}

// queryInt reads an integer query parameter, returning fallback when absent
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}
