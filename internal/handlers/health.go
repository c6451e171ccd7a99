package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

var errNoBackend = errors.New("not configured")

// Pinger is anything whose connectivity the health check can verify
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Readiness reports whether startup has completed
type Readiness interface {
	Ready() bool
	Err() error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	db        Pinger
	cache     Pinger
	readiness Readiness
	version   string
}

// NewHealthChecker creates a new health checker. cache may be nil when Redis is not configured.
func NewHealthChecker(db Pinger, cache Pinger, readiness Readiness, version string) *HealthChecker {
	return &HealthChecker{db: db, cache: cache, readiness: readiness, version: version}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Database   string            `json:"database,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthCheck handles /healthz. Basic mode only says the process is up; extended mode
// checks readiness and every backing service.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mode") == "extended" {
		h.Detailed(w, r)
		return
	}

	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Detailed handles /health and /healthz?mode=extended
func (h *HealthChecker) Detailed(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: map[string]string{"api": "ok"},
	}

	if h.readiness != nil && !h.readiness.Ready() {
		response.Status = "unhealthy"
		response.Components["startup"] = "not ready: " + h.readiness.Err().Error()
	}

	response.Database = "ok"
	if err := ping(r.Context(), h.db); err != nil {
		response.Status = "unhealthy"
		response.Database = "error"
		response.Components["database"] = "error: " + err.Error()
	} else {
		response.Components["database"] = "ok"
	}

	if h.cache != nil {
		// Cache loss degrades latency only
		if err := ping(r.Context(), h.cache); err != nil {
			response.Components["cache"] = "degraded: " + err.Error()
		} else {
			response.Components["cache"] = "ok"
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeHealth(w, statusCode, response)
}

// Version handles /version
func (h *HealthChecker) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return errNoBackend
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.PingContext(ctx)
}

func writeHealth(w http.ResponseWriter, status int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
