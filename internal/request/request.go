package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// FallbackClientIP is recorded when no client address can be determined
const FallbackClientIP = "127.0.0.1"

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
// The port is stripped from RemoteAddr. Never returns an empty string.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if r.RemoteAddr == "" {
		return FallbackClientIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// NewRequestID returns a short URL-safe identifier, prefixed with "req-"
func NewRequestID() string {
	id, err := gonanoid.New()
	if err != nil {
		// crypto/rand failure; still hand back something unique enough for log correlation
		return "req-unknown"
	}
	return "req-" + id
}

// WithRequestID returns a context carrying the request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request id, or "" when none is set
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
