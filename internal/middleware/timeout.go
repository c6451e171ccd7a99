package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds every request handler
const DefaultRequestTimeout = 30 * time.Second

// Timeout enforces a deadline on request handlers. The handler's context is
// cancelled at the deadline so database calls stop with it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, `{"success":false,"error":"Request Timeout","message":"request timed out"}`)
	}
}
