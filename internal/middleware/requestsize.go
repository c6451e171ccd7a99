package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize bounds request bodies. Feedback is the only body the API
// accepts and it is capped far below this.
const DefaultMaxRequestSize int64 = 256 << 10

// MaxRequestSize rejects bodies that declare more than maxBytes up front with 413 and
// caps undeclared (chunked) bodies with http.MaxBytesReader, whose overflow surfaces
// to the handler as a decode error. GET and HEAD pass through untouched.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeRejection(w, r, http.StatusRequestEntityTooLarge, "request body is too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
