package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultFrontendOrigin is allowed when no origins are configured
const DefaultFrontendOrigin = "http://localhost:3000"

// CORS wraps rs/cors with the allowed frontend origins. The API is read-mostly and
// cookie-free, so credentials are not allowed.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins := normalizeOrigins(allowedOrigins)
	if logger != nil {
		logger.Info("cors_configured", zap.Strings("allowed_origins", origins))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	})
	return c.Handler
}

func normalizeOrigins(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	if len(out) == 0 {
		out = append(out, DefaultFrontendOrigin)
	}
	return out
}
