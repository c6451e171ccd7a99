package middleware

import (
	"mime"
	"net/http"
)

var allowedBodyTypes = map[string]bool{
	"application/json":                  true,
	"multipart/form-data":               true,
	"application/x-www-form-urlencoded": true,
}

// ContentType rejects bodies the handlers cannot decode
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				writeRejection(w, r, http.StatusBadRequest, "Content-Type header is required")
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || !allowedBodyTypes[mediaType] {
				writeRejection(w, r, http.StatusUnsupportedMediaType,
					"Content-Type must be application/json, multipart/form-data or application/x-www-form-urlencoded")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
