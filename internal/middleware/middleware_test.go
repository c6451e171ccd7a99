package middleware

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "GET needs nothing", method: "GET", wantStatus: http.StatusOK},
		{name: "json", method: "POST", contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "multipart", method: "POST", contentType: "multipart/form-data; boundary=x", wantStatus: http.StatusOK},
		{name: "urlencoded", method: "POST", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusOK},
		{name: "missing", method: "POST", wantStatus: http.StatusBadRequest},
		{name: "xml", method: "POST", contentType: "application/xml", wantStatus: http.StatusUnsupportedMediaType},
		{name: "malformed", method: "POST", contentType: ";;", wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/feedback", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(okHandler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler).ServeHTTP(plain, httptest.NewRequest("GET", "/", nil))
	if plain.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if plain.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain http")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.TLS = &tls.ConnectionState{}
	secure := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler).ServeHTTP(secure, req)
	if secure.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS header over TLS when enabled")
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/api/feedback", strings.NewReader(strings.Repeat("x", 32)))
	w := httptest.NewRecorder()
	MaxRequestSize(16)(okHandler).ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Error != "Request Entity Too Large" {
		t.Errorf("Expected status text in error field, got %q", body.Error)
	}

	req = httptest.NewRequest("POST", "/api/feedback", strings.NewReader("small"))
	w = httptest.NewRecorder()
	MaxRequestSize(16)(okHandler).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/occupation/search", nil)
	w = httptest.NewRecorder()
	MaxRequestSize(16)(okHandler).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET: expected status 200, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://econ.example.com/", " https://econ.example.com"}, nil)(okHandler)

	req := httptest.NewRequest("GET", "/api/occupation/search", nil)
	req.Header.Set("Origin", "https://econ.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://econ.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest("GET", "/api/occupation/search", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Allow-Origin %q", got)
	}
}

func TestNormalizeOrigins(t *testing.T) {
	t.Parallel()

	if got := normalizeOrigins(nil); len(got) != 1 || got[0] != DefaultFrontendOrigin {
		t.Errorf("normalizeOrigins(nil) = %v", got)
	}
	got := normalizeOrigins([]string{"http://a/", "http://a", "", "http://b"})
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Errorf("normalizeOrigins = %v", got)
	}
}

func TestRateLimit_MemoryStore(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit("2-M", nil)
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	core, logs := observer.New(zap.WarnLevel)
	handler := Audit(zap.New(core))(mw(okHandler))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("GET", "/api/occupation/popular", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
	if logs.FilterMessage("rate_limit_violation").Len() != 1 {
		t.Error("Expected one rate_limit_violation audit entry")
	}

	// Another client has its own bucket
	req := httptest.NewRequest("GET", "/api/occupation/popular", nil)
	req.RemoteAddr = "192.0.2.11:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("second client status = %d", w.Code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit("fast", nil); err == nil {
		t.Error("Expected error for invalid rate")
	}
}
