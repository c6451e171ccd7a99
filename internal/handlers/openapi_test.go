package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	h, err := NewOpenAPIHandler()
	if err != nil {
		t.Fatalf("NewOpenAPIHandler() error = %v", err)
	}
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/openapi.yaml", nil))
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "openapi: 3") {
		t.Errorf("unexpected YAML response: %d %q", w.Code, w.Body.String()[:min(40, w.Body.Len())])
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/openapi.json", nil))
	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("JSON document did not decode: %v", err)
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatal("Expected paths object")
	}
	for _, p := range []string{"/api/occupation/search", "/api/occupation/tasks", "/api/occupation/popular", "/api/occupation/stats", "/api/feedback"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("path %s missing from OpenAPI document", p)
		}
	}
}

func TestNewOpenAPIHandler_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := newOpenAPIHandler([]byte("openapi: [unclosed")); err == nil {
		t.Error("Expected error for malformed document")
	}
}
