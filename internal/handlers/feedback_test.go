package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/Curisan/anthropic-econ-index/internal/feedback"
	"github.com/Curisan/anthropic-econ-index/internal/models"
	"github.com/Curisan/anthropic-econ-index/internal/service"
)

type submitCall struct {
	category string
	content  string
	clientIP string
}

type mockFeedbackService struct {
	id          int64
	err         error
	entries     []*models.FeedbackEntry
	submitCalls []submitCall
	listCalls   [][2]int
}

func (m *mockFeedbackService) SubmitFeedback(_ context.Context, category, content, clientIP string) (int64, error) {
	m.submitCalls = append(m.submitCalls, submitCall{category, content, clientIP})
	return m.id, m.err
}

func (m *mockFeedbackService) ListFeedback(_ context.Context, days, limit int) ([]*models.FeedbackEntry, error) {
	m.listCalls = append(m.listCalls, [2]int{days, limit})
	return m.entries, m.err
}

func serveFeedback(svc FeedbackService, req *http.Request) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	NewFeedbackHandler(svc, nil).RegisterRoutes(router.PathPrefix("/api/feedback").Subrouter())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r := httptest.NewRequest("POST", "/api/feedback", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestFeedbackHandler_SubmitEncodings(t *testing.T) {
	t.Parallel()

	form := url.Values{"type": {"bug"}, "content": {"chart is empty"}}
	urlencoded := httptest.NewRequest("POST", "/api/feedback", strings.NewReader(form.Encode()))
	urlencoded.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "json", req: newJSONRequest("POST", "/api/feedback", map[string]string{"type": "bug", "content": "chart is empty"})},
		{name: "multipart", req: multipartRequest(t, map[string]string{"type": "bug", "content": "chart is empty"})},
		{name: "urlencoded", req: urlencoded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockFeedbackService{id: 17}
			tt.req.RemoteAddr = "198.51.100.4:5555"
			w := serveFeedback(svc, tt.req)

			if w.Code != http.StatusCreated {
				t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
			}
			want := submitCall{category: "bug", content: "chart is empty", clientIP: "198.51.100.4"}
			if len(svc.submitCalls) != 1 || svc.submitCalls[0] != want {
				t.Errorf("submit calls = %+v, want %+v", svc.submitCalls, want)
			}
			data := decodeBody(t, w)["data"].(map[string]any)
			if data["feedbackId"] != 17.0 {
				t.Errorf("feedbackId = %v, want 17", data["feedbackId"])
			}
		})
	}
}

func TestFeedbackHandler_SubmitErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		svcErr     error
		wantStatus int
		wantCalls  int
	}{
		{name: "missing content", body: map[string]string{"type": "bug"}, wantStatus: http.StatusBadRequest},
		{name: "control chars only", body: map[string]string{"content": "\x00\x01"}, wantStatus: http.StatusBadRequest},
		{name: "content too long", body: map[string]string{"content": "x"}, svcErr: &service.ValidationError{Field: "content", Message: "too long"}, wantStatus: http.StatusBadRequest, wantCalls: 1},
		{name: "missing identifier", body: map[string]string{"content": "x"}, svcErr: feedback.ErrMissingIdentifier, wantStatus: http.StatusInternalServerError, wantCalls: 1},
		{name: "storage fault", body: map[string]string{"content": "x"}, svcErr: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockFeedbackService{id: 1, err: tt.svcErr}
			w := serveFeedback(svc, newJSONRequest("POST", "/api/feedback", tt.body))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if len(svc.submitCalls) != tt.wantCalls {
				t.Errorf("Expected %d service calls, got %d", tt.wantCalls, len(svc.submitCalls))
			}
			if success, _ := decodeBody(t, w)["success"].(bool); success {
				t.Error("Expected success to be false")
			}
		})
	}
}

func TestFeedbackHandler_SubmitMalformedJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/api/feedback", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	svc := &mockFeedbackService{}

	w := serveFeedback(svc, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestFeedbackHandler_List(t *testing.T) {
	t.Parallel()

	svc := &mockFeedbackService{entries: []*models.FeedbackEntry{
		{ID: 2, Category: models.FeedbackCategoryData, Content: "typo"},
	}}

	w := serveFeedback(svc, httptest.NewRequest("GET", "/api/feedback?days=7&limit=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if svc.listCalls[0] != [2]int{7, 5} {
		t.Errorf("list called with %v", svc.listCalls[0])
	}
	data := decodeBody(t, w)["data"].(map[string]any)
	entries := data["feedbacks"].([]any)
	first := entries[0].(map[string]any)
	if first["type"] != "data" || first["content"] != "typo" {
		t.Errorf("unexpected entry: %v", first)
	}

	w = serveFeedback(svc, httptest.NewRequest("GET", "/api/feedback?limit=-1", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
