package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/config"
	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/ingest"
	"github.com/Curisan/anthropic-econ-index/internal/request"
)

const dataset = `O*NET-SOC Code,Title,Task ID,Task,Task Type,Incumbents Responding,Date,Domain Source,pct,Task_CN,Title_CN,Automated_Score,Automated_Score_Reason
51-3011.00,Bakers,1,Mix dough,Core,12,07/2014,Incumbent,30,和面,面包师,40,Repetitive
51-3011.00,Bakers,2,Decorate cakes,Supplemental,,07/2014,Incumbent,0,装饰蛋糕,面包师,10,Creative
35-2014.00,Cooks Restaurant,3,Season food,Core,8,07/2014,Incumbent,12.5,调味,餐厅厨师,55,Rule based
`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestApp(t *testing.T) (*app, http.Handler) {
	t.Helper()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "econ.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = ingest.NewImporter(database.NewTaskRecordRepository(db), nil).
		Import(ctx, strings.NewReader(dataset), ingest.Options{})
	require.NoError(t, err)

	cfg := &config.Config{
		RateLimit:     "1000-S",
		FrontendURLs:  []string{"http://localhost:3000"},
		StatsCacheTTL: time.Minute,
	}
	a := newApp(cfg, zap.NewNop(), db, nil)
	a.warmUp(ctx)
	require.True(t, a.lifecycle.Ready())

	h, err := a.routes()
	require.NoError(t, err)
	return a, h
}

func call(t *testing.T, h http.Handler, req *http.Request, wantStatus int, data any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, wantStatus, w.Code, w.Body.String())

	if data != nil {
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return w
}

func TestApp_LookupFlow(t *testing.T) {
	a, h := newTestApp(t)

	var search struct {
		Occupations []string `json:"occupations"`
	}
	w := call(t, h, httptest.NewRequest("GET", "/api/occupation/search?keyword=Bak", nil), http.StatusOK, &search)
	assert.Equal(t, []string{"Bakers"}, search.Occupations)
	assert.True(t, strings.HasPrefix(w.Header().Get(request.RequestIDHeader), "req-"))

	call(t, h, httptest.NewRequest("GET", "/api/occupation/search?keyword=%E5%8E%A8&language=cn", nil), http.StatusOK, &search)
	assert.Equal(t, []string{"餐厅厨师"}, search.Occupations)

	var tasks struct {
		Tasks []struct {
			Task       string  `json:"task"`
			Percentage float64 `json:"percentage"`
		} `json:"tasks"`
	}
	for range 2 {
		call(t, h, httptest.NewRequest("GET", "/api/occupation/tasks?title=Bakers", nil), http.StatusOK, &tasks)
	}
	require.Len(t, tasks.Tasks, 2)
	assert.Equal(t, "Mix dough", tasks.Tasks[0].Task)
	assert.Equal(t, 30.0, tasks.Tasks[0].Percentage)

	a.svc.Wait()

	var popular struct {
		Occupations []struct {
			Title string `json:"title"`
			Count int    `json:"count"`
		} `json:"occupations"`
	}
	call(t, h, httptest.NewRequest("GET", "/api/occupation/popular?days=1", nil), http.StatusOK, &popular)
	require.Len(t, popular.Occupations, 1)
	assert.Equal(t, "Bakers", popular.Occupations[0].Title)
	assert.Equal(t, 2, popular.Occupations[0].Count)

	var stats struct {
		Stats []struct {
			Title string  `json:"title"`
			Value float64 `json:"value"`
		} `json:"stats"`
	}
	call(t, h, httptest.NewRequest("GET", "/api/occupation/stats?metric=percentage_non_zero", nil), http.StatusOK, &stats)
	require.Len(t, stats.Stats, 2)
	assert.Equal(t, "Bakers", stats.Stats[0].Title)
	assert.Equal(t, 30.0, stats.Stats[0].Value)
	assert.Equal(t, 12.5, stats.Stats[1].Value)

	call(t, h, httptest.NewRequest("GET", "/api/occupation/stats?metric=median", nil), http.StatusBadRequest, nil)
}

func TestApp_Feedback(t *testing.T) {
	_, h := newTestApp(t)

	body, _ := json.Marshal(map[string]string{"type": "praise", "content": "  useful chart  "})
	req := httptest.NewRequest("POST", "/api/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	var created struct {
		FeedbackID int64 `json:"feedbackId"`
	}
	call(t, h, req, http.StatusCreated, &created)
	assert.Positive(t, created.FeedbackID)

	var listed struct {
		Feedbacks []struct {
			ID      int64  `json:"id"`
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"feedbacks"`
	}
	call(t, h, httptest.NewRequest("GET", "/api/feedback", nil), http.StatusOK, &listed)
	require.Len(t, listed.Feedbacks, 1)
	assert.Equal(t, created.FeedbackID, listed.Feedbacks[0].ID)
	assert.Equal(t, "other", listed.Feedbacks[0].Type)
	assert.Equal(t, "useful chart", listed.Feedbacks[0].Content)

	xml := httptest.NewRequest("POST", "/api/feedback", strings.NewReader("<x/>"))
	xml.Header.Set("Content-Type", "application/xml")
	call(t, h, xml, http.StatusUnsupportedMediaType, nil)
}

func TestApp_HealthAndDocs(t *testing.T) {
	_, h := newTestApp(t)

	w := call(t, h, httptest.NewRequest("GET", "/health", nil), http.StatusOK, nil)
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Database)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	call(t, h, httptest.NewRequest("GET", "/api/openapi.json", nil), http.StatusOK, nil)

	var v struct {
		Version string `json:"version"`
	}
	call(t, h, httptest.NewRequest("GET", "/version", nil), http.StatusOK, &v)
	assert.Equal(t, version, v.Version)
}

func TestApp_NotReadyBeforeWarmUp(t *testing.T) {
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "econ.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := newApp(&config.Config{RateLimit: "1000-S"}, zap.NewNop(), db, nil)
	h, err := a.routes()
	require.NoError(t, err)

	call(t, h, httptest.NewRequest("GET", "/api/occupation/search?keyword=a", nil), http.StatusServiceUnavailable, nil)
	call(t, h, httptest.NewRequest("GET", "/health", nil), http.StatusServiceUnavailable, nil)
	call(t, h, httptest.NewRequest("GET", "/healthz", nil), http.StatusOK, nil)
}
