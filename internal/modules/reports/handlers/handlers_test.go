package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/modules/reports"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	repo := reports.NewRepository(db.Conn(), events.NewManager(events.NewBus(), log), log)
	router := chi.NewRouter()
	NewHandler(reports.NewService(repo, time.UTC, log), log).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func data(t *testing.T, w *httptest.ResponseRecorder) interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response["data"]
}

func TestReportsLifecycle(t *testing.T) {
	router := setupRouter(t)
	today := time.Now().UTC().Format("2006-01-02")

	w := do(t, router, "POST", "/reports", map[string]interface{}{
		"reportId": "qq-daily-1", "agent": "qq", "reportType": "daily", "date": today,
		"title": "Daily", "summary": "s", "content": "c", "deliveredTo": []string{"telegram"},
		"metrics": map[string]interface{}{"pnl": 1},
	})
	data(t, w)

	w = do(t, router, "POST", "/reports", map[string]interface{}{"agent": "qq"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	list := data(t, do(t, router, "GET", "/reports?agent=qq&limit=abc", nil)).([]interface{})
	require.Len(t, list, 1)
	summary := list[0].(map[string]interface{})
	assert.Equal(t, true, summary["hasMetrics"])
	assert.NotContains(t, summary, "content")

	full := data(t, do(t, router, "GET", "/reports/qq-daily-1", nil)).(map[string]interface{})
	assert.Equal(t, "c", full["content"])

	assert.Nil(t, data(t, do(t, router, "GET", "/reports/missing", nil)))
}

func TestWeeklyAndTimeline(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, "POST", "/weekly", map[string]interface{}{
		"domain": "coach", "reportDate": "2026-02-15", "title": "Week 7", "content": "text",
	})
	weekly := data(t, w).(map[string]interface{})
	id := int64(weekly["id"].(float64))

	w = do(t, router, "POST", "/weekly", map[string]interface{}{"domain": "coach", "reportDate": "bad", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, data(t, do(t, router, "GET", "/weekly?domain=coach", nil)), 1)
	assert.Len(t, data(t, do(t, router, "GET", "/weekly?domain=qq", nil)), 0)

	got := data(t, do(t, router, "GET", "/weekly/"+jsonInt(id), nil)).(map[string]interface{})
	assert.Equal(t, "Week 7", got["title"])

	w = do(t, router, "GET", "/weekly/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	groups := data(t, do(t, router, "GET", "/reports/timeline?agent=coach", nil)).([]interface{})
	require.Len(t, groups, 1)
	assert.Equal(t, "2026-02-15", groups[0].(map[string]interface{})["label"])

	migrated := data(t, do(t, router, "POST", "/reports/migrate-weekly", nil)).(map[string]interface{})
	assert.Equal(t, float64(1), migrated["migrated"])

	list := data(t, do(t, router, "GET", "/reports?type=weekly-report", nil)).([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "coach-weekly-report-2026-02-15", list[0].(map[string]interface{})["reportId"])
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
