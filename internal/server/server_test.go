package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/mission-control/internal/config"
	"github.com/aristath/mission-control/internal/di"
	"github.com/aristath/mission-control/internal/modules/agents"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	cfg := &config.Config{
		DataDir:  t.TempDir(),
		Port:     8080,
		DevMode:  true,
		Location: time.UTC,
		Backup:   &config.BackupConfig{Schedule: "0 0 3 * * *"},
	}

	container, err := di.Wire(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	s := New(Config{Log: zerolog.Nop(), Config: cfg, Container: container})
	s.systemHandlers.hostStats = func(string) (float64, float64, float64) { return 12.5, 40, 100 }
	return s, container
}

func do(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/api/overview", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mission_control_http_requests_total")
}

func TestServer_Assets(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/manifest.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/manifest+json", rec.Header().Get("Content-Type"))
	var manifest map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &manifest))
	assert.Equal(t, "Mission Control", manifest["name"])

	rec = do(t, s, http.MethodGet, "/sw.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mc-v1"`)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestServer_ModuleRoutesMounted(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{
		"/api/health/view",
		"/api/activities",
		"/api/progress/view",
		"/api/trading/view",
		"/api/cron/view",
		"/api/meals/view",
		"/api/agents",
		"/api/reports",
		"/api/reports/timeline",
		"/api/weekly",
		"/api/overview",
	} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var envelope map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), path)
		assert.Contains(t, envelope, "data", path)
		assert.Contains(t, envelope, "metadata", path)
	}
}

func TestServer_SystemStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data SystemStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.Equal(t, 12.5, resp.Data.CPUPercent)
	assert.NotNil(t, resp.Data.Database)
	assert.False(t, resp.Data.BackupConfigured)
	assert.Equal(t, []string{
		"check_database_integrity", "check_wal_checkpoints", "daily_maintenance", "weekly_maintenance",
	}, resp.Data.Jobs)
	assert.GreaterOrEqual(t, resp.Data.EventSubscribers, 1)
}

func TestServer_BackupNotConfigured(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/system/backup", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/system/backups", "").Code)
}

func TestServer_TriggerJob(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/system/jobs/check_wal_checkpoints", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"job":"check_wal_checkpoints"`)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/api/system/jobs/nope", "").Code)
}

func TestServer_CORS(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_EventStream(t *testing.T) {
	s, container := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ts.URL+"/api/events/stream?types=AGENT_STATUS_UPDATED", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(lines)
	}()

	first := <-lines
	assert.Contains(t, first, `"connected"`)

	// Filtered out
	container.EventManager.Emit("HEALTH_UPDATED", "health", nil)
	require.NoError(t, container.AgentsRepo.Upsert(&agents.Status{AgentID: "chef", Name: "Chef", Emoji: "c", Status: "ok"}))

	select {
	case line := <-lines:
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		assert.Equal(t, "AGENT_STATUS_UPDATED", event["type"])
		assert.Equal(t, "agent_status", event["table"])
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}
