package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/modules/progress"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	repo := progress.NewRepository(db.Conn(), events.NewManager(events.NewBus(), log), log)
	handler := NewHandler(progress.NewService(repo, log), log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	}
	return w, response
}

func TestCharacterRoundTrip(t *testing.T) {
	router := setupRouter(t)

	w, resp := doRequest(t, router, "GET", "/progress/character", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, resp["data"])

	w, _ = doRequest(t, router, "POST", "/progress/character", map[string]interface{}{
		"level":   2,
		"xp":      10,
		"totalXp": 210,
		"badges":  []string{"a"},
		"domains": map[string]interface{}{"Mind": map[string]interface{}{"level": 2, "xp_in_level": 0, "xp_to_next": 10}},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, router, "GET", "/progress/character", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["level"])
	assert.Contains(t, resp, "metadata")
}

func TestUpsertZiolo_Validation(t *testing.T) {
	router := setupRouter(t)

	w, _ := doRequest(t, router, "POST", "/progress/ziolo", map[string]interface{}{
		"currentStreak": 1, "lastUseDate": "nope", "monthlyGoal": 8, "yearlyGoal": 96,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/progress/ziolo", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetView(t *testing.T) {
	router := setupRouter(t)

	w, _ := doRequest(t, router, "POST", "/progress/ziolo", map[string]interface{}{
		"currentStreak": 3, "lastUseDate": "2025-02-01", "monthlyUseDays": 2, "monthlyGoal": 8,
		"yearlyUseDays": 12, "yearlyGoal": 96,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doRequest(t, router, "GET", "/progress/view", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["hasCharacter"])
	assert.Len(t, data["radar"], 5)
	ziolo := data["ziolo"].(map[string]interface{})
	assert.Equal(t, float64(6), ziolo["remaining"])
	assert.Equal(t, float64(25), ziolo["monthlyPct"])
}

func TestRegisterRoutes(t *testing.T) {
	log := testutil.NopLogger()
	handler := NewHandler(progress.NewService(nil, log), log)

	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")
}
