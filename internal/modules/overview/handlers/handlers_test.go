package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/aristath/mission-control/internal/modules/overview"
	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/aristath/mission-control/internal/modules/trading"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOverview(t *testing.T) {
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	manager := events.NewManager(events.NewBus(), log)
	conn := db.Conn()

	healthRepo := health.NewRepository(conn, manager, log)
	hrv := 70.0
	require.NoError(t, healthRepo.Upsert(&health.Snapshot{Date: "2026-02-23", HRV: &hrv}))

	service := overview.NewService(
		healthRepo,
		trading.NewRepository(conn, manager, log),
		meals.NewRepository(conn, manager, time.UTC, log),
		progress.NewRepository(conn, manager, log),
		cron.NewRepository(conn, manager, log),
		reports.NewRepository(conn, manager, log),
		time.UTC,
		log,
	)
	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/overview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(70), data["health"].(map[string]interface{})["hrv"])
	assert.Nil(t, data["character"])
	assert.Equal(t, float64(8), data["ziolo"].(map[string]interface{})["monthlyGoal"])
}
