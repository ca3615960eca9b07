package health

import (
	"testing"

	"github.com/aristath/mission-control/internal/events"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	return NewRepository(db.Conn(), events.NewManager(events.NewBus(), log), log)
}

func TestUpsert_ReplacesByDate(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Upsert(&Snapshot{Date: "2025-01-05", HRV: f(55), Steps: f(9000)}))
	require.NoError(t, repo.Upsert(&Snapshot{Date: "2025-01-05", HRV: f(70)}))

	var count int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM health_snapshots").Scan(&count))
	assert.Equal(t, 1, count)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 70.0, *latest.HRV)
	assert.Nil(t, latest.Steps, "absent metric is not carried over")
}

func TestUpsert_RejectsBadDate(t *testing.T) {
	repo := newTestRepository(t)
	assert.Error(t, repo.Upsert(&Snapshot{Date: "05/01/2025"}))
}

func TestGetLatest_Empty(t *testing.T) {
	repo := newTestRepository(t)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	history, err := repo.GetHistory(14)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestGetHistory_MostRecentAscending(t *testing.T) {
	repo := newTestRepository(t)

	for _, d := range []string{"2025-01-03", "2025-01-01", "2025-01-04", "2025-01-02"} {
		require.NoError(t, repo.Upsert(&Snapshot{Date: d}))
	}

	history, err := repo.GetHistory(3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2025-01-02", history[0].Date)
	assert.Equal(t, "2025-01-04", history[2].Date)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-04", latest.Date)
}
