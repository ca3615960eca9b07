package activities

import (
	"fmt"
	"testing"

	"github.com/aristath/mission-control/internal/events"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	return NewRepository(db.Conn(), events.NewManager(events.NewBus(), log), log)
}

func TestInsert_AppendsWithUUID(t *testing.T) {
	repo := newTestRepository(t)

	a := &Activity{Date: "2025-01-05", Type: "run", Name: "Morning run"}
	b := &Activity{Date: "2025-01-05", Type: "run", Name: "Morning run"}
	require.NoError(t, repo.Insert(a))
	require.NoError(t, repo.Insert(b))

	assert.NotEqual(t, a.ID, b.ID, "identical payloads are separate rows")
	_, err := uuid.Parse(a.ID)
	assert.NoError(t, err)

	list, err := repo.List(1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestInsert_Validation(t *testing.T) {
	repo := newTestRepository(t)

	assert.Error(t, repo.Insert(&Activity{Date: "bad", Type: "run", Name: "x"}))
	assert.Error(t, repo.Insert(&Activity{Date: "2025-01-05", Name: "x"}))
	assert.Error(t, repo.Insert(&Activity{Date: "2025-01-05", Type: "run"}))
}

func TestList_WindowAndOrder(t *testing.T) {
	repo := newTestRepository(t)

	km := 5.2
	for i := 1; i <= 15; i++ {
		require.NoError(t, repo.Insert(&Activity{
			Date:     fmt.Sprintf("2025-01-%02d", i),
			Type:     "walk",
			Name:     fmt.Sprintf("walk %d", i),
			Distance: &km,
		}))
	}

	list, err := repo.List(1)
	require.NoError(t, err)
	require.Len(t, list, RowsPerDay)
	assert.Equal(t, "2025-01-15", list[0].Date)
	assert.Equal(t, "2025-01-06", list[9].Date)
	require.NotNil(t, list[0].Distance)
	assert.Equal(t, 5.2, *list[0].Distance)
	assert.Nil(t, list[0].Calories)

	empty, err := repo.List(0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
