package cron

import (
	"testing"
	"time"

	"github.com/aristath/mission-control/internal/events"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, now time.Time) *Repository {
	t.Helper()
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	repo := NewRepository(db.Conn(), events.NewManager(events.NewBus(), log), log)
	repo.now = func() time.Time { return now }
	return repo
}

func TestUpsert_ReplacesByJobID(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newTestRepo(t, now)

	status := "ok"
	require.NoError(t, repo.Upsert(&Job{JobID: "sync", Name: "Sync", Schedule: "0 * * * *", Enabled: true}))
	require.NoError(t, repo.Upsert(&Job{JobID: "sync", Name: "Sync v2", Schedule: "0 * * * *", Enabled: true, LastStatus: &status}))

	jobs, err := repo.List()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Sync v2", jobs[0].Name)
	assert.Equal(t, "ok", jobs[0].Status())
	assert.Equal(t, now.UnixMilli(), jobs[0].UpdatedAt)
}

func TestUpsert_DerivesNextRun(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newTestRepo(t, now)

	lastRun := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC).UnixMilli()
	job := &Job{JobID: "hourly", Name: "Hourly", Schedule: "0 * * * *", Enabled: true, LastRunAt: &lastRun}
	require.NoError(t, repo.Upsert(job))
	require.NotNil(t, job.NextRunAt)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).UnixMilli(), *job.NextRunAt)

	fresh := &Job{JobID: "daily", Name: "Daily", Schedule: "@daily", Enabled: true}
	require.NoError(t, repo.Upsert(fresh))
	require.NotNil(t, fresh.NextRunAt)
	assert.Greater(t, *fresh.NextRunAt, now.UnixMilli())

	explicit := int64(42)
	kept := &Job{JobID: "k", Name: "K", Schedule: "0 * * * *", Enabled: true, NextRunAt: &explicit}
	require.NoError(t, repo.Upsert(kept))
	assert.Equal(t, int64(42), *kept.NextRunAt)

	disabled := &Job{JobID: "off", Name: "Off", Schedule: "0 * * * *", Enabled: false}
	require.NoError(t, repo.Upsert(disabled))
	assert.Nil(t, disabled.NextRunAt)

	bogus := &Job{JobID: "bad", Name: "Bad", Schedule: "every tuesday", Enabled: true}
	require.NoError(t, repo.Upsert(bogus))
	assert.Nil(t, bogus.NextRunAt)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := newTestRepo(t, time.Now())
	jobs, err := repo.List()
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}
