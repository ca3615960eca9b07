package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "dashboard.db"),
		Profile: ProfileScratch,
		Name:    "dashboard",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_CreatesTablesAndIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	for _, table := range []string{
		"health_snapshots", "activities", "tes_character", "ziolo_tracker",
		"trading_strategies", "trade_log", "cron_jobs", "meal_log", "meal_plans",
		"agent_status", "weekly_reports", "reports",
	} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "unknown"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestSingletonTables_RejectSecondID(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	_, err := db.Conn().Exec(`INSERT INTO ziolo_tracker
		(id, current_streak, last_use_date, monthly_use_days, monthly_goal, yearly_use_days, yearly_goal, updated_at)
		VALUES (2, 0, '2026-01-01', 0, 8, 0, 96, 0)`)
	assert.Error(t, err, "CHECK (id = 1) must reject any other id")
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Conn().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO kv VALUES ('a', '1')")
		return err
	})
	require.NoError(t, err)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO kv VALUES ('b', '2')"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction failed")

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO kv VALUES ('c', '3')")
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestWALCheckpoint_RejectsUnknownMode(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.WALCheckpoint(""))
	assert.NoError(t, db.WALCheckpoint("PASSIVE"))
	assert.Error(t, db.WALCheckpoint("DROP TABLE"))
}

func TestSnapshotTo(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())
	_, err := db.Conn().Exec(`INSERT INTO agent_status (agent_id, name, emoji, status, updated_at)
		VALUES ('chef', 'Chef', 'x', 'ok', 1)`)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.SnapshotTo(context.Background(), dest))
	assert.Error(t, db.SnapshotTo(context.Background(), dest), "existing destination is refused")

	copyDB, err := New(Config{Path: dest, Name: "snapshot"})
	require.NoError(t, err)
	defer copyDB.Close()

	var name string
	require.NoError(t, copyDB.Conn().QueryRow("SELECT name FROM agent_status WHERE agent_id = 'chef'").Scan(&name))
	assert.Equal(t, "Chef", name)
}

func TestHealthCheckAndStats(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.QuickCheck(context.Background()))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}
