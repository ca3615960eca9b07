package trading

import (
	"database/sql"
	"os"
	"testing"

	"github.com/aristath/mission-control/internal/database"
	testutil "github.com/aristath/mission-control/internal/testing"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The dashboard schema and trade dedup must behave the same on the cgo driver.
func setupSQLite3DB(t *testing.T) *sql.DB {
	tmpfile, err := os.CreateTemp("", "test_trading_*.db")
	require.NoError(t, err)
	tmpfile.Close()

	db, err := sql.Open("sqlite3", tmpfile.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(tmpfile.Name())
	})

	if err := db.Ping(); err != nil {
		t.Skipf("sqlite3 driver unavailable: %v", err)
	}

	schema, err := database.Schema(testutil.DashboardDB)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

func TestUpsertTrade_SQLite3Driver(t *testing.T) {
	db := setupSQLite3DB(t)
	repo := NewRepository(db, nil, testutil.NopLogger())

	_, err := repo.UpsertTrade(sampleTrade())
	require.NoError(t, err)

	dup := sampleTrade()
	dup.Quantity += 1e-9
	dup.Status = "settled"
	inserted, err := repo.UpsertTrade(dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	trades, err := repo.RecentTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "settled", trades[0].Status)
}
