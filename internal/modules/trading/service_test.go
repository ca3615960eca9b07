package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneDayPnL(t *testing.T) {
	pnl, ok := OneDayPnL(fp(1020), fp(2))
	require.True(t, ok)
	assert.InDelta(t, 20.0, pnl, 1e-9)

	_, ok = OneDayPnL(nil, fp(2))
	assert.False(t, ok)
	_, ok = OneDayPnL(fp(100), nil)
	assert.False(t, ok)
	_, ok = OneDayPnL(fp(100), fp(-100))
	assert.False(t, ok)
}

func TestLiveTotals_IgnoresPaperAndMissing(t *testing.T) {
	strategies := []Strategy{
		{Mode: ModeLive, Equity: fp(1020), Return1d: fp(2), Positions: fp(3)},
		{Mode: ModeLive, Equity: fp(500), Positions: fp(1)},
		{Mode: ModePaper, Equity: fp(10000), Return1d: fp(10), Positions: fp(7)},
	}

	equity, pnl, positions := LiveTotals(strategies)
	assert.Equal(t, 1520.0, equity)
	assert.InDelta(t, 20.0, pnl, 1e-9)
	assert.Equal(t, 4.0, positions)
}

func TestVisiblePositions(t *testing.T) {
	rows := VisiblePositions([]Position{
		{Symbol: "A", Notional: fp(10)},
		{Symbol: "B", ActualWt: fp(-0.5), Drift: fp(-1.5)},
		{Symbol: "C", ActualWt: fp(0.05), Notional: fp(0)},
		{Symbol: "D"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Symbol)
	assert.Equal(t, "B", rows[1].Symbol)
	assert.Equal(t, 1.5, rows[1].DriftMagnitude)

	assert.NotNil(t, VisiblePositions(nil))
}

func TestNewSparkline(t *testing.T) {
	assert.Nil(t, NewSparkline([]EquityPoint{{Date: "2025-01-01", Value: 1}}))

	var curve []EquityPoint
	for i, v := range []float64{100, 90, 95, 96, 97, 98, 99, 101, 102} {
		curve = append(curve, EquityPoint{Date: "2025-01-0" + string(rune('1'+i)), Value: v})
	}

	spark := NewSparkline(curve)
	require.NotNil(t, spark)
	require.Len(t, spark.Points, 7)
	assert.Equal(t, 95.0, spark.Points[0].Value)
	assert.Equal(t, "up", spark.Trend)
	require.Len(t, spark.SMA, 7)
	assert.Nil(t, spark.SMA[1])
	require.NotNil(t, spark.SMA[2])
	assert.InDelta(t, 96.0, *spark.SMA[2], 1e-9)

	down := NewSparkline([]EquityPoint{{Value: 10}, {Value: 9}})
	require.NotNil(t, down)
	assert.Equal(t, "down", down.Trend)
	assert.Nil(t, down.SMA, "too short for the overlay")
}

func TestNewCurveStats(t *testing.T) {
	assert.Nil(t, NewCurveStats(nil))

	stats := NewCurveStats([]EquityPoint{{Value: 100}, {Value: 110}, {Value: 99}})
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.Points)
	assert.InDelta(t, 0.0, stats.MeanDailyReturn, 1e-12)
	assert.InDelta(t, -0.1, stats.MaxDrawdown, 1e-12)
	assert.Greater(t, stats.StdDailyReturn, 0.0)
}

func TestGroupTradesByDate(t *testing.T) {
	trades := []Trade{
		{ID: 4, Date: "2025-01-04", Quantity: 2, Price: 10},
		{ID: 3, Date: "2025-01-06", Quantity: 1, Price: 5, Notional: fp(7)},
		{ID: 2, Date: "2025-01-04", Quantity: 1, Price: 1},
		{ID: 1, Date: "2025-01-05", Quantity: 1, Price: 1},
	}

	days := GroupTradesByDate(trades)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-01-06", days[0].Date)
	assert.Equal(t, "2025-01-05", days[1].Date)
	assert.Equal(t, "2025-01-04", days[2].Date)

	assert.Equal(t, 7.0, days[0].Trades[0].DisplayNotional, "reported notional wins")
	require.Len(t, days[2].Trades, 2)
	assert.Equal(t, int64(4), days[2].Trades[0].ID, "input order kept within a date")
	assert.Equal(t, 20.0, days[2].Trades[0].DisplayNotional, "falls back to quantity*price")
}

func TestBuildView(t *testing.T) {
	view := BuildView(nil, nil)
	assert.NotNil(t, view.Live)
	assert.NotNil(t, view.Paper)
	assert.NotNil(t, view.TradeDays)
	assert.Nil(t, view.LiveSparkline)

	view = BuildView([]Strategy{
		{StrategyID: "l", Mode: ModeLive, Equity: fp(1020), Return1d: fp(2),
			EquityCurve: []EquityPoint{{Value: 1}, {Value: 2}}},
		{StrategyID: "p", Mode: ModePaper},
	}, []Trade{{Date: "2025-01-01", Quantity: 1, Price: 2}})

	require.Len(t, view.Live, 1)
	require.Len(t, view.Paper, 1)
	assert.Equal(t, 1020.0, view.TotalLiveEquity)
	assert.InDelta(t, 20.0, view.PnL1d, 1e-9)
	require.NotNil(t, view.LiveSparkline)
	assert.Nil(t, view.PaperSparkline)
	require.NotNil(t, view.Live[0].CurveStats)
	assert.Len(t, view.TradeDays, 1)
}

func TestService_GetView(t *testing.T) {
	repo, _ := newTestRepository(t)
	service := NewService(repo, repo.log)

	require.NoError(t, repo.UpsertStrategy(&Strategy{StrategyID: "l1", Name: "L", Mode: ModeLive, Exchange: "x",
		ReportDate: "2025-01-05", Equity: fp(200)}))
	_, err := repo.UpsertTrade(sampleTrade())
	require.NoError(t, err)

	view, err := service.GetView()
	require.NoError(t, err)
	assert.Equal(t, 200.0, view.TotalLiveEquity)
	require.Len(t, view.TradeDays, 1)
	assert.InDelta(t, 0.015*95000, view.TradeDays[0].Trades[0].DisplayNotional, 1e-9)
}
