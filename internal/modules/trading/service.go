package trading

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/mission-control/pkg/formulas"
	"github.com/rs/zerolog"
)

const (
	// sparklinePoints is how many trailing equity points the sparkline shows.
	sparklinePoints = 7
	// sparklineSMALength is the moving-average overlay window.
	sparklineSMALength = 3
	// visibleWeightFloor hides dust positions (weights are percentages).
	visibleWeightFloor = 0.1
	// ViewTradeLimit is how many recent trades the page timeline shows.
	ViewTradeLimit = 30
)

// Sparkline is the trailing equity curve with a moving-average overlay.
type Sparkline struct {
	Points []EquityPoint `json:"points"`
	SMA    []*float64    `json:"sma"`
	Trend  string        `json:"trend"` // "up" or "down"
}

// CurveStats are statistics derived from the full equity curve.
type CurveStats struct {
	Points          int     `json:"points"`
	MeanDailyReturn float64 `json:"meanDailyReturn"`
	StdDailyReturn  float64 `json:"stdDailyReturn"`
	MaxDrawdown     float64 `json:"maxDrawdown"`
}

// PositionRow is a visible position with its absolute drift.
type PositionRow struct {
	Position
	DriftMagnitude float64 `json:"driftMagnitude"`
}

// StrategyCard is one strategy as shown on the page.
type StrategyCard struct {
	Strategy
	VisiblePositions []PositionRow `json:"visiblePositions"`
	Sparkline        *Sparkline    `json:"sparkline,omitempty"`
	CurveStats       *CurveStats   `json:"curveStats,omitempty"`
}

// TradeRow is a trade with its display notional.
type TradeRow struct {
	Trade
	DisplayNotional float64 `json:"displayNotional"`
}

// TradeDay groups the trades of one date.
type TradeDay struct {
	Date   string     `json:"date"`
	Trades []TradeRow `json:"trades"`
}

// View is the trading page aggregate.
type View struct {
	Live            []StrategyCard `json:"live"`
	Paper           []StrategyCard `json:"paper"`
	TotalLiveEquity float64        `json:"totalLiveEquity"`
	PnL1d           float64        `json:"pnl1d"`
	TotalPositions  float64        `json:"totalPositions"`
	LiveSparkline   *Sparkline     `json:"liveSparkline,omitempty"`
	PaperSparkline  *Sparkline     `json:"paperSparkline,omitempty"`
	TradeDays       []TradeDay     `json:"tradeDays"`
}

// OneDayPnL converts a percentage 1d return on current equity back to currency:
// equity*r/(100+r). ok is false when either input is missing.
func OneDayPnL(equity, return1d *float64) (pnl float64, ok bool) {
	if equity == nil || return1d == nil {
		return 0, false
	}
	denom := 100 + *return1d
	if denom == 0 {
		return 0, false
	}
	return *equity * *return1d / denom, true
}

// LiveTotals sums equity, 1d PnL and positions over live strategies.
func LiveTotals(strategies []Strategy) (equity, pnl1d, positions float64) {
	for _, s := range strategies {
		if s.Mode != ModeLive {
			continue
		}
		if s.Equity != nil {
			equity += *s.Equity
		}
		if p, ok := OneDayPnL(s.Equity, s.Return1d); ok {
			pnl1d += p
		}
		if s.Positions != nil {
			positions += *s.Positions
		}
	}
	return equity, pnl1d, positions
}

// VisiblePositions keeps positions with notional > 0 or |actualWt| > 0.1.
func VisiblePositions(breakdown []Position) []PositionRow {
	rows := []PositionRow{}
	for _, p := range breakdown {
		notional := deref(p.Notional)
		actual := deref(p.ActualWt)
		if notional > 0 || math.Abs(actual) > visibleWeightFloor {
			rows = append(rows, PositionRow{Position: p, DriftMagnitude: math.Abs(deref(p.Drift))})
		}
	}
	return rows
}

// NewSparkline builds the trailing sparkline; nil when the curve has fewer than 2 points.
func NewSparkline(curve []EquityPoint) *Sparkline {
	if len(curve) < 2 {
		return nil
	}
	start := 0
	if len(curve) > sparklinePoints {
		start = len(curve) - sparklinePoints
	}
	points := append([]EquityPoint(nil), curve[start:]...)

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	trend := "down"
	if values[len(values)-1] >= values[0] {
		trend = "up"
	}

	return &Sparkline{
		Points: points,
		SMA:    formulas.SMASeries(values, sparklineSMALength),
		Trend:  trend,
	}
}

// NewCurveStats derives return statistics from the curve; nil with fewer than 2 points.
func NewCurveStats(curve []EquityPoint) *CurveStats {
	if len(curve) < 2 {
		return nil
	}
	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	returns := formulas.CalculateReturns(values)

	return &CurveStats{
		Points:          len(curve),
		MeanDailyReturn: formulas.Mean(returns),
		StdDailyReturn:  formulas.StdDev(returns),
		MaxDrawdown:     formulas.MaxDrawdown(values),
	}
}

// GroupTradesByDate groups trades by date, newest date first, keeping input order within a date.
func GroupTradesByDate(trades []Trade) []TradeDay {
	index := make(map[string]int)
	days := []TradeDay{}
	for _, t := range trades {
		i, ok := index[t.Date]
		if !ok {
			i = len(days)
			index[t.Date] = i
			days = append(days, TradeDay{Date: t.Date, Trades: []TradeRow{}})
		}
		days[i].Trades = append(days[i].Trades, TradeRow{Trade: t, DisplayNotional: t.EffectiveNotional()})
	}
	sort.SliceStable(days, func(a, b int) bool { return days[a].Date > days[b].Date })
	return days
}

// BuildView folds strategies and recent trades into the trading page.
func BuildView(strategies []Strategy, trades []Trade) View {
	view := View{
		Live:      []StrategyCard{},
		Paper:     []StrategyCard{},
		TradeDays: GroupTradesByDate(trades),
	}
	view.TotalLiveEquity, view.PnL1d, view.TotalPositions = LiveTotals(strategies)

	for _, s := range strategies {
		card := StrategyCard{
			Strategy:         s,
			VisiblePositions: VisiblePositions(s.PositionBreakdown),
			Sparkline:        NewSparkline(s.EquityCurve),
			CurveStats:       NewCurveStats(s.EquityCurve),
		}
		switch s.Mode {
		case ModeLive:
			view.Live = append(view.Live, card)
		case ModePaper:
			view.Paper = append(view.Paper, card)
		}
	}

	if len(view.Live) > 0 {
		view.LiveSparkline = view.Live[0].Sparkline
	}
	if len(view.Paper) > 0 {
		view.PaperSparkline = view.Paper[0].Sparkline
	}
	return view
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Service builds the trading page view
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new trading service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "trading").Logger(),
	}
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// GetView loads strategies and the recent trade timeline.
func (s *Service) GetView() (*View, error) {
	strategies, err := s.repo.ListStrategies()
	if err != nil {
		return nil, fmt.Errorf("failed to load strategies: %w", err)
	}
	trades, err := s.repo.RecentTrades(ViewTradeLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	view := BuildView(strategies, trades)
	return &view, nil
}
