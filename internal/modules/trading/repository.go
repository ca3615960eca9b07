package trading

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/rs/zerolog"
)

// DefaultDedupEpsilon is the quantity tolerance under which two trades sharing the
// dedup key are the same fill.
const DefaultDedupEpsilon = 1e-7

// DedupKeyColumns are the exact-match columns of the trade dedup key; quantity is
// compared separately within the epsilon.
var DedupKeyColumns = []string{"strategy_id", "date", "symbol", "side"}

var dedupWhere = strings.Join(DedupKeyColumns, " = ? AND ") + " = ?"

// dedupKey returns t's values in DedupKeyColumns order.
func (t *Trade) dedupKey() []interface{} {
	return []interface{}{t.StrategyID, t.Date, t.Symbol, t.Side}
}

// DefaultRecentTrades is the RecentTrades limit when none is given.
const DefaultRecentTrades = 50

const strategyColumns = `strategy_id, name, mode, exchange, equity, pnl, pnl_pct, return_1d, return_7d,
	return_30d, return_itd, sharpe, max_drawdown, win_rate, positions, net_exposure, equity_curve,
	position_breakdown, report_date, updated_at`

const tradeColumns = `id, strategy_id, date, timestamp, symbol, side, quantity, price, notional, fee, status, updated_at`

// Repository handles trading_strategies and trade_log
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	epsilon      float64
	log          zerolog.Logger
}

// NewRepository creates a new trading repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		epsilon:      DefaultDedupEpsilon,
		log:          log.With().Str("repo", "trading").Logger(),
	}
}

// SetDedupEpsilon overrides the trade dedup quantity tolerance. Negative values are ignored.
func (r *Repository) SetDedupEpsilon(epsilon float64) {
	if epsilon >= 0 {
		r.epsilon = epsilon
	}
}

// UpsertStrategy replaces the strategy row for s.StrategyID.
func (r *Repository) UpsertStrategy(s *Strategy) error {
	if err := s.Validate(); err != nil {
		return err
	}

	curve := s.EquityCurve
	if curve == nil {
		curve = []EquityPoint{}
	}
	curveJSON, err := json.Marshal(curve)
	if err != nil {
		return fmt.Errorf("failed to marshal equity curve: %w", err)
	}
	breakdown := s.PositionBreakdown
	if breakdown == nil {
		breakdown = []Position{}
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal position breakdown: %w", err)
	}

	now := database.NowMillis()
	_, err = r.db.Exec(`
		INSERT INTO trading_strategies (`+strategyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(strategy_id) DO UPDATE SET
			name = excluded.name,
			mode = excluded.mode,
			exchange = excluded.exchange,
			equity = excluded.equity,
			pnl = excluded.pnl,
			pnl_pct = excluded.pnl_pct,
			return_1d = excluded.return_1d,
			return_7d = excluded.return_7d,
			return_30d = excluded.return_30d,
			return_itd = excluded.return_itd,
			sharpe = excluded.sharpe,
			max_drawdown = excluded.max_drawdown,
			win_rate = excluded.win_rate,
			positions = excluded.positions,
			net_exposure = excluded.net_exposure,
			equity_curve = excluded.equity_curve,
			position_breakdown = excluded.position_breakdown,
			report_date = excluded.report_date,
			updated_at = excluded.updated_at
	`, s.StrategyID, s.Name, s.Mode, s.Exchange, s.Equity, s.PnL, s.PnLPct, s.Return1d, s.Return7d,
		s.Return30d, s.ReturnItd, s.Sharpe, s.MaxDrawdown, s.WinRate, s.Positions, s.NetExposure,
		string(curveJSON), string(breakdownJSON), s.ReportDate, now)
	if err != nil {
		return fmt.Errorf("failed to upsert strategy: %w", err)
	}
	s.UpdatedAt = now
	s.EquityCurve = curve
	s.PositionBreakdown = breakdown

	r.eventManager.Emit(events.StrategyUpdated, "trading", map[string]interface{}{
		"strategy_id": s.StrategyID,
		"mode":        s.Mode,
	})
	return nil
}

// ListStrategies returns live strategies first, then paper, each by name (case-insensitive).
func (r *Repository) ListStrategies() ([]Strategy, error) {
	rows, err := r.db.Query(`
		SELECT ` + strategyColumns + `
		FROM trading_strategies
		ORDER BY CASE WHEN mode = 'live' THEN 0 ELSE 1 END, name COLLATE NOCASE, strategy_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	result := []Strategy{}
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategies: %w", err)
	}

	return result, nil
}

// GetStrategy returns one strategy, or nil if unknown.
func (r *Repository) GetStrategy(strategyID string) (*Strategy, error) {
	row := r.db.QueryRow(`SELECT `+strategyColumns+` FROM trading_strategies WHERE strategy_id = ?`, strategyID)
	s, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy %s: %w", strategyID, err)
	}
	return s, nil
}

// UpsertTrade stores a fill. A row with the same strategy/date/symbol/side whose quantity
// is within the epsilon is patched in place with t's values; otherwise t is appended.
// Returns true when a new row was inserted.
func (r *Repository) UpsertTrade(t *Trade) (inserted bool, err error) {
	if err := t.Validate(); err != nil {
		return false, err
	}

	now := database.NowMillis()
	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT id, quantity FROM trade_log WHERE `+dedupWhere+` ORDER BY id`, t.dedupKey()...)
		if err != nil {
			return fmt.Errorf("failed to query trade candidates: %w", err)
		}

		var existingID int64
		found := false
		for rows.Next() {
			var id int64
			var qty float64
			if err := rows.Scan(&id, &qty); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan trade candidate: %w", err)
			}
			if !found && math.Abs(qty-t.Quantity) < r.epsilon {
				existingID = id
				found = true
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error iterating trade candidates: %w", err)
		}
		rows.Close()

		if found {
			_, err := tx.Exec(`
				UPDATE trade_log SET
					timestamp = ?, quantity = ?, price = ?, notional = ?, fee = ?, status = ?, updated_at = ?
				WHERE id = ?
			`, t.Timestamp, t.Quantity, t.Price, t.Notional, t.Fee, t.Status, now, existingID)
			if err != nil {
				return fmt.Errorf("failed to patch trade: %w", err)
			}
			t.ID = existingID
			return nil
		}

		res, err := tx.Exec(`
			INSERT INTO trade_log
				(strategy_id, date, timestamp, symbol, side, quantity, price, notional, fee, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.StrategyID, t.Date, t.Timestamp, t.Symbol, t.Side, t.Quantity, t.Price, t.Notional, t.Fee, t.Status, now)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read trade id: %w", err)
		}
		t.ID = id
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	t.UpdatedAt = now

	r.log.Debug().
		Str("strategy_id", t.StrategyID).
		Str("symbol", t.Symbol).
		Bool("inserted", inserted).
		Msg("Trade stored")
	r.eventManager.Emit(events.TradeLogged, "trading", map[string]interface{}{
		"strategy_id": t.StrategyID,
		"symbol":      t.Symbol,
		"side":        t.Side,
		"inserted":    inserted,
	})
	return inserted, nil
}

// RecentTrades returns the newest trades first (by insertion order). limit <= 0 means DefaultRecentTrades.
func (r *Repository) RecentTrades(limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = DefaultRecentTrades
	}

	rows, err := r.db.Query(`SELECT `+tradeColumns+` FROM trade_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent trades: %w", err)
	}
	defer rows.Close()

	result := []Trade{}
	for rows.Next() {
		var t Trade
		var notional, fee sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.StrategyID, &t.Date, &t.Timestamp, &t.Symbol, &t.Side,
			&t.Quantity, &t.Price, &notional, &fee, &t.Status, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Notional = nullFloat(notional)
		t.Fee = nullFloat(fee)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStrategy(row scanner) (*Strategy, error) {
	var s Strategy
	var equity, pnl, pnlPct, r1d, r7d, r30d, ritd, sharpe, maxDD, winRate, positions sql.NullFloat64
	var netExposure sql.NullString
	var curve, breakdown string

	if err := row.Scan(&s.StrategyID, &s.Name, &s.Mode, &s.Exchange, &equity, &pnl, &pnlPct,
		&r1d, &r7d, &r30d, &ritd, &sharpe, &maxDD, &winRate, &positions, &netExposure,
		&curve, &breakdown, &s.ReportDate, &s.UpdatedAt); err != nil {
		return nil, err
	}

	s.Equity = nullFloat(equity)
	s.PnL = nullFloat(pnl)
	s.PnLPct = nullFloat(pnlPct)
	s.Return1d = nullFloat(r1d)
	s.Return7d = nullFloat(r7d)
	s.Return30d = nullFloat(r30d)
	s.ReturnItd = nullFloat(ritd)
	s.Sharpe = nullFloat(sharpe)
	s.MaxDrawdown = nullFloat(maxDD)
	s.WinRate = nullFloat(winRate)
	s.Positions = nullFloat(positions)
	if netExposure.Valid {
		s.NetExposure = &netExposure.String
	}

	if err := json.Unmarshal([]byte(curve), &s.EquityCurve); err != nil {
		return nil, fmt.Errorf("failed to unmarshal equity curve: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdown), &s.PositionBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position breakdown: %w", err)
	}
	return &s, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
