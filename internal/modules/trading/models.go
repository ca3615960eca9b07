// Package trading stores strategy snapshots and the deduplicated trade log,
// and builds the trading page view.
package trading

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/mission-control/internal/utils"
)

// Strategy modes.
const (
	ModeLive  = "live"
	ModePaper = "paper"
)

// EquityPoint is one date->value sample of an equity curve.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Position is one symbol in a strategy's position breakdown.
type Position struct {
	Symbol        string   `json:"symbol"`
	TargetWt      *float64 `json:"targetWt,omitempty"`
	ActualWt      *float64 `json:"actualWt,omitempty"`
	Drift         *float64 `json:"drift,omitempty"`
	Notional      *float64 `json:"notional,omitempty"`
	UnrealizedPnl *float64 `json:"unrealizedPnl,omitempty"`
	Side          *string  `json:"side,omitempty"`
}

// Strategy is the latest snapshot of one trading strategy.
type Strategy struct {
	StrategyID        string        `json:"strategyId"`
	Name              string        `json:"name"`
	Mode              string        `json:"mode"`
	Exchange          string        `json:"exchange"`
	Equity            *float64      `json:"equity,omitempty"`
	PnL               *float64      `json:"pnl,omitempty"`
	PnLPct            *float64      `json:"pnlPct,omitempty"`
	Return1d          *float64      `json:"return1d,omitempty"`
	Return7d          *float64      `json:"return7d,omitempty"`
	Return30d         *float64      `json:"return30d,omitempty"`
	ReturnItd         *float64      `json:"returnItd,omitempty"`
	Sharpe            *float64      `json:"sharpe,omitempty"`
	MaxDrawdown       *float64      `json:"maxDrawdown,omitempty"`
	WinRate           *float64      `json:"winRate,omitempty"`
	Positions         *float64      `json:"positions,omitempty"`
	NetExposure       *string       `json:"netExposure,omitempty"`
	EquityCurve       []EquityPoint `json:"equityCurve"`
	PositionBreakdown []Position    `json:"positionBreakdown"`
	ReportDate        string        `json:"reportDate"`
	UpdatedAt         int64         `json:"updatedAt"`
}

// Validate checks required fields.
func (s *Strategy) Validate() error {
	if strings.TrimSpace(s.StrategyID) == "" {
		return fmt.Errorf("strategyId is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if s.Mode != ModeLive && s.Mode != ModePaper {
		return fmt.Errorf("mode must be %q or %q", ModeLive, ModePaper)
	}
	if strings.TrimSpace(s.Exchange) == "" {
		return fmt.Errorf("exchange is required")
	}
	if err := utils.ValidateDate(s.ReportDate); err != nil {
		return fmt.Errorf("reportDate: %w", err)
	}
	for _, p := range s.EquityCurve {
		if err := utils.ValidateDate(p.Date); err != nil {
			return fmt.Errorf("equityCurve: %w", err)
		}
	}
	return nil
}

// Trade is one fill in the trade log.
type Trade struct {
	ID         int64    `json:"id"`
	StrategyID string   `json:"strategyId"`
	Date       string   `json:"date"`
	Timestamp  string   `json:"timestamp"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`
	Notional   *float64 `json:"notional,omitempty"`
	Fee        *float64 `json:"fee,omitempty"`
	Status     string   `json:"status"`
	UpdatedAt  int64    `json:"updatedAt"`
}

// Validate checks required fields.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.StrategyID) == "" {
		return fmt.Errorf("strategyId is required")
	}
	if err := utils.ValidateDate(t.Date); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if strings.TrimSpace(t.Timestamp) == "" {
		return fmt.Errorf("timestamp is required")
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if strings.TrimSpace(t.Side) == "" {
		return fmt.Errorf("side is required")
	}
	if strings.TrimSpace(t.Status) == "" {
		return fmt.Errorf("status is required")
	}
	if math.IsNaN(t.Quantity) || math.IsInf(t.Quantity, 0) || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		return fmt.Errorf("quantity and price must be finite")
	}
	return nil
}

// EffectiveNotional is the reported notional, or quantity*price when absent.
func (t *Trade) EffectiveNotional() float64 {
	if t.Notional != nil {
		return *t.Notional
	}
	return t.Quantity * t.Price
}
