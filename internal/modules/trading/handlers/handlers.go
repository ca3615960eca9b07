// Package handlers provides HTTP handlers for strategies and the trade log.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/mission-control/internal/modules/trading"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxTradeLimit = 500

// Handler handles trading HTTP requests
type Handler struct {
	service *trading.Service
	log     zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(service *trading.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// HandleUpsertStrategy handles POST /api/trading/strategies
func (h *Handler) HandleUpsertStrategy(w http.ResponseWriter, r *http.Request) {
	var strategy trading.Strategy
	if err := json.NewDecoder(r.Body).Decode(&strategy); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := strategy.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Repository().UpsertStrategy(&strategy); err != nil {
		h.log.Error().Err(err).Str("strategy_id", strategy.StrategyID).Msg("Failed to upsert strategy")
		http.Error(w, "Failed to store strategy", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, strategy)
}

// HandleListStrategies handles GET /api/trading/strategies
func (h *Handler) HandleListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.service.Repository().ListStrategies()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list strategies")
		http.Error(w, "Failed to list strategies", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, strategies)
}

// HandleGetStrategy handles GET /api/trading/strategies/{strategyId}
func (h *Handler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyId")

	strategy, err := h.service.Repository().GetStrategy(strategyID)
	if err != nil {
		h.log.Error().Err(err).Str("strategy_id", strategyID).Msg("Failed to get strategy")
		http.Error(w, "Failed to get strategy", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, strategy)
}

// HandleUpsertTrade handles POST /api/trading/trades
func (h *Handler) HandleUpsertTrade(w http.ResponseWriter, r *http.Request) {
	var trade trading.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := trade.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inserted, err := h.service.Repository().UpsertTrade(&trade)
	if err != nil {
		h.log.Error().Err(err).Str("strategy_id", trade.StrategyID).Msg("Failed to upsert trade")
		http.Error(w, "Failed to store trade", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"trade":    trade,
		"inserted": inserted,
	})
}

// HandleRecentTrades handles GET /api/trading/trades?limit=
func (h *Handler) HandleRecentTrades(w http.ResponseWriter, r *http.Request) {
	limit := trading.DefaultRecentTrades
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, maxTradeLimit)
		}
	}

	trades, err := h.service.Repository().RecentTrades(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get recent trades")
		http.Error(w, "Failed to get recent trades", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, trades)
}

// HandleGetView handles GET /api/trading/view
func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetView()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build trading view")
		http.Error(w, "Failed to build trading view", http.StatusInternalServerError)
		return
	}

	h.respond(w, http.StatusOK, view)
}

func (h *Handler) respond(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
