package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/database"
	"github.com/trogers1052/trading-agent/internal/market"
	"github.com/trogers1052/trading-agent/internal/models"
)

// Analyzer runs a single-symbol analysis unless today's decision already exists
type Analyzer interface {
	AnalyzeIfNeeded(ctx context.Context, symbol, exchange string) (*models.Decision, bool, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db       *database.DB
	market   *market.Client
	analyzer Analyzer
	indices  []string
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, mc *market.Client, analyzer Analyzer, indices []string) *Handler {
	return &Handler{
		db:       db,
		market:   mc,
		analyzer: analyzer,
		indices:  indices,
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateUser handles POST /users: create-or-login by username
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	user, err := h.db.CreateOrGetUser(req.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// AddToWatchlist handles POST /watchlist
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int    `json:"user_id"`
		Symbol   string `json:"symbol"`
		Exchange string `json:"exchange"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		http.Error(w, "user_id and symbol are required", http.StatusBadRequest)
		return
	}
	if req.Exchange == "" {
		req.Exchange = market.ExchangeNSE
	}

	entry := &models.WatchlistEntry{
		UserID:   req.UserID,
		Symbol:   market.FormatSymbol(req.Symbol, req.Exchange),
		Exchange: req.Exchange,
	}
	if err := h.db.AddWatchlistEntry(entry); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	watchlist, err := h.db.GetWatchlist(req.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"watchlist": watchlist})
}

// GetWatchlist handles GET /watchlist/{userID}
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	watchlist, err := h.db.GetWatchlist(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, watchlist)
}

// RemoveFromWatchlist handles DELETE /watchlist
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int    `json:"user_id"`
		Symbol   string `json:"symbol"`
		Exchange string `json:"exchange"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.RemoveWatchlistEntry(req.UserID, req.Symbol, req.Exchange); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": req.Symbol + " removed."})
}

// Analyze handles GET /analyze/{userID}/{symbol}: returns today's cached
// decision for the symbol, running a fresh analysis only if none exists.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = market.ExchangeNSE
	}

	decision, created, err := h.analyzer.AnalyzeIfNeeded(r.Context(), symbol, exchange)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cached":   !created,
		"analysis": decision,
	})
}

// LatestRecommendations handles GET /recommendations/latest
func (h *Handler) LatestRecommendations(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.db.GetLatestRecommendations()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, decisions)
}

// PerformanceSummary handles GET /performance/summary
func (h *Handler) PerformanceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.db.GetPerformanceSummary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// AddHolding handles POST /portfolio
func (h *Handler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        int             `json:"user_id"`
		Symbol        string          `json:"symbol"`
		Exchange      string          `json:"exchange"`
		Quantity      decimal.Decimal `json:"quantity"`
		PurchasePrice decimal.Decimal `json:"purchase_price"`
		PurchaseDate  string          `json:"purchase_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			http.Error(w, "invalid purchase_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		purchaseDate = parsed
	}

	holding := &models.PortfolioHolding{
		UserID:        req.UserID,
		Symbol:        market.FormatSymbol(req.Symbol, req.Exchange),
		Exchange:      req.Exchange,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  purchaseDate,
	}
	if err := h.db.CreateHolding(holding); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, holding)
}

// GetPortfolio handles GET /portfolio/{userID}
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	holdings, err := h.db.GetHoldingsByUser(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}

// RemoveHolding handles DELETE /portfolio/{holdingID}
func (h *Handler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	holdingID, err := pathInt(r, "holdingID")
	if err != nil {
		http.Error(w, "invalid holding id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteHolding(holdingID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IndicesSummary handles GET /indices/summary
func (h *Handler) IndicesSummary(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.market.FetchIndexQuotes(r.Context(), h.indices)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

// WeeklyForecasts handles GET /indices/weekly-forecast: current forecasts plus
// the most recent evaluations.
func (h *Handler) WeeklyForecasts(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.db.GetRecentForecasts(time.Now().AddDate(0, 0, -3))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	evaluations, err := h.db.GetRecentEvaluations(2)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"forecasts":   forecasts,
		"evaluations": evaluations,
	})
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
