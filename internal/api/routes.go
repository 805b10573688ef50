package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// User routes
	api.HandleFunc("/users", handler.CreateUser).Methods("POST")

	// Watchlist routes
	api.HandleFunc("/watchlist", handler.AddToWatchlist).Methods("POST")
	api.HandleFunc("/watchlist", handler.RemoveFromWatchlist).Methods("DELETE")
	api.HandleFunc("/watchlist/{userID}", handler.GetWatchlist).Methods("GET")

	// Analysis routes
	api.HandleFunc("/analyze/{userID}/{symbol}", handler.Analyze).Methods("GET")
	api.HandleFunc("/recommendations/latest", handler.LatestRecommendations).Methods("GET")
	api.HandleFunc("/performance/summary", handler.PerformanceSummary).Methods("GET")

	// Portfolio routes
	api.HandleFunc("/portfolio", handler.AddHolding).Methods("POST")
	api.HandleFunc("/portfolio/{userID}", handler.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/{holdingID}", handler.RemoveHolding).Methods("DELETE")

	// Index routes
	api.HandleFunc("/indices/summary", handler.IndicesSummary).Methods("GET")
	api.HandleFunc("/indices/weekly-forecast", handler.WeeklyForecasts).Methods("GET")

	return r
}
