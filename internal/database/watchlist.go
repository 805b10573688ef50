package database

import (
	"fmt"

	"github.com/trogers1052/trading-agent/internal/models"
)

// AddWatchlistEntry adds a symbol to a user's watchlist. Adding the same tuple
// twice is a no-op.
func (db *DB) AddWatchlistEntry(e *models.WatchlistEntry) error {
	query := `
		INSERT INTO watchlist (user_id, symbol, exchange)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := db.conn.Exec(query, e.UserID, e.Symbol, e.Exchange)
	if err != nil {
		return fmt.Errorf("failed to add watchlist entry: %w", err)
	}
	return nil
}

// GetWatchlist retrieves all watchlist entries for a user
func (db *DB) GetWatchlist(userID int) ([]*models.WatchlistEntry, error) {
	query := `
		SELECT user_id, symbol, exchange, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY symbol
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchlistEntry
	for rows.Next() {
		var e models.WatchlistEntry
		if err := rows.Scan(&e.UserID, &e.Symbol, &e.Exchange, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// RemoveWatchlistEntry removes a symbol from a user's watchlist
func (db *DB) RemoveWatchlistEntry(userID int, symbol, exchange string) error {
	query := `DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2 AND exchange = $3`
	result, err := db.conn.Exec(query, userID, symbol, exchange)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	return nil
}

// GetDistinctWatchedSymbols returns every (symbol, exchange) pair present in any
// user's watchlist, deduplicated. This drives the daily recommendation job.
func (db *DB) GetDistinctWatchedSymbols() ([]models.WatchedSymbol, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT symbol, exchange FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to get watched symbols: %w", err)
	}
	defer rows.Close()

	var symbols []models.WatchedSymbol
	for rows.Next() {
		var s models.WatchedSymbol
		if err := rows.Scan(&s.Symbol, &s.Exchange); err != nil {
			return nil, fmt.Errorf("failed to scan watched symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, nil
}
