package database

import (
	"fmt"

	"github.com/trogers1052/trading-agent/internal/models"
)

// CreateHolding inserts a new portfolio holding
func (db *DB) CreateHolding(h *models.PortfolioHolding) error {
	query := `
		INSERT INTO portfolio_holdings (user_id, symbol, exchange, quantity, purchase_price, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := db.conn.QueryRow(query,
		h.UserID, h.Symbol, h.Exchange, h.Quantity, h.PurchasePrice, h.PurchaseDate,
	).Scan(&h.ID, &h.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

// GetHoldingsByUser retrieves all holdings for a user
func (db *DB) GetHoldingsByUser(userID int) ([]*models.PortfolioHolding, error) {
	query := `
		SELECT id, user_id, symbol, exchange, quantity, purchase_price, purchase_date, created_at
		FROM portfolio_holdings
		WHERE user_id = $1
		ORDER BY symbol
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.PortfolioHolding
	for rows.Next() {
		var h models.PortfolioHolding
		err := rows.Scan(
			&h.ID, &h.UserID, &h.Symbol, &h.Exchange,
			&h.Quantity, &h.PurchasePrice, &h.PurchaseDate, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}
	return holdings, nil
}

// DeleteHolding removes a holding by ID
func (db *DB) DeleteHolding(id int) error {
	result, err := db.conn.Exec(`DELETE FROM portfolio_holdings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("holding not found: %d", id)
	}
	return nil
}
