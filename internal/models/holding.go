package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioHolding is a user-owned record of an actual position, independent of
// the recommendation pipeline
type PortfolioHolding struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	Symbol        string          `json:"symbol"`
	Exchange      string          `json:"exchange"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	CreatedAt     time.Time       `json:"created_at"`
}
