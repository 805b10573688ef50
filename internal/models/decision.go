package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision action constants
const (
	DecisionBuy  = "BUY"
	DecisionSell = "SELL"
	DecisionHold = "HOLD"
)

// Confidence level constants
const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
)

// Decision represents one persisted BUY/SELL/HOLD judgment for a symbol on one day.
// ProfitLoss stays nil until the reconciliation job scores the decision; once set
// it is never overwritten.
type Decision struct {
	ID                 int              `json:"id"`
	Symbol             string           `json:"symbol"`
	Exchange           string           `json:"exchange"`
	Timestamp          time.Time        `json:"timestamp"`
	PriceAtDecision    decimal.Decimal  `json:"price_at_decision"`
	Decision           string           `json:"decision"`
	Confidence         string           `json:"confidence"`
	TechnicalSummary   string           `json:"technical_summary"`
	FundamentalSummary string           `json:"fundamental_summary"`
	SentimentSummary   string           `json:"sentiment_summary"`
	FinalSummary       string           `json:"final_summary"`
	ProfitLoss         *decimal.Decimal `json:"profit_loss,omitempty"`
}

// DecisionEvent represents a Kafka event for decision lifecycle changes
type DecisionEvent struct {
	EventType  string           `json:"event_type"`
	Symbol     string           `json:"symbol"`
	Decision   *Decision        `json:"decision,omitempty"`
	ProfitLoss *decimal.Decimal `json:"profit_loss,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// AnalysisRequest is a Kafka message asking for an ad-hoc analysis of one symbol
type AnalysisRequest struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

// PerformanceSummary aggregates scored BUY/SELL decisions
type PerformanceSummary struct {
	WinRatePercent    decimal.Decimal `json:"win_rate_percent"`
	AveragePnlPercent decimal.Decimal `json:"average_pnl_percent"`
	TotalTrades       int             `json:"total_trades"`
	BestTrade         *Decision       `json:"best_trade,omitempty"`
	WorstTrade        *Decision       `json:"worst_trade,omitempty"`
}
