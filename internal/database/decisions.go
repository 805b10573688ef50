package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/models"
)

const decisionColumns = `id, symbol, exchange, timestamp, price_at_decision, decision, confidence,
	       technical_summary, fundamental_summary, sentiment_summary, final_summary, profit_loss`

// CreateDecision inserts a new decision row. The unique index on
// (symbol, day) makes a same-day duplicate insert fail, which keeps the
// one-decision-per-symbol-per-day invariant even when job runs overlap.
func (db *DB) CreateDecision(d *models.Decision) error {
	query := `
		INSERT INTO decisions (
			symbol, exchange, price_at_decision, decision, confidence,
			technical_summary, fundamental_summary, sentiment_summary, final_summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, timestamp
	`
	err := db.conn.QueryRow(query,
		d.Symbol, d.Exchange, d.PriceAtDecision, d.Decision, d.Confidence,
		d.TechnicalSummary, d.FundamentalSummary, d.SentimentSummary, d.FinalSummary,
	).Scan(&d.ID, &d.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to create decision for %s: %w", d.Symbol, err)
	}
	return nil
}

// GetDecisionForDay returns the decision for a symbol on the given calendar day
// (UTC), or nil if none exists yet.
func (db *DB) GetDecisionForDay(symbol string, day time.Time) (*models.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE symbol = $1 AND (timestamp AT TIME ZONE 'UTC')::date = ($2 AT TIME ZONE 'UTC')::date
		ORDER BY timestamp DESC
		LIMIT 1
	`
	d, err := scanDecision(db.conn.QueryRow(query, symbol, day.UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision for %s: %w", symbol, err)
	}
	return d, nil
}

// GetUnscoredDecisions returns all BUY/SELL decisions whose profit_loss has not
// been filled in yet. HOLD decisions are never scored.
func (db *DB) GetUnscoredDecisions() ([]*models.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE profit_loss IS NULL AND decision IN ('BUY', 'SELL')
		ORDER BY timestamp
	`
	return db.queryDecisions(query)
}

// SetProfitLoss fills in the realized profit/loss for a decision. The
// profit_loss IS NULL guard makes the column write-once: a second call for the
// same row reports false and changes nothing.
func (db *DB) SetProfitLoss(id int, pnl decimal.Decimal) (bool, error) {
	result, err := db.conn.Exec(
		`UPDATE decisions SET profit_loss = $1 WHERE id = $2 AND profit_loss IS NULL`,
		pnl, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set profit_loss for decision %d: %w", id, err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// GetRecentScoredDecisions returns the most recent decisions for a symbol that
// already have a realized profit/loss, newest first.
func (db *DB) GetRecentScoredDecisions(symbol string, limit int) ([]*models.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE symbol = $1 AND profit_loss IS NOT NULL
		ORDER BY timestamp DESC
		LIMIT $2
	`
	return db.queryDecisions(query, symbol, limit)
}

// GetLatestRecommendations returns the newest BUY/SELL decision per symbol from
// the last 72 hours.
func (db *DB) GetLatestRecommendations() ([]*models.Decision, error) {
	query := `
		SELECT DISTINCT ON (symbol) ` + decisionColumns + `
		FROM decisions
		WHERE decision IN ('BUY', 'SELL') AND timestamp > NOW() - INTERVAL '72 hours'
		ORDER BY symbol, timestamp DESC
	`
	return db.queryDecisions(query)
}

// GetPerformanceSummary aggregates the track record of all scored BUY/SELL decisions
func (db *DB) GetPerformanceSummary() (*models.PerformanceSummary, error) {
	summary := &models.PerformanceSummary{}

	var profitable int
	var avgPnl decimal.Decimal
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE profit_loss > 0),
		       COALESCE(AVG(profit_loss), 0)
		FROM decisions
		WHERE profit_loss IS NOT NULL AND decision IN ('BUY', 'SELL')
	`).Scan(&summary.TotalTrades, &profitable, &avgPnl)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance stats: %w", err)
	}

	if summary.TotalTrades == 0 {
		summary.WinRatePercent = decimal.Zero
		summary.AveragePnlPercent = decimal.Zero
		return summary, nil
	}

	winRate := decimal.NewFromInt(int64(profitable)).
		Div(decimal.NewFromInt(int64(summary.TotalTrades))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	summary.WinRatePercent = winRate
	summary.AveragePnlPercent = avgPnl.Round(2)

	best, err := db.queryDecisions(`
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE profit_loss IS NOT NULL
		ORDER BY profit_loss DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, err
	}
	if len(best) > 0 {
		summary.BestTrade = best[0]
	}

	worst, err := db.queryDecisions(`
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE profit_loss IS NOT NULL
		ORDER BY profit_loss ASC
		LIMIT 1
	`)
	if err != nil {
		return nil, err
	}
	if len(worst) > 0 {
		summary.WorstTrade = worst[0]
	}

	return summary, nil
}

func (db *DB) queryDecisions(query string, args ...interface{}) ([]*models.Decision, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*models.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row rowScanner) (*models.Decision, error) {
	var d models.Decision
	var pnl decimal.NullDecimal
	err := row.Scan(
		&d.ID, &d.Symbol, &d.Exchange, &d.Timestamp, &d.PriceAtDecision,
		&d.Decision, &d.Confidence,
		&d.TechnicalSummary, &d.FundamentalSummary, &d.SentimentSummary, &d.FinalSummary,
		&pnl,
	)
	if err != nil {
		return nil, err
	}
	if pnl.Valid {
		d.ProfitLoss = &pnl.Decimal
	}
	return &d, nil
}
