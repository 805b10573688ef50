package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trading-agent/internal/models"
)

func newTestDecision(symbol, action string) *models.Decision {
	return &models.Decision{
		Symbol:             symbol,
		Exchange:           "NSE",
		Timestamp:          time.Now().UTC(),
		PriceAtDecision:    decimal.NewFromFloat(2500.50),
		Decision:           action,
		Confidence:         models.ConfidenceHigh,
		TechnicalSummary:   "RSI is neutral, MACD crossover is bullish.",
		FundamentalSummary: "P/E ratio is reasonable for the sector.",
		SentimentSummary:   "Sentiment is mildly negative.",
		FinalSummary:       "Technical strength outweighs weak sentiment.",
	}
}

func TestDecisionsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateDecision assigns id and timestamp", func(t *testing.T) {
		testDB.TruncateAll(t)

		d := newTestDecision("RELIANCE.NS", models.DecisionBuy)
		err := testDB.CreateDecision(d)
		require.NoError(t, err)
		assert.NotZero(t, d.ID)
		assert.False(t, d.Timestamp.IsZero())
	})

	t.Run("second decision for same symbol and day is rejected", func(t *testing.T) {
		testDB.TruncateAll(t)

		first := newTestDecision("RELIANCE.NS", models.DecisionBuy)
		require.NoError(t, testDB.CreateDecision(first))

		second := newTestDecision("RELIANCE.NS", models.DecisionSell)
		err := testDB.CreateDecision(second)
		assert.Error(t, err, "unique index should reject a second decision for the same day")

		// A different symbol on the same day is fine
		other := newTestDecision("TCS.NS", models.DecisionHold)
		assert.NoError(t, testDB.CreateDecision(other))
	})

	t.Run("GetDecisionForDay finds today's decision", func(t *testing.T) {
		testDB.TruncateAll(t)

		d := newTestDecision("RELIANCE.NS", models.DecisionBuy)
		require.NoError(t, testDB.CreateDecision(d))

		found, err := testDB.GetDecisionForDay("RELIANCE.NS", time.Now().UTC())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, d.ID, found.ID)
		assert.Equal(t, models.DecisionBuy, found.Decision)
		assert.True(t, decimal.NewFromFloat(2500.50).Equal(found.PriceAtDecision))
		assert.Nil(t, found.ProfitLoss)
	})

	t.Run("GetDecisionForDay returns nil for other days", func(t *testing.T) {
		testDB.TruncateAll(t)

		d := newTestDecision("RELIANCE.NS", models.DecisionBuy)
		require.NoError(t, testDB.CreateDecision(d))

		found, err := testDB.GetDecisionForDay("RELIANCE.NS", time.Now().UTC().AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = testDB.GetDecisionForDay("TCS.NS", time.Now().UTC())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("GetUnscoredDecisions excludes HOLD and scored rows", func(t *testing.T) {
		testDB.TruncateAll(t)

		buy := newTestDecision("RELIANCE.NS", models.DecisionBuy)
		require.NoError(t, testDB.CreateDecision(buy))

		sell := newTestDecision("TCS.NS", models.DecisionSell)
		require.NoError(t, testDB.CreateDecision(sell))

		hold := newTestDecision("INFY.NS", models.DecisionHold)
		require.NoError(t, testDB.CreateDecision(hold))

		scored := newTestDecision("HDFCBANK.NS", models.DecisionBuy)
		require.NoError(t, testDB.CreateDecision(scored))
		ok, err := testDB.SetProfitLoss(scored.ID, decimal.NewFromFloat(1.25))
		require.NoError(t, err)
		require.True(t, ok)

		unscored, err := testDB.GetUnscoredDecisions()
		require.NoError(t, err)
		require.Len(t, unscored, 2)

		symbols := []string{unscored[0].Symbol, unscored[1].Symbol}
		assert.Contains(t, symbols, "RELIANCE.NS")
		assert.Contains(t, symbols, "TCS.NS")
	})

	t.Run("SetProfitLoss is write-once", func(t *testing.T) {
		testDB.TruncateAll(t)

		d := newTestDecision("RELIANCE.NS", models.DecisionBuy)
		require.NoError(t, testDB.CreateDecision(d))

		ok, err := testDB.SetProfitLoss(d.ID, decimal.NewFromFloat(3.00))
		require.NoError(t, err)
		assert.True(t, ok)

		// Second attempt must not overwrite
		ok, err = testDB.SetProfitLoss(d.ID, decimal.NewFromFloat(-9.99))
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := testDB.GetDecisionForDay("RELIANCE.NS", time.Now().UTC())
		require.NoError(t, err)
		require.NotNil(t, found.ProfitLoss)
		assert.True(t, decimal.NewFromFloat(3.00).Equal(*found.ProfitLoss))
	})

	t.Run("GetRecentScoredDecisions returns newest first", func(t *testing.T) {
		testDB.TruncateAll(t)

		// Insert scored decisions across three days
		for i, pnl := range []float64{1.0, -2.0, 3.0} {
			d := newTestDecision("RELIANCE.NS", models.DecisionBuy)
			d.Timestamp = time.Now().UTC().AddDate(0, 0, -i)
			_, err := testDB.GetRawConn().Exec(`
				INSERT INTO decisions (symbol, exchange, timestamp, price_at_decision, decision, confidence, profit_loss)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, d.Symbol, d.Exchange, d.Timestamp, d.PriceAtDecision, d.Decision, d.Confidence, pnl)
			require.NoError(t, err)
		}

		recent, err := testDB.GetRecentScoredDecisions("RELIANCE.NS", 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		require.NotNil(t, recent[0].ProfitLoss)
		assert.True(t, decimal.NewFromFloat(1.0).Equal(*recent[0].ProfitLoss))
		assert.True(t, decimal.NewFromFloat(-2.0).Equal(*recent[1].ProfitLoss))
	})

	t.Run("GetLatestRecommendations dedupes by symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		for i := 0; i < 2; i++ {
			_, err := testDB.GetRawConn().Exec(`
				INSERT INTO decisions (symbol, exchange, timestamp, price_at_decision, decision, confidence)
				VALUES ('RELIANCE.NS', 'NSE', $1, 2500, $2, 'High')
			`, time.Now().UTC().AddDate(0, 0, -i), models.DecisionBuy)
			require.NoError(t, err)
		}
		// Outside the 72 hour window
		_, err := testDB.GetRawConn().Exec(`
			INSERT INTO decisions (symbol, exchange, timestamp, price_at_decision, decision, confidence)
			VALUES ('TCS.NS', 'NSE', $1, 3500, 'SELL', 'Medium')
		`, time.Now().UTC().AddDate(0, 0, -5))
		require.NoError(t, err)

		latest, err := testDB.GetLatestRecommendations()
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, "RELIANCE.NS", latest[0].Symbol)
		assert.WithinDuration(t, time.Now().UTC(), latest[0].Timestamp, time.Hour)
	})

	t.Run("GetPerformanceSummary aggregates scored trades", func(t *testing.T) {
		testDB.TruncateAll(t)

		rows := []struct {
			symbol string
			day    int
			pnl    float64
		}{
			{"RELIANCE.NS", 0, 4.00},
			{"TCS.NS", 0, -2.00},
			{"INFY.NS", 0, 1.00},
		}
		for _, r := range rows {
			_, err := testDB.GetRawConn().Exec(`
				INSERT INTO decisions (symbol, exchange, timestamp, price_at_decision, decision, confidence, profit_loss)
				VALUES ($1, 'NSE', $2, 1000, 'BUY', 'High', $3)
			`, r.symbol, time.Now().UTC().AddDate(0, 0, -r.day), r.pnl)
			require.NoError(t, err)
		}

		summary, err := testDB.GetPerformanceSummary()
		require.NoError(t, err)
		assert.Equal(t, 3, summary.TotalTrades)
		assert.True(t, decimal.NewFromFloat(66.67).Equal(summary.WinRatePercent), "got %s", summary.WinRatePercent)
		assert.True(t, decimal.NewFromFloat(1.00).Equal(summary.AveragePnlPercent), "got %s", summary.AveragePnlPercent)
		require.NotNil(t, summary.BestTrade)
		require.NotNil(t, summary.WorstTrade)
		assert.Equal(t, "RELIANCE.NS", summary.BestTrade.Symbol)
		assert.Equal(t, "TCS.NS", summary.WorstTrade.Symbol)
	})

	t.Run("GetPerformanceSummary with no scored trades", func(t *testing.T) {
		testDB.TruncateAll(t)

		summary, err := testDB.GetPerformanceSummary()
		require.NoError(t, err)
		assert.Equal(t, 0, summary.TotalTrades)
		assert.Nil(t, summary.BestTrade)
		assert.Nil(t, summary.WorstTrade)
	})
}
