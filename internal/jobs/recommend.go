// Package jobs contains the periodically-triggered batch processes: the daily
// recommendation run, profit/loss reconciliation, and the weekly forecast
// cycle. Each job builds its collaborators explicitly and isolates per-symbol
// failures so one bad symbol never aborts the batch.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/indicator"
	"github.com/trogers1052/trading-agent/internal/market"
	"github.com/trogers1052/trading-agent/internal/models"
	"github.com/trogers1052/trading-agent/internal/oracle"
)

// pastDecisionWindow is how many scored decisions feed the oracle's
// past-performance context.
const pastDecisionWindow = 3

// RecommendStore is the slice of the decision store the daily job needs
type RecommendStore interface {
	GetDistinctWatchedSymbols() ([]models.WatchedSymbol, error)
	GetDecisionForDay(symbol string, day time.Time) (*models.Decision, error)
	CreateDecision(d *models.Decision) error
	GetRecentScoredDecisions(symbol string, limit int) ([]*models.Decision, error)
}

// MarketData is the market gateway surface used by the daily job
type MarketData interface {
	FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]market.PricePoint, error)
	FetchFundamentals(ctx context.Context, symbol string) (*market.Fundamentals, error)
}

// Judge produces a structured decision from structured inputs
type Judge interface {
	Judge(ctx context.Context, in oracle.Inputs) (*oracle.Judgment, error)
}

// EventPublisher publishes decision lifecycle events. Implementations may be
// absent; jobs treat a nil publisher as "events disabled".
type EventPublisher interface {
	PublishDecisionCreated(ctx context.Context, d *models.Decision) error
	PublishDecisionReconciled(ctx context.Context, symbol string, decisionID int, pnl decimal.Decimal) error
	PublishForecastCreated(ctx context.Context, f *models.WeeklyForecast) error
}

// Recommender runs the daily recommendation pipeline: for every watchlisted
// symbol without a decision today, fetch data, compute indicators, ask the
// oracle, and persist exactly one decision.
type Recommender struct {
	store        RecommendStore
	market       MarketData
	judge        Judge
	events       EventPublisher
	sentiment    float64
	lookbackDays int
	log          zerolog.Logger

	now func() time.Time
}

// NewRecommender wires up the daily recommendation job
func NewRecommender(store RecommendStore, md MarketData, judge Judge, events EventPublisher, sentiment float64, lookbackDays int, log zerolog.Logger) *Recommender {
	return &Recommender{
		store:        store,
		market:       md,
		judge:        judge,
		events:       events,
		sentiment:    sentiment,
		lookbackDays: lookbackDays,
		log:          log,
		now:          time.Now,
	}
}

// Run analyzes every distinct watchlisted symbol that has no decision for
// today. Re-running is a no-op for already-decided symbols, so the job is safe
// to trigger multiple times per day.
func (r *Recommender) Run(ctx context.Context) error {
	symbols, err := r.store.GetDistinctWatchedSymbols()
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}
	r.log.Info().Int("symbols", len(symbols)).Msg("daily recommendation run starting")

	for _, ws := range symbols {
		_, created, err := r.AnalyzeIfNeeded(ctx, ws.Symbol, ws.Exchange)
		if err != nil {
			r.log.Warn().Err(err).Str("symbol", ws.Symbol).Msg("skipping symbol")
			continue
		}
		if !created {
			r.log.Debug().Str("symbol", ws.Symbol).Msg("decision already exists for today")
		}
	}

	r.log.Info().Msg("daily recommendation run complete")
	return nil
}

// AnalyzeIfNeeded returns today's decision for a symbol, running a fresh
// analysis only when none exists yet. The second return value reports whether
// a new decision was created.
func (r *Recommender) AnalyzeIfNeeded(ctx context.Context, symbol, exchange string) (*models.Decision, bool, error) {
	formatted := market.FormatSymbol(symbol, exchange)

	existing, err := r.store.GetDecisionForDay(formatted, r.now())
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	d, err := r.analyze(ctx, formatted, exchange)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// analyze runs the full gateway -> indicators -> oracle -> store pipeline for
// one already-formatted symbol. The single insert is its own unit of work; a
// storage failure here loses only this symbol's decision.
func (r *Recommender) analyze(ctx context.Context, symbol, exchange string) (*models.Decision, error) {
	history, err := r.market.FetchHistory(ctx, symbol, r.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("history fetch: %w", err)
	}

	closes := make([]float64, len(history))
	for i, p := range history {
		closes[i] = p.Close.InexactFloat64()
	}
	snap, err := indicator.Compute(closes)
	if err != nil {
		return nil, fmt.Errorf("indicators for %s: %w", symbol, err)
	}

	peRatio := "N/A"
	if !market.IsIndex(symbol) {
		fundamentals, err := r.market.FetchFundamentals(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("fundamentals fetch: %w", err)
		}
		peRatio = fmt.Sprintf("%.2f", fundamentals.PERatio)
	}

	past, err := r.store.GetRecentScoredDecisions(symbol, pastDecisionWindow)
	if err != nil {
		return nil, fmt.Errorf("past decisions lookup: %w", err)
	}

	judgment, err := r.judge.Judge(ctx, oracle.Inputs{
		Symbol:          symbol,
		Exchange:        exchange,
		ClosePrice:      snap.LastClose,
		RSI:             snap.RSI,
		MACDDiff:        snap.MACDDiff,
		PERatio:         peRatio,
		SentimentScore:  r.sentiment,
		PastPerformance: pastPerformanceSummary(past),
	})
	if err != nil {
		return nil, fmt.Errorf("judgment: %w", err)
	}

	d := &models.Decision{
		Symbol:             symbol,
		Exchange:           exchange,
		PriceAtDecision:    decimal.NewFromFloat(snap.LastClose).Round(2),
		Decision:           judgment.Decision,
		Confidence:         judgment.Confidence,
		TechnicalSummary:   judgment.TechnicalSummary,
		FundamentalSummary: judgment.FundamentalSummary,
		SentimentSummary:   judgment.SentimentSummary,
		FinalSummary:       judgment.FinalSummary,
	}
	if err := r.store.CreateDecision(d); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	r.log.Info().
		Str("symbol", symbol).
		Str("decision", d.Decision).
		Str("confidence", d.Confidence).
		Msg("saved new decision")

	if r.events != nil {
		if err := r.events.PublishDecisionCreated(ctx, d); err != nil {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish decision event")
		}
	}
	return d, nil
}

// pastPerformanceSummary turns the last few scored decisions into the
// natural-language feedback line the oracle receives.
func pastPerformanceSummary(decisions []*models.Decision) string {
	if len(decisions) == 0 {
		return "No past performance data available for this item."
	}

	sum := decimal.Zero
	calls := make([]string, 0, len(decisions))
	for _, d := range decisions {
		calls = append(calls, d.Decision)
		if d.ProfitLoss != nil {
			sum = sum.Add(*d.ProfitLoss)
		}
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(decisions)))).Round(2)

	return fmt.Sprintf("Your last %d recommendations were [%s]. Average P&L: %s%%.",
		len(decisions), strings.Join(calls, ", "), avg.StringFixed(2))
}
