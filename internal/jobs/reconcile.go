package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/models"
)

// ReconcileStore is the slice of the decision store the reconciliation job needs
type ReconcileStore interface {
	GetUnscoredDecisions() ([]*models.Decision, error)
	SetProfitLoss(id int, pnl decimal.Decimal) (bool, error)
}

// PriceSource fetches current prices for a batch of symbols in one call
type PriceSource interface {
	FetchCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Reconciler fills in realized profit/loss for past BUY/SELL decisions by
// comparing the decision-time price to the current price. Already-scored rows
// fall outside its selection, so re-running it is naturally idempotent.
type Reconciler struct {
	store     ReconcileStore
	prices    PriceSource
	events    EventPublisher
	tolerance decimal.Decimal
	log       zerolog.Logger
}

// NewReconciler wires up the reconciliation job. tolerance is the absolute
// price difference below which a decision is treated as "unchanged, likely a
// non-trading day" and left for a later run.
func NewReconciler(store ReconcileStore, prices PriceSource, events EventPublisher, tolerance float64, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		prices:    prices,
		events:    events,
		tolerance: decimal.NewFromFloat(tolerance),
		log:       log,
	}
}

// Run scores every eligible decision it can. Per-row failures are logged and
// skipped; only an unreachable store or a failed batch price fetch aborts the
// run (there is nothing useful to do without either).
func (r *Reconciler) Run(ctx context.Context) error {
	decisions, err := r.store.GetUnscoredDecisions()
	if err != nil {
		return fmt.Errorf("failed to load unscored decisions: %w", err)
	}
	if len(decisions) == 0 {
		r.log.Info().Msg("no new decisions to reconcile")
		return nil
	}
	r.log.Info().Int("decisions", len(decisions)).Msg("reconciliation run starting")

	prices, err := r.prices.FetchCurrentPrices(ctx, distinctSymbols(decisions))
	if err != nil {
		return fmt.Errorf("failed to fetch current prices: %w", err)
	}

	for _, d := range decisions {
		r.reconcileOne(ctx, d, prices)
	}

	r.log.Info().Msg("reconciliation run complete")
	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, d *models.Decision, prices map[string]decimal.Decimal) {
	log := r.log.With().Str("symbol", d.Symbol).Int("decision_id", d.ID).Logger()

	current, ok := prices[d.Symbol]
	if !ok {
		log.Warn().Msg("no current price, will retry next run")
		return
	}
	if d.PriceAtDecision.IsZero() {
		log.Warn().Msg("decision price is zero, cannot score")
		return
	}

	// An unchanged price usually means a holiday or non-trading day. Leave the
	// row unscored so a later run grades it against a real move.
	if current.Sub(d.PriceAtDecision).Abs().LessThan(r.tolerance) {
		log.Info().Msg("price unchanged, likely a holiday, skipping")
		return
	}

	pnl := current.Sub(d.PriceAtDecision).
		Div(d.PriceAtDecision).
		Mul(decimal.NewFromInt(100))
	// A falling price after a SELL call is a gain.
	if d.Decision == models.DecisionSell {
		pnl = pnl.Neg()
	}
	pnl = pnl.Round(2)

	updated, err := r.store.SetProfitLoss(d.ID, pnl)
	if err != nil {
		log.Error().Err(err).Msg("failed to store profit_loss")
		return
	}
	if !updated {
		log.Debug().Msg("already reconciled by another run")
		return
	}

	log.Info().Str("profit_loss", pnl.StringFixed(2)).Msg("updated profit_loss")

	if r.events != nil {
		if err := r.events.PublishDecisionReconciled(ctx, d.Symbol, d.ID, pnl); err != nil {
			log.Warn().Err(err).Msg("failed to publish reconcile event")
		}
	}
}

func distinctSymbols(decisions []*models.Decision) []string {
	seen := make(map[string]bool, len(decisions))
	var symbols []string
	for _, d := range decisions {
		if !seen[d.Symbol] {
			seen[d.Symbol] = true
			symbols = append(symbols, d.Symbol)
		}
	}
	return symbols
}
