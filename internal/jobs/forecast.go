package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/market"
	"github.com/trogers1052/trading-agent/internal/models"
	"github.com/trogers1052/trading-agent/internal/oracle"
)

// ForecastStore is the slice of the store the weekly forecast job needs
type ForecastStore interface {
	GetUnevaluatedForecasts(weekStart time.Time) ([]*models.WeeklyForecast, error)
	SetForecastOutcome(id int, actualClose decimal.Decimal, summary string) (bool, error)
	HasForecastForWeek(symbol string, weekStart time.Time) (bool, error)
	CreateWeeklyForecast(f *models.WeeklyForecast) error
}

// HistorySource fetches historical price series
type HistorySource interface {
	FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]market.PricePoint, error)
	FetchHistoryRange(ctx context.Context, symbol string, start, end time.Time) ([]market.PricePoint, error)
}

// ForecastOracle produces a structured weekly outlook
type ForecastOracle interface {
	Forecast(ctx context.Context, in oracle.ForecastInputs) (*oracle.WeeklyOutlook, error)
}

// WeeklyForecastJob grades last week's index forecasts against realized closes
// and generates forecasts for the upcoming week. The two phases run back to
// back each invocation and are independently idempotent.
type WeeklyForecastJob struct {
	store        ForecastStore
	market       HistorySource
	oracle       ForecastOracle
	events       EventPublisher
	indices      []string
	lookbackDays int
	log          zerolog.Logger

	now func() time.Time
}

// NewWeeklyForecastJob wires up the weekly forecast job for the given index symbols
func NewWeeklyForecastJob(store ForecastStore, hs HistorySource, fo ForecastOracle, events EventPublisher, indices []string, lookbackDays int, log zerolog.Logger) *WeeklyForecastJob {
	return &WeeklyForecastJob{
		store:        store,
		market:       hs,
		oracle:       fo,
		events:       events,
		indices:      indices,
		lookbackDays: lookbackDays,
		log:          log,
		now:          time.Now,
	}
}

// Run evaluates last week's forecasts, then generates next week's
func (j *WeeklyForecastJob) Run(ctx context.Context) error {
	if err := j.evaluateLastWeek(ctx); err != nil {
		return err
	}
	j.generateNextWeek(ctx)
	return nil
}

// evaluateLastWeek grades every ungraded forecast whose week started last
// Monday. Grading is write-once: the IS NULL selection plus the guarded update
// means a second pass leaves rows unchanged.
func (j *WeeklyForecastJob) evaluateLastWeek(ctx context.Context) error {
	lastStart := lastWeekStart(j.now())

	forecasts, err := j.store.GetUnevaluatedForecasts(lastStart)
	if err != nil {
		return fmt.Errorf("failed to load forecasts to evaluate: %w", err)
	}
	if len(forecasts) == 0 {
		j.log.Info().Msg("no forecasts from last week to evaluate")
		return nil
	}

	for _, f := range forecasts {
		j.evaluateOne(ctx, f)
	}
	return nil
}

func (j *WeeklyForecastJob) evaluateOne(ctx context.Context, f *models.WeeklyForecast) {
	log := j.log.With().Str("symbol", f.Symbol).Int("forecast_id", f.ID).Logger()

	actual, err := j.market.FetchHistoryRange(ctx, f.Symbol, f.WeekStartDate, f.WeekEndDate.AddDate(0, 0, 1))
	if err != nil {
		log.Warn().Err(err).Msg("could not fetch realized closes, will retry next run")
		return
	}

	closeByDay := make(map[string]decimal.Decimal, len(actual))
	for _, p := range actual {
		closeByDay[p.Date.Format("2006-01-02")] = p.Close
	}

	var lines []string
	sum := decimal.Zero
	matched := 0
	for i, pred := range f.DailyPredictions {
		dayDate := f.WeekStartDate.AddDate(0, 0, i)
		actualClose, ok := closeByDay[dayDate.Format("2006-01-02")]
		if !ok {
			// Market holiday: excluded from the average, not counted as zero.
			continue
		}
		if pred.PredictedPrice.IsZero() {
			log.Warn().Str("day", pred.Day).Msg("predicted price is zero, skipping day")
			continue
		}

		diff := actualClose.Sub(pred.PredictedPrice).
			Div(pred.PredictedPrice).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		lines = append(lines, fmt.Sprintf("- %s: Off by %s%%", pred.Day, diff.StringFixed(2)))
		sum = sum.Add(diff)
		matched++
	}

	avg := decimal.Zero
	if matched > 0 {
		avg = sum.Div(decimal.NewFromInt(int64(matched))).Round(2)
	}
	summary := fmt.Sprintf("Avg Daily Error: %s%%. %s", avg.StringFixed(2), strings.Join(lines, " "))
	finalClose := actual[len(actual)-1].Close

	updated, err := j.store.SetForecastOutcome(f.ID, finalClose, summary)
	if err != nil {
		log.Error().Err(err).Msg("failed to store forecast outcome")
		return
	}
	if !updated {
		log.Debug().Msg("forecast already evaluated")
		return
	}
	log.Info().Str("summary", summary).Msg("evaluated forecast")
}

// generateNextWeek creates a forecast for each tracked index for the upcoming
// week, skipping symbols that already have one. Each symbol is its own unit of
// work; a failure rolls back nothing but that symbol.
func (j *WeeklyForecastJob) generateNextWeek(ctx context.Context) {
	today := j.now()
	weekStart := nextWeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, 4)

	for _, symbol := range j.indices {
		log := j.log.With().Str("symbol", symbol).Logger()

		exists, err := j.store.HasForecastForWeek(symbol, weekStart)
		if err != nil {
			log.Error().Err(err).Msg("failed to check existing forecast")
			continue
		}
		if exists {
			log.Info().Time("week_start", weekStart).Msg("forecast already exists, skipping")
			continue
		}

		history, err := j.market.FetchHistory(ctx, symbol, j.lookbackDays)
		if err != nil {
			log.Warn().Err(err).Msg("could not fetch history")
			continue
		}

		stats := summarizeHistory(history)
		outlook, err := j.oracle.Forecast(ctx, oracle.ForecastInputs{
			Symbol:           symbol,
			WeekStart:        weekStart,
			WeekEnd:          weekEnd,
			CurrentPrice:     stats.currentPrice,
			YearHigh:         stats.yearHigh,
			YearLow:          stats.yearLow,
			FiftyDayAvg:      stats.fiftyDayAvg,
			TwoHundredDayAvg: stats.twoHundredDayAvg,
		})
		if err != nil {
			log.Warn().Err(err).Msg("forecast generation failed")
			continue
		}

		f := &models.WeeklyForecast{
			Symbol:           symbol,
			PredictionDate:   today,
			WeekStartDate:    weekStart,
			WeekEndDate:      weekEnd,
			DailyPredictions: outlook.DailyPredictions,
			WeeklyReasoning:  outlook.WeeklyReasoning,
		}
		if err := j.store.CreateWeeklyForecast(f); err != nil {
			log.Error().Err(err).Msg("failed to store forecast")
			continue
		}
		log.Info().Time("week_start", weekStart).Msg("generated new weekly forecast")

		if j.events != nil {
			if err := j.events.PublishForecastCreated(ctx, f); err != nil {
				log.Warn().Err(err).Msg("failed to publish forecast event")
			}
		}
	}
}

type historyStats struct {
	currentPrice     float64
	yearHigh         float64
	yearLow          float64
	fiftyDayAvg      float64
	twoHundredDayAvg float64
}

func summarizeHistory(history []market.PricePoint) historyStats {
	stats := historyStats{
		currentPrice: history[len(history)-1].Close.InexactFloat64(),
		yearHigh:     history[0].High.InexactFloat64(),
		yearLow:      history[0].Low.InexactFloat64(),
	}
	for _, p := range history {
		if h := p.High.InexactFloat64(); h > stats.yearHigh {
			stats.yearHigh = h
		}
		if l := p.Low.InexactFloat64(); l < stats.yearLow {
			stats.yearLow = l
		}
	}
	stats.fiftyDayAvg = trailingAverage(history, 50)
	stats.twoHundredDayAvg = trailingAverage(history, 200)
	return stats
}

func trailingAverage(history []market.PricePoint, days int) float64 {
	if len(history) == 0 {
		return 0
	}
	if len(history) > days {
		history = history[len(history)-days:]
	}
	sum := 0.0
	for _, p := range history {
		sum += p.Close.InexactFloat64()
	}
	return sum / float64(len(history))
}

// weekStartOf returns the Monday of the week containing t, at midnight UTC
func weekStartOf(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// lastWeekStart returns the Monday of the week before the one containing t
func lastWeekStart(t time.Time) time.Time {
	return weekStartOf(t).AddDate(0, 0, -7)
}

// nextWeekStart returns the upcoming Monday, or today if t is already a Monday
func nextWeekStart(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, (7-daysSinceMonday)%7)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
