package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trading-agent/internal/market"
	"github.com/trogers1052/trading-agent/internal/models"
	"github.com/trogers1052/trading-agent/internal/oracle"
)

type fakeForecastStore struct {
	unevaluated []*models.WeeklyForecast
	existing    map[string]bool
	outcomes    map[int]string
	finalCloses map[int]decimal.Decimal
	created     []*models.WeeklyForecast
	evaluated   map[int]bool
}

func (s *fakeForecastStore) GetUnevaluatedForecasts(weekStart time.Time) ([]*models.WeeklyForecast, error) {
	return s.unevaluated, nil
}

func (s *fakeForecastStore) SetForecastOutcome(id int, actualClose decimal.Decimal, summary string) (bool, error) {
	if s.evaluated[id] {
		return false, nil
	}
	if s.outcomes == nil {
		s.outcomes = map[int]string{}
		s.finalCloses = map[int]decimal.Decimal{}
	}
	s.outcomes[id] = summary
	s.finalCloses[id] = actualClose
	return true, nil
}

func (s *fakeForecastStore) HasForecastForWeek(symbol string, weekStart time.Time) (bool, error) {
	return s.existing[symbol], nil
}

func (s *fakeForecastStore) CreateWeeklyForecast(f *models.WeeklyForecast) error {
	f.ID = len(s.created) + 1
	s.created = append(s.created, f)
	return nil
}

type fakeHistorySource struct {
	history      map[string][]market.PricePoint
	rangeHistory map[string][]market.PricePoint
	rangeErr     error
}

func (h *fakeHistorySource) FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]market.PricePoint, error) {
	points, ok := h.history[symbol]
	if !ok {
		return nil, market.ErrNoData
	}
	return points, nil
}

func (h *fakeHistorySource) FetchHistoryRange(ctx context.Context, symbol string, start, end time.Time) ([]market.PricePoint, error) {
	if h.rangeErr != nil {
		return nil, h.rangeErr
	}
	points, ok := h.rangeHistory[symbol]
	if !ok {
		return nil, market.ErrNoData
	}
	return points, nil
}

type fakeForecastOracle struct {
	outlook *oracle.WeeklyOutlook
	err     error
	inputs  []oracle.ForecastInputs
}

func (o *fakeForecastOracle) Forecast(ctx context.Context, in oracle.ForecastInputs) (*oracle.WeeklyOutlook, error) {
	o.inputs = append(o.inputs, in)
	if o.err != nil {
		return nil, o.err
	}
	return o.outlook, nil
}

// Wednesday 2026-09-02: last week started Monday 2026-08-24, next week starts
// Monday 2026-09-07.
var midWeek = time.Date(2026, 9, 2, 15, 0, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func predictions(prices ...float64) []models.DailyPrediction {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	preds := make([]models.DailyPrediction, len(prices))
	for i, p := range prices {
		preds[i] = models.DailyPrediction{Day: days[i], PredictedPrice: decimal.NewFromFloat(p)}
	}
	return preds
}

func closesAt(weekStart time.Time, byOffset map[int]float64) []market.PricePoint {
	var points []market.PricePoint
	for offset := 0; offset < 5; offset++ {
		price, ok := byOffset[offset]
		if !ok {
			continue
		}
		points = append(points, market.PricePoint{
			Date:  weekStart.AddDate(0, 0, offset),
			Close: decimal.NewFromFloat(price),
		})
	}
	return points
}

func testOutlook() *oracle.WeeklyOutlook {
	return &oracle.WeeklyOutlook{
		WeeklyReasoning:  "Uptrend intact above the 50 day average.",
		DailyPredictions: predictions(24100, 24150, 24080, 24200, 24250),
	}
}

func TestWeekBoundaries(t *testing.T) {
	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	t.Run("mid-week", func(t *testing.T) {
		assert.Equal(t, monday, weekStartOf(midWeek))
		assert.Equal(t, monday.AddDate(0, 0, -7), lastWeekStart(midWeek))
		assert.Equal(t, monday.AddDate(0, 0, 7), nextWeekStart(midWeek))
	})

	t.Run("a Monday is its own next week start", func(t *testing.T) {
		mondayNoon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, monday, nextWeekStart(mondayNoon))
		assert.Equal(t, monday, weekStartOf(mondayNoon))
	})

	t.Run("Sunday rolls into the following day", func(t *testing.T) {
		sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, monday.AddDate(0, 0, 7), nextWeekStart(sunday))
		assert.Equal(t, monday, weekStartOf(sunday))
		assert.Equal(t, monday.AddDate(0, 0, -7), lastWeekStart(sunday))
	})
}

func TestWeeklyForecastEvaluation(t *testing.T) {
	ctx := context.Background()
	lastMonday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	pendingForecast := func() *models.WeeklyForecast {
		return &models.WeeklyForecast{
			ID:               1,
			Symbol:           "^NSEI",
			WeekStartDate:    lastMonday,
			WeekEndDate:      lastMonday.AddDate(0, 0, 4),
			DailyPredictions: predictions(100, 200, 300, 400, 500),
		}
	}

	t.Run("grades against realized closes, holidays excluded", func(t *testing.T) {
		store := &fakeForecastStore{unevaluated: []*models.WeeklyForecast{pendingForecast()}}
		hs := &fakeHistorySource{
			rangeHistory: map[string][]market.PricePoint{
				// Wednesday (offset 2) is a market holiday
				"^NSEI": closesAt(lastMonday, map[int]float64{0: 102, 1: 198, 3: 410, 4: 495}),
			},
		}
		j := NewWeeklyForecastJob(store, hs, &fakeForecastOracle{outlook: testOutlook()}, nil, nil, 365, zerolog.Nop())
		j.now = fixedNow(midWeek)

		require.NoError(t, j.Run(ctx))

		require.Contains(t, store.outcomes, 1)
		summary := store.outcomes[1]
		// (2.00 - 1.00 + 2.50 - 1.00) / 4 matched days
		assert.Contains(t, summary, "Avg Daily Error: 0.63%.")
		assert.Contains(t, summary, "- Monday: Off by 2.00%")
		assert.Contains(t, summary, "- Thursday: Off by 2.50%")
		assert.NotContains(t, summary, "Wednesday")
		assert.True(t, decimal.NewFromFloat(495).Equal(store.finalCloses[1]))
	})

	t.Run("unreachable market data leaves the forecast for retry", func(t *testing.T) {
		store := &fakeForecastStore{unevaluated: []*models.WeeklyForecast{pendingForecast()}}
		hs := &fakeHistorySource{rangeErr: errors.New("yahoo unavailable")}
		j := NewWeeklyForecastJob(store, hs, &fakeForecastOracle{outlook: testOutlook()}, nil, nil, 365, zerolog.Nop())
		j.now = fixedNow(midWeek)

		require.NoError(t, j.Run(ctx))
		assert.Empty(t, store.outcomes)
	})

	t.Run("evaluating twice leaves the first outcome", func(t *testing.T) {
		store := &fakeForecastStore{
			unevaluated: []*models.WeeklyForecast{pendingForecast()},
			evaluated:   map[int]bool{1: true},
		}
		hs := &fakeHistorySource{
			rangeHistory: map[string][]market.PricePoint{
				"^NSEI": closesAt(lastMonday, map[int]float64{0: 102, 1: 198, 2: 305, 3: 410, 4: 495}),
			},
		}
		j := NewWeeklyForecastJob(store, hs, &fakeForecastOracle{outlook: testOutlook()}, nil, nil, 365, zerolog.Nop())
		j.now = fixedNow(midWeek)

		require.NoError(t, j.Run(ctx))
		assert.Empty(t, store.outcomes)
	})
}

func TestWeeklyForecastGeneration(t *testing.T) {
	ctx := context.Background()
	nextMonday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	indices := []string{"^NSEI", "^BSESN"}

	t.Run("creates one forecast per index for the coming week", func(t *testing.T) {
		store := &fakeForecastStore{}
		hs := &fakeHistorySource{
			history: map[string][]market.PricePoint{
				"^NSEI":  rampHistory(365, 22000, 8),
				"^BSESN": rampHistory(365, 72000, 25),
			},
		}
		fo := &fakeForecastOracle{outlook: testOutlook()}
		events := &fakeEvents{}
		j := NewWeeklyForecastJob(store, hs, fo, events, indices, 365, zerolog.Nop())
		j.now = fixedNow(midWeek)

		require.NoError(t, j.Run(ctx))

		require.Len(t, store.created, 2)
		f := store.created[0]
		assert.Equal(t, "^NSEI", f.Symbol)
		assert.Equal(t, nextMonday, f.WeekStartDate)
		assert.Equal(t, nextMonday.AddDate(0, 0, 4), f.WeekEndDate)
		assert.Len(t, f.DailyPredictions, 5)
		assert.Equal(t, []string{"^NSEI", "^BSESN"}, events.forecastsCreated)

		require.Len(t, fo.inputs, 2)
		in := fo.inputs[0]
		assert.Equal(t, "^NSEI", in.Symbol)
		assert.Equal(t, nextMonday, in.WeekStart)
		// rampHistory(365, 22000, 8) ends at 22000 + 364*8
		assert.InDelta(t, 24912, in.CurrentPrice, 0.001)
		assert.InDelta(t, 24912, in.YearHigh, 0.001)
		assert.InDelta(t, 22000, in.YearLow, 0.001)
		assert.Greater(t, in.FiftyDayAvg, in.TwoHundredDayAvg, "recent average leads in an uptrend")
	})

	t.Run("existing forecast for the week is not regenerated", func(t *testing.T) {
		store := &fakeForecastStore{existing: map[string]bool{"^NSEI": true}}
		hs := &fakeHistorySource{
			history: map[string][]market.PricePoint{
				"^NSEI":  rampHistory(365, 22000, 8),
				"^BSESN": rampHistory(365, 72000, 25),
			},
		}
		fo := &fakeForecastOracle{outlook: testOutlook()}
		j := NewWeeklyForecastJob(store, hs, fo, nil, indices, 365, zerolog.Nop())
		j.now = fixedNow(midWeek)

		require.NoError(t, j.Run(ctx))
		require.Len(t, store.created, 1)
		assert.Equal(t, "^BSESN", store.created[0].Symbol)
	})

	t.Run("oracle failure for one index does not block the other", func(t *testing.T) {
		store := &fakeForecastStore{}
		hs := &fakeHistorySource{
			history: map[string][]market.PricePoint{
				// ^NSEI has no data at all
				"^BSESN": rampHistory(365, 72000, 25),
			},
		}
		fo := &fakeForecastOracle{outlook: testOutlook()}
		j := NewWeeklyForecastJob(store, hs, fo, nil, indices, 365, zerolog.Nop())
		j.now = fixedNow(midWeek)

		require.NoError(t, j.Run(ctx))
		require.Len(t, store.created, 1)
		assert.Equal(t, "^BSESN", store.created[0].Symbol)
	})
}
