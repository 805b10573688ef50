package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trogers1052/trading-agent/internal/models"
)

// tradingDays is the expected order of forecast entries
var tradingDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// WeeklyOutlook is the structured forecast the model must return
type WeeklyOutlook struct {
	WeeklyReasoning  string                   `json:"weekly_reasoning"`
	DailyPredictions []models.DailyPrediction `json:"daily_predictions"`
}

// ForecastInputs holds the historical summary statistics composed into the
// forecast prompt.
type ForecastInputs struct {
	Symbol           string
	WeekStart        time.Time
	WeekEnd          time.Time
	CurrentPrice     float64
	YearHigh         float64
	YearLow          float64
	FiftyDayAvg      float64
	TwoHundredDayAvg float64
}

// Forecast asks the model for a day-by-day closing price prediction for the
// upcoming week and enforces the response contract: exactly five entries,
// Monday through Friday, in order.
func (o *Oracle) Forecast(ctx context.Context, in ForecastInputs) (*WeeklyOutlook, error) {
	raw, err := o.gen.Generate(ctx, forecastPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("model call failed for %s: %w", in.Symbol, err)
	}

	var w WeeklyOutlook
	if err := decodeContract(raw, &w); err != nil {
		return nil, err
	}
	if err := validateOutlook(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

func validateOutlook(w *WeeklyOutlook) error {
	if len(w.DailyPredictions) != len(tradingDays) {
		return fmt.Errorf("%w: expected %d daily predictions, got %d",
			ErrSchema, len(tradingDays), len(w.DailyPredictions))
	}
	for i, p := range w.DailyPredictions {
		if !strings.EqualFold(p.Day, tradingDays[i]) {
			return fmt.Errorf("%w: prediction %d is %q, expected %q",
				ErrSchema, i, p.Day, tradingDays[i])
		}
	}
	return nil
}

func forecastPrompt(in ForecastInputs) string {
	return fmt.Sprintf(`You are an expert market analyst specializing in Indian indices. Your task is to provide a day-by-day closing price prediction for %s for the entire upcoming week (%s to %s).

Analyze the provided historical data and recent trends to make an informed prediction for each day.

**Historical Data Summary:**
- Current Price: %.2f
- 52-Week High: %.2f
- 52-Week Low: %.2f
- 50-Day Average: %.2f
- 200-Day Average: %.2f

**Your Task:**
1.  **Weekly Reasoning:** Provide a brief, overall reasoning for your weekly forecast.
2.  **Daily Predictions:** Provide a list of predicted closing prices for each day from Monday to Friday. Each price must be a valid JSON number (e.g., 25800.00), not a string and with no commas.

Provide your output as a single, valid JSON object only.

**JSON Output Format:**
{
    "weekly_reasoning": "...",
    "daily_predictions": [
        {"day": "Monday", "predicted_price": 0.0},
        {"day": "Tuesday", "predicted_price": 0.0},
        {"day": "Wednesday", "predicted_price": 0.0},
        {"day": "Thursday", "predicted_price": 0.0},
        {"day": "Friday", "predicted_price": 0.0}
    ]
}`,
		in.Symbol,
		in.WeekStart.Format("2006-01-02"), in.WeekEnd.Format("2006-01-02"),
		in.CurrentPrice, in.YearHigh, in.YearLow, in.FiftyDayAvg, in.TwoHundredDayAvg)
}
