package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPrediction is one predicted closing price inside a weekly forecast
type DailyPrediction struct {
	Day            string          `json:"day"`
	PredictedPrice decimal.Decimal `json:"predicted_price"`
}

// WeeklyForecast represents a day-by-day index price prediction for one upcoming
// week. ActualClosingPrice and PerformanceSummary stay nil until the following
// week's evaluation pass grades the forecast; they are set exactly once.
type WeeklyForecast struct {
	ID                 int               `json:"id"`
	Symbol             string            `json:"symbol"`
	PredictionDate     time.Time         `json:"prediction_date"`
	WeekStartDate      time.Time         `json:"week_start_date"`
	WeekEndDate        time.Time         `json:"week_end_date"`
	DailyPredictions   []DailyPrediction `json:"daily_predictions"`
	WeeklyReasoning    string            `json:"weekly_reasoning"`
	ActualClosingPrice *decimal.Decimal  `json:"actual_closing_price,omitempty"`
	PerformanceSummary *string           `json:"performance_summary,omitempty"`
}
