package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/models"
)

const forecastColumns = `id, symbol, prediction_date, week_start_date, week_end_date,
	       daily_predictions, weekly_reasoning, actual_closing_price, performance_summary`

// CreateWeeklyForecast inserts a new forecast row. The unique constraint on
// (symbol, week_start_date) rejects a second forecast for the same week.
func (db *DB) CreateWeeklyForecast(f *models.WeeklyForecast) error {
	predictions, err := json.Marshal(f.DailyPredictions)
	if err != nil {
		return fmt.Errorf("failed to marshal daily predictions: %w", err)
	}

	query := `
		INSERT INTO weekly_index_predictions (
			symbol, prediction_date, week_start_date, week_end_date,
			daily_predictions, weekly_reasoning
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = db.conn.QueryRow(query,
		f.Symbol, f.PredictionDate, f.WeekStartDate, f.WeekEndDate,
		predictions, f.WeeklyReasoning,
	).Scan(&f.ID)

	if err != nil {
		return fmt.Errorf("failed to create weekly forecast for %s: %w", f.Symbol, err)
	}
	return nil
}

// HasForecastForWeek reports whether a forecast already exists for the symbol
// and week start date.
func (db *DB) HasForecastForWeek(symbol string, weekStart time.Time) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM weekly_index_predictions WHERE symbol = $1 AND week_start_date = $2)`,
		symbol, weekStart,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check forecast existence: %w", err)
	}
	return exists, nil
}

// GetUnevaluatedForecasts returns forecasts for the given week start date that
// have not been graded yet.
func (db *DB) GetUnevaluatedForecasts(weekStart time.Time) ([]*models.WeeklyForecast, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM weekly_index_predictions
		WHERE week_start_date = $1 AND actual_closing_price IS NULL
		ORDER BY symbol
	`
	return db.queryForecasts(query, weekStart)
}

// SetForecastOutcome fills in the realized close and performance summary for a
// forecast. The actual_closing_price IS NULL guard makes the grading write-once.
func (db *DB) SetForecastOutcome(id int, actualClose decimal.Decimal, summary string) (bool, error) {
	result, err := db.conn.Exec(`
		UPDATE weekly_index_predictions
		SET actual_closing_price = $1, performance_summary = $2
		WHERE id = $3 AND actual_closing_price IS NULL
	`, actualClose, summary, id)
	if err != nil {
		return false, fmt.Errorf("failed to set forecast outcome for %d: %w", id, err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// GetRecentForecasts returns forecasts whose week starts on or after the given date
func (db *DB) GetRecentForecasts(since time.Time) ([]*models.WeeklyForecast, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM weekly_index_predictions
		WHERE week_start_date >= $1
		ORDER BY prediction_date DESC, symbol
	`
	return db.queryForecasts(query, since)
}

// GetRecentEvaluations returns the most recently graded forecasts
func (db *DB) GetRecentEvaluations(limit int) ([]*models.WeeklyForecast, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM weekly_index_predictions
		WHERE actual_closing_price IS NOT NULL
		ORDER BY week_end_date DESC, symbol
		LIMIT $1
	`
	return db.queryForecasts(query, limit)
}

func (db *DB) queryForecasts(query string, args ...interface{}) ([]*models.WeeklyForecast, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []*models.WeeklyForecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}

func scanForecast(row rowScanner) (*models.WeeklyForecast, error) {
	var f models.WeeklyForecast
	var predictions []byte
	var actualClose decimal.NullDecimal
	var summary *string

	err := row.Scan(
		&f.ID, &f.Symbol, &f.PredictionDate, &f.WeekStartDate, &f.WeekEndDate,
		&predictions, &f.WeeklyReasoning, &actualClose, &summary,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(predictions, &f.DailyPredictions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal daily predictions: %w", err)
	}
	if actualClose.Valid {
		f.ActualClosingPrice = &actualClose.Decimal
	}
	f.PerformanceSummary = summary
	return &f, nil
}
