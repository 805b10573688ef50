package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/trading-agent/internal/config"
	"github.com/trogers1052/trading-agent/internal/database"
	"github.com/trogers1052/trading-agent/internal/jobs"
	"github.com/trogers1052/trading-agent/internal/kafka"
	"github.com/trogers1052/trading-agent/internal/market"
	"github.com/trogers1052/trading-agent/internal/oracle"
)

// Evaluates last week's index forecasts and generates next week's. Meant to
// run from cron on Friday evening or over the weekend.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "forecaster").Logger()

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini, err := oracle.NewGemini(ctx, cfg.LLM.Model)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create llm client")
	}

	var events jobs.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DecisionTopic)
		defer producer.Close()
		events = producer
	}

	job := jobs.NewWeeklyForecastJob(db, market.NewClient(nil), oracle.New(gemini), events,
		cfg.Market.Indices, cfg.Jobs.ForecastLookbackDays, logger)

	if err := job.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forecast run failed")
	}
	logger.Info().Msg("forecast run complete")
}
