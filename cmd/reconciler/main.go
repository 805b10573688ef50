package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/trading-agent/internal/config"
	"github.com/trogers1052/trading-agent/internal/database"
	"github.com/trogers1052/trading-agent/internal/jobs"
	"github.com/trogers1052/trading-agent/internal/kafka"
	"github.com/trogers1052/trading-agent/internal/market"
)

// Scores unreconciled BUY/SELL decisions against current prices. Runs once
// by default; -loop keeps it running on the configured interval.
func main() {
	loop := flag.Bool("loop", false, "run continuously on RECONCILE_INTERVAL")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "reconciler").Logger()

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache := market.NewQuoteCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Market.QuoteCacheTTL)
	defer cache.Close()

	var events jobs.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DecisionTopic)
		defer producer.Close()
		events = producer
	}

	reconciler := jobs.NewReconciler(db, market.NewClient(cache), events, cfg.Jobs.PnLTolerance, logger)

	if err := reconciler.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("reconciliation run failed")
	}
	if !*loop {
		logger.Info().Msg("reconciliation run complete")
		return
	}

	ticker := time.NewTicker(cfg.Jobs.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		case <-ticker.C:
			if err := reconciler.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("reconciliation run failed")
			}
		}
	}
}
