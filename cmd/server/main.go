package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/trading-agent/internal/api"
	"github.com/trogers1052/trading-agent/internal/config"
	"github.com/trogers1052/trading-agent/internal/database"
	"github.com/trogers1052/trading-agent/internal/jobs"
	"github.com/trogers1052/trading-agent/internal/kafka"
	"github.com/trogers1052/trading-agent/internal/market"
	"github.com/trogers1052/trading-agent/internal/oracle"
)

func main() {
	migrate := flag.Bool("migrate", false, "run database migrations before starting")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "server").Logger()

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if *migrate {
		if err := db.Migrate("db/migrations"); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache := market.NewQuoteCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Market.QuoteCacheTTL)
	defer cache.Close()
	mc := market.NewClient(cache)

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

	recommender := jobs.NewRecommender(db, mc, oracle.New(gemini), events,
		cfg.Jobs.SentimentScore, cfg.Jobs.HistoryLookbackDays, logger)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.AnalysisRequestTopic,
			"trading-agent-server", recommender, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("kafka consumer stopped")
			}
		}()
	}

	handler := api.NewHandler(db, mc, recommender, cfg.Market.Indices)
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
}
