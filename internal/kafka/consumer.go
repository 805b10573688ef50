package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trading-agent/internal/models"
)

// Analyzer runs a single-symbol analysis unless a decision for today already
// exists. The second return value reports whether a new decision was created.
type Analyzer interface {
	AnalyzeIfNeeded(ctx context.Context, symbol, exchange string) (*models.Decision, bool, error)
}

// Consumer handles ad-hoc analysis requests arriving over Kafka. The per-day
// decision check inside the analyzer makes duplicate requests harmless.
type Consumer struct {
	reader   *kafka.Reader
	analyzer Analyzer
	log      zerolog.Logger
}

// NewConsumer creates a Kafka consumer for analysis requests
func NewConsumer(brokers []string, topic, groupID string, analyzer Analyzer, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:   reader,
		analyzer: analyzer,
		log:      log,
	}
}

// Start begins consuming messages until the context is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("starting analysis request consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("analysis request consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error().Err(err).Msg("error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single analysis request
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal analysis request: %w", err)
	}
	if req.Symbol == "" {
		return fmt.Errorf("analysis request without symbol")
	}

	d, created, err := c.analyzer.AnalyzeIfNeeded(ctx, req.Symbol, req.Exchange)
	if err != nil {
		return fmt.Errorf("analysis failed for %s: %w", req.Symbol, err)
	}

	if created {
		c.log.Info().Str("symbol", d.Symbol).Str("decision", d.Decision).Msg("analysis request fulfilled")
	} else {
		c.log.Info().Str("symbol", d.Symbol).Msg("analysis request already covered today")
	}
	return nil
}
