package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trading-agent/internal/models"
)

// Producer publishes decision lifecycle events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a Kafka producer for decision events
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishDecisionCreated publishes an event for a freshly persisted decision
func (p *Producer) PublishDecisionCreated(ctx context.Context, d *models.Decision) error {
	event := models.DecisionEvent{
		EventType: "DECISION_CREATED",
		Symbol:    d.Symbol,
		Decision:  d,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, d.Symbol, event)
}

// PublishDecisionReconciled publishes an event when a decision's profit/loss is scored
func (p *Producer) PublishDecisionReconciled(ctx context.Context, symbol string, decisionID int, pnl decimal.Decimal) error {
	event := models.DecisionEvent{
		EventType:  "DECISION_RECONCILED",
		Symbol:     symbol,
		Decision:   &models.Decision{ID: decisionID, Symbol: symbol},
		ProfitLoss: &pnl,
		Timestamp:  time.Now(),
	}
	return p.publish(ctx, symbol, event)
}

// PublishForecastCreated publishes an event for a new weekly forecast
func (p *Producer) PublishForecastCreated(ctx context.Context, f *models.WeeklyForecast) error {
	event := struct {
		EventType string                 `json:"event_type"`
		Symbol    string                 `json:"symbol"`
		Forecast  *models.WeeklyForecast `json:"forecast"`
		Timestamp time.Time              `json:"timestamp"`
	}{
		EventType: "FORECAST_CREATED",
		Symbol:    f.Symbol,
		Forecast:  f,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, f.Symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
