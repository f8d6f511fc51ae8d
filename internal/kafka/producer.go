// Package kafka publishes cycle outcome events for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/quantpilot/advisor/internal/cycle"
	"github.com/quantpilot/advisor/internal/models"
)

// Producer handles publishing events to Kafka.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer.
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

// OrderEvent is the wire shape of one executed order announcement.
type OrderEvent struct {
	EventType string          `json:"event_type"`
	Date      string          `json:"date"`
	Side      string          `json:"side"`
	Notional  decimal.Decimal `json:"notional"`
	Order     *models.Order   `json:"order"`
	Timestamp time.Time       `json:"timestamp"`
}

// CycleEvent is the wire shape of a cycle completion announcement.
type CycleEvent struct {
	EventType string    `json:"event_type"`
	Run       cycle.Run `json:"run"`
	Timestamp time.Time `json:"timestamp"`
}

func newOrderEvent(date time.Time, order *models.Order) OrderEvent {
	side := "HOLD"
	switch {
	case order.IsBuy():
		side = "BUY"
	case order.IsSell():
		side = "SELL"
	}
	return OrderEvent{
		EventType: "ORDER_EXECUTED",
		Date:      date.Format(models.DateFormat),
		Side:      side,
		Notional:  order.Notional(),
		Order:     order,
		Timestamp: time.Now(),
	}
}

// PublishOrdersExecuted publishes one event per executed order, keyed by
// ticker so a partition sees each ticker's orders in sequence.
func (p *Producer) PublishOrdersExecuted(ctx context.Context, date time.Time, orders []*models.Order) error {
	for _, order := range orders {
		if err := p.publish(ctx, order.Ticker, newOrderEvent(date, order)); err != nil {
			return err
		}
	}
	return nil
}

// PublishCycleCompleted publishes a cycle completion event.
func (p *Producer) PublishCycleCompleted(ctx context.Context, run cycle.Run) error {
	event := CycleEvent{
		EventType: "CYCLE_COMPLETED",
		Run:       run,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, string(run.Kind), event)
}

func (p *Producer) publish(ctx context.Context, key string, event any) error {
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

// Close closes the Kafka producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
