// Package events publishes order lifecycle events to kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the message published for every order creation and status change.
type OrderEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	OrderID      uint      `json:"order_id"`
	TenantID     uint      `json:"tenant_id"`
	RestaurantID uint      `json:"restaurant_id"`
	FromStatus   string    `json:"from_status,omitempty"`
	ToStatus     string    `json:"to_status"`
	ActorUserID  uint      `json:"actor_user_id"`
	Total        string    `json:"total"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}

// Message builds the kafka message for e. Orders are keyed by id so every
// event of one order lands on the same partition in order.
func Message(e OrderEvent) (kafka.Message, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(e.OrderID), 10)),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "tenant_id", Value: []byte(strconv.FormatUint(uint64(e.TenantID), 10))},
		},
	}, nil
}

type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher writes asynchronously; delivery failures are logged by the
// completion callback and never fail the request that caused the event.
func NewKafkaPublisher(brokers []string, topic string, log *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.WithError(err).WithField("messages", len(messages)).Error("kafka: failed to deliver order events")
			}
		},
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e OrderEvent) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }
func (Nop) Close() error                              { return nil }
