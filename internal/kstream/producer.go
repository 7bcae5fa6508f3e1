package kstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront-backend/internal/notify"
)

// NotificationsTopic carries every notification shown to a shopper.
const NotificationsTopic = "storefront.notifications"

// NotificationEvent is the message published for a shown notification.
type NotificationEvent struct {
	SessionID string      `json:"session_id"`
	Message   string      `json:"message"`
	Kind      notify.Kind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends notification events to Kafka.
type Publisher struct {
	w      messageWriter
	logger *zap.Logger
}

// kafkaWriter constructs an async producer for topic.
func kafkaWriter(broker, topic string) *kafka.Writer {
	// segmentio/kafka-go: Hash balancer keeps one key on one partition; Async never blocks the caller.
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
}

// NewPublisher returns a Publisher writing to NotificationsTopic on broker.
func NewPublisher(broker string, logger *zap.Logger) *Publisher {
	return &Publisher{w: kafkaWriter(broker, NotificationsTopic), logger: logger}
}

// PublishNotification writes evt keyed by session id, so one session's
// notifications stay ordered on a single partition.
func (p *Publisher) PublishNotification(ctx context.Context, evt NotificationEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.SessionID),
		Value: data,
		Time:  evt.Timestamp,
	})
}

// Notify lets a Publisher act as a session notification sink.
func (p *Publisher) Notify(sessionID string, st notify.State) {
	evt := NotificationEvent{
		SessionID: sessionID,
		Message:   st.Message,
		Kind:      st.Kind,
		Timestamp: time.Now().UTC(),
	}
	if err := p.PublishNotification(context.Background(), evt); err != nil {
		p.logger.Warn("kstream: notification not published", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Close flushes pending async writes.
func (p *Publisher) Close() error { return p.w.Close() }
