package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TopicEventPersisted = "event.persisted"
	TopicTxConfirmed    = "ledger.tx.confirmed"

	DefaultExchange = "festora"
)

// Publisher emits notifications after a state change has been committed.
type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
	Close() error
}

// EventPersistedMessage announces a paid event document stored in the
// document store.
type EventPersistedMessage struct {
	MessageID string    `json:"messageId"`
	EventID   string    `json:"eventId"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	OrderID   string    `json:"orderId"`
	PaymentID string    `json:"paymentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TxConfirmedMessage announces a confirmed ledger transaction.
type TxConfirmedMessage struct {
	MessageID   string    `json:"messageId"`
	Method      string    `json:"method"`
	EventID     int64     `json:"eventId,omitempty"`
	From        string    `json:"from"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NewMessageID returns a unique id for an outgoing message.
func NewMessageID() string {
	return uuid.New().String()
}

// New dials RabbitMQ and declares a durable topic exchange. An empty url
// disables publishing.
func New(url, exchange string, logger *slog.Logger) (Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if url == "" {
		logger.Info("Broker disabled, RABBITMQ_URL not set")
		return NopPublisher{}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	b := &AMQPPublisher{url: url, exchange: exchange, logger: logger}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

// AMQPPublisher publishes JSON messages to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	url      string
	exchange string
	logger   *slog.Logger
}

func (b *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", b.exchange, err)
	}
	b.conn = conn
	b.channel = ch
	return nil
}

func (b *AMQPPublisher) ensureConnection() error {
	if b.conn != nil && !b.conn.IsClosed() && b.channel != nil && !b.channel.IsClosed() {
		return nil
	}
	b.logger.Warn("Reconnecting to RabbitMQ", "exchange", b.exchange)
	if b.conn != nil && !b.conn.IsClosed() {
		b.conn.Close()
	}
	return b.connect()
}

func (b *AMQPPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", topic, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureConnection(); err != nil {
		return err
	}

	err = b.channel.PublishWithContext(ctx, b.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	b.logger.Debug("Published message", "topic", topic, "bytes", len(body))
	return nil
}

func (b *AMQPPublisher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn.Close()
	}
	return nil
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
