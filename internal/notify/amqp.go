package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/config"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// AMQPSender publishes messages to a topic exchange, routed by kind.
// The channel runs in confirm mode and a message counts as delivered once
// the broker acks it.
type AMQPSender struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration

	// Confirm-mode publishing on one channel is serialised.
	mu sync.Mutex
}

// NewAMQPSender dials the broker, declares the exchange and enables
// publisher confirms.
func NewAMQPSender(cfg config.AMQPConfig) (*AMQPSender, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	// Durable so the exchange survives broker restarts.
	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}

	return &AMQPSender{conn: conn, ch: ch, exchange: cfg.Exchange, timeout: cfg.ConfirmTimeout}, nil
}

// Send publishes a persistent JSON message and waits for the broker ack.
// Every failure is logged and reported as false.
func (s *AMQPSender) Send(ctx context.Context, kind model.NotificationKind, subject, body, recipient string) bool {
	msg := Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   subject,
		Body:      body,
		Recipient: recipient,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "rabbitmq: marshal message failed", "kind", kind, "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	confirm, err := s.ch.PublishWithDeferredConfirmWithContext(ctx,
		s.exchange,   // exchange
		string(kind), // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.CreatedAt,
			Type:         string(kind),
			Body:         payload,
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "rabbitmq: publish failed", "kind", kind, "error", err)
		return false
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "rabbitmq: waiting for confirm failed", "kind", kind, "message_id", msg.ID, "error", err)
		return false
	}
	if !acked {
		slog.WarnContext(ctx, "rabbitmq: broker nacked message", "kind", kind, "message_id", msg.ID)
	}
	return acked
}

// Close closes the channel and the connection.
func (s *AMQPSender) Close() error {
	_ = s.ch.Close()
	return s.conn.Close()
}

// Open picks the sender for cfg: messages are only logged when running
// locally and published to the broker everywhere else. The returned func
// releases the sender.
func Open(cfg config.Config, logger *slog.Logger) (Sender, func() error, error) {
	if cfg.Local() {
		return NewLogSender(logger), func() error { return nil }, nil
	}
	s, err := NewAMQPSender(cfg.AMQP)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
