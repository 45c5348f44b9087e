// Package mq publishes domain events to RabbitMQ.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/trace"
)

// ExchangeName is the durable topic exchange every event goes to.
const ExchangeName = "events"

const (
	connectionName = "task-manager"
	heartbeat      = 10 * time.Second
)

type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	mu      sync.Mutex
}

// NewPublisher dials url, opens a channel and declares the events exchange.
func NewPublisher(url string) (*Publisher, error) {
	cfg := amqp091.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: amqp091.NewConnectionProperties(),
	}
	cfg.Properties.SetClientConnectionName(connectionName)

	conn, err := amqp091.DialConfig(url, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", ExchangeName, err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// IsConnected reports whether the connection and channel are both still open.
func (p *Publisher) IsConnected() bool {
	if p.conn == nil || p.channel == nil {
		return false
	}
	return !p.conn.IsClosed() && !p.channel.IsClosed()
}

// Publish sends payload as persistent JSON under routingKey. The trace id in
// ctx, if any, travels as the message correlation id.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: trace.FromContext(ctx),
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
}
