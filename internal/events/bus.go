// Package events publishes domain events after successful writes.
// Publishing is best-effort: a broker failure is logged and counted but never
// returned to the caller, so it cannot change the outcome of a request.
package events

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/circuitbreaker"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/mq"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/otel"
)

// Broker is satisfied by *mq.Publisher.
type Broker interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Bus struct {
	broker Broker
	cb     *circuitbreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBus wraps broker in a circuit breaker. A nil broker yields a bus that drops every event.
func NewBus(broker Broker, cb *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Bus {
	if cb == nil {
		cb = circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())
	}
	return &Bus{broker: broker, cb: cb, logger: logger}
}

// Emit publishes payload under routingKey.
func (b *Bus) Emit(ctx context.Context, routingKey string, payload any) {
	if b == nil || b.broker == nil {
		metrics.IncrementEventPublish(routingKey, "disabled")
		return
	}

	ctx, span := otel.MQPublishSpan(ctx, routingKey, mq.ExchangeName)
	defer span.End()

	err := b.cb.Execute(func() error {
		return b.broker.Publish(ctx, routingKey, payload)
	})

	switch {
	case err == nil:
		metrics.IncrementEventPublish(routingKey, "success")
		return
	case errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen):
		metrics.IncrementEventPublish(routingKey, "circuit_open")
	default:
		metrics.IncrementEventPublish(routingKey, "error")
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.WithTrace(ctx, b.logger).Warn("Failed to publish event",
		zap.String("routing_key", routingKey),
		zap.String("circuit_state", b.cb.GetState().String()),
		zap.Error(err),
	)
}
