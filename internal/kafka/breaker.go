package kafka

import (
	"context"

	"github.com/alejoacosta74/kafka-publisher/internal/circuitbreaker"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
)

// BreakerProducer guards a Producer with a circuit breaker. Synchronous
// submission errors and failed deliveries both count as failures; while the
// breaker is open, submissions are rejected without reaching the broker
// client.
type BreakerProducer struct {
	Producer
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerProducer wraps p with cb.
func NewBreakerProducer(p Producer, cb *circuitbreaker.CircuitBreaker) *BreakerProducer {
	return &BreakerProducer{Producer: p, breaker: cb}
}

func (b *BreakerProducer) SendAsync(ctx context.Context, topic, key, value string, cb dispatch.DeliveryFunc) error {
	if !b.breaker.AllowRequest() {
		return b.breaker.OpenError()
	}
	err := b.Producer.SendAsync(ctx, topic, key, value, func(d dispatch.Delivery, derr error) {
		b.breaker.RecordResult(derr)
		if cb != nil {
			cb(d, derr)
		}
	})
	if err != nil {
		b.breaker.RecordResult(err)
	}
	return err
}

// State exposes the breaker state for health reporting.
func (b *BreakerProducer) State() circuitbreaker.State {
	return b.breaker.State()
}
