package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// producerPool spreads submissions over several producers, each with its own
// broker connections. A producer is borrowed for the duration of one
// SendAsync call and handed back right after.
type producerPool struct {
	producers chan Producer
	size      int
	logger    *logger.Logger
	mu        sync.RWMutex // held for reading by in-flight SendAsync calls
	closed    bool
}

// newProducerPool creates size producers with newFn.
//
// Parameters:
//   - size: Number of producers in the pool
//   - newFn: Factory for a single producer
//
// Returns:
//   - *producerPool: The started pool
//   - error: If any producer fails to start; producers created so far are closed
func newProducerPool(size int, newFn func() (Producer, error)) (*producerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be greater than 0")
	}

	pool := &producerPool{
		producers: make(chan Producer, size),
		size:      size,
		logger:    logger.WithField("component", "kafka_producer_pool"),
	}

	for i := 0; i < size; i++ {
		producer, err := newFn()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create producer %d: %w", i, err)
		}
		pool.producers <- producer
	}

	pool.logger.Infof("Producer pool started with %d producers", size)
	return pool, nil
}

// SendAsync borrows a producer, submits through it and returns it to the pool.
func (p *producerPool) SendAsync(ctx context.Context, topic, key, value string, cb dispatch.DeliveryFunc) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProducerClosed
	}

	select {
	case producer := <-p.producers:
		defer func() { p.producers <- producer }()
		return producer.SendAsync(ctx, topic, key, value, cb)
	case <-ctx.Done():
		return fmt.Errorf("operation cancelled by caller: %w", ctx.Err())
	}
}

// Close stops lending producers, waits for in-flight submissions and closes
// every producer. All producers are closed even if some fail.
func (p *producerPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.logger.Info("Stopping producer pool...")
	var errs []error
	for len(p.producers) > 0 {
		producer := <-p.producers
		if err := producer.Close(); err != nil {
			p.logger.WithError(err).Error("Failed to close producer")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
