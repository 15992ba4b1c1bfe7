package kafka

import (
	"context"
	"errors"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
)

// ErrProducerClosed is returned by SendAsync after Close.
var ErrProducerClosed = errors.New("kafka producer is closed")

// Producer is a dispatch.Sender backed by a broker client connection.
// It is safe for concurrent use.
type Producer interface {
	dispatch.Sender
	// Close flushes buffered messages, resolves their callbacks and releases
	// the connection.
	Close() error
}

// Listener consumes the configured topic as a member of a consumer group.
type Listener interface {
	// Listen invokes h for every delivered record until ctx is cancelled or
	// the listener is closed. Offset commits and rebalancing are handled by
	// the broker client.
	Listen(ctx context.Context, h consumer.Handler) error
	Close() error
}
