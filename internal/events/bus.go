// Package events is a small in-process publish/subscribe bus. The consumer
// side publishes received records on it and the metrics recorder subscribes,
// so the broker delivery loop never waits on observers.
package events

import (
	"sync"

	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

const defaultBufferSize = 100

// EventBus implements Bus. Publishing never blocks: when a subscriber's
// buffer is full the event is dropped for that subscriber and counted.
type EventBus struct {
	// subscribers maps topics to a set of subscriber channels
	subscribers   map[Topic]map[chan interface{}]struct{}
	subscribersMu sync.RWMutex

	bufferSize int
	closed     bool

	dropped   uint64
	droppedMu sync.Mutex

	logger *logger.Logger
}

// Option configures an EventBus.
type Option func(*EventBus)

// WithBufferSize sets the buffer size of subscriber channels.
func WithBufferSize(n int) Option {
	return func(b *EventBus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// NewEventBus creates a new EventBus instance.
func NewEventBus(opts ...Option) *EventBus {
	b := &EventBus{
		subscribers: make(map[Topic]map[chan interface{}]struct{}),
		bufferSize:  defaultBufferSize,
		logger:      logger.WithField("component", "event_bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends an event to all subscribers of the specified topic.
// This method is concurrent-safe and non-blocking.
func (b *EventBus) Publish(topic Topic, event interface{}) {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	if b.closed {
		return
	}

	for ch := range b.subscribers[topic] {
		select {
		case ch <- event:
		default:
			b.recordDrop(topic)
		}
	}
}

func (b *EventBus) recordDrop(topic Topic) {
	b.droppedMu.Lock()
	b.dropped++
	n := b.dropped
	b.droppedMu.Unlock()
	b.logger.WithField("topic", topic).Tracef("Subscriber buffer full, dropped %d events so far", n)
}

// Subscribe creates a new subscription to the specified topic.
// The returned channel is buffered; callers must Unsubscribe when done.
// Subscribing to a shut down bus returns a closed channel.
func (b *EventBus) Subscribe(topic Topic) <-chan interface{} {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	ch := make(chan interface{}, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}

	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[chan interface{}]struct{})
	}
	b.subscribers[topic][ch] = struct{}{}

	return ch
}

// Unsubscribe removes a subscriber from the specified topic and closes its
// channel. It is idempotent.
//
// Usage example:
//
//	ch := bus.Subscribe(events.TopicMessageReceived)
//	defer bus.Unsubscribe(events.TopicMessageReceived, ch)
func (b *EventBus) Unsubscribe(topic Topic, ch <-chan interface{}) {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	subscribers, exists := b.subscribers[topic]
	if !exists {
		return
	}

	for subCh := range subscribers {
		// compare channel identity through the receive-only view
		if (<-chan interface{})(subCh) == ch {
			delete(subscribers, subCh)
			close(subCh)
			break
		}
	}

	if len(subscribers) == 0 {
		delete(b.subscribers, topic)
	}
}

// Shutdown closes every subscriber channel. Later publishes are ignored.
func (b *EventBus) Shutdown() {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for topic, subscribers := range b.subscribers {
		for ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
}

// TopicSubscriberCount returns the number of subscribers for a topic.
func (b *EventBus) TopicSubscriberCount(topic Topic) int {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	return len(b.subscribers[topic])
}

// Dropped returns how many events were discarded because a subscriber was
// not keeping up.
func (b *EventBus) Dropped() uint64 {
	b.droppedMu.Lock()
	defer b.droppedMu.Unlock()
	return b.dropped
}
