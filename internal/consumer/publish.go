package consumer

import "github.com/alejoacosta74/kafka-publisher/internal/events"

// PublishTo returns a handler that forwards every record to the event bus
// under events.TopicMessageReceived.
func PublishTo(bus events.Bus) Handler {
	return HandlerFunc(func(rec Record) {
		bus.Publish(events.TopicMessageReceived, rec)
	})
}
