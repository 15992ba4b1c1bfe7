package events

// Topic names a stream of in-process events.
type Topic string

const (
	// TopicMessageReceived carries a consumer.Record for every message the
	// listener received from the broker.
	TopicMessageReceived Topic = "message_received"
)

// Bus defines the interface for event bus operations
type Bus interface {
	// Publish sends an event to all subscribers of the specified topic
	Publish(topic Topic, event interface{})
	// Subscribe returns a channel that receives events for the specified topic
	Subscribe(topic Topic) <-chan interface{}
	// Unsubscribe removes a subscriber channel from the specified topic
	Unsubscribe(topic Topic, ch <-chan interface{})
}
