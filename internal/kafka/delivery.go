package kafka

import (
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// logDelivery writes the per-message outcome reported by a broker client.
func logDelivery(l *logger.Logger, d dispatch.Delivery, err error) {
	if err != nil {
		l.WithError(err).Errorf("Failed to send message to topic: %s", d.Topic)
		return
	}
	l.Debugf("Message sent successfully to topic: %s, partition: %d, offset: %d", d.Topic, d.Partition, d.Offset)
}

// resolve invokes the callback stashed alongside a message, if any.
func resolve(meta interface{}, d dispatch.Delivery, err error) {
	if cb, ok := meta.(dispatch.DeliveryFunc); ok && cb != nil {
		cb(d, err)
	}
}
