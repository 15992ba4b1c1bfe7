// Package consumer defines the callback invoked for every record the broker
// client delivers from the subscribed topic. The broker client owns polling,
// offset commits and rebalancing; handlers only observe records.
package consumer

import (
	"fmt"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// Record is one message received from the broker.
type Record struct {
	Topic     string    `json:"topic"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Partition int32     `json:"partition"`
	Offset    int64     `json:"offset"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler is called once per delivered record. Implementations must not
// panic into the caller's delivery loop; use Safe to guarantee that.
type Handler interface {
	OnMessage(rec Record)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(rec Record)

func (f HandlerFunc) OnMessage(rec Record) { f(rec) }

// LoggingHandler logs every received record.
type LoggingHandler struct {
	logger *logger.Logger
}

// NewLoggingHandler returns the handler used by the listener by default.
func NewLoggingHandler() *LoggingHandler {
	return &LoggingHandler{
		logger: logger.WithField("component", "kafka_consumer"),
	}
}

func (h *LoggingHandler) OnMessage(rec Record) {
	log := h.logger.WithFields(logger.Fields{
		"topic": rec.Topic,
		"key":   rec.Key,
	})
	log.Infof("Received message - Topic: %s, Key: %s", rec.Topic, rec.Key)
	log.Infof("Message value: %s", rec.Value)
	log.Infof("Offset %d and Partition %d", rec.Offset, rec.Partition)
}

// Safe wraps h so that a panic while handling a record is logged and
// swallowed instead of unwinding the broker client's delivery loop.
func Safe(h Handler) Handler {
	log := logger.WithField("component", "kafka_consumer")
	return HandlerFunc(func(rec Record) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logger.Fields{
					"topic": rec.Topic,
					"key":   rec.Key,
					"error": fmt.Sprint(r),
				}).Errorf("Error processing message - Topic: %s, Key: %s", rec.Topic, rec.Key)
			}
		}()
		h.OnMessage(rec)
	})
}

// Chain fans a record out to every handler in order. Each handler is
// isolated with Safe, so one failing handler does not starve the others.
func Chain(handlers ...Handler) Handler {
	safe := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			safe = append(safe, Safe(h))
		}
	}
	return HandlerFunc(func(rec Record) {
		for _, h := range safe {
			h.OnMessage(rec)
		}
	})
}
