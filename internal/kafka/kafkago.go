package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	kafkago "github.com/segmentio/kafka-go"
)

// kafkaGoProducer implements Producer with an asynchronous kafka-go Writer.
// The callback rides along in Message.WriterData and is resolved from the
// writer's Completion hook.
type kafkaGoProducer struct {
	writer *kafkago.Writer
	logger *logger.Logger
	mu     sync.RWMutex // protects closed
	closed bool
}

func newKafkaGoProducer(cfg Config) *kafkaGoProducer {
	p := &kafkaGoProducer{
		logger: logger.WithField("component", "kafka_producer").WithField("driver", DriverKafkaGo),
	}

	acks := kafkago.RequireAll
	switch strings.ToLower(cfg.RequiredAcks) {
	case AcksNone:
		acks = kafkago.RequireNone
	case AcksLeader:
		acks = kafkago.RequireOne
	}

	p.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           acks,
		MaxAttempts:            cfg.MaxRetries + 1,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion:             p.complete,
		Transport: &kafkago.Transport{
			ClientID:    cfg.ClientID,
			DialTimeout: cfg.DialTimeout,
		},
	}
	return p
}

func (p *kafkaGoProducer) SendAsync(ctx context.Context, topic, key, value string, cb dispatch.DeliveryFunc) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProducerClosed
	}

	msg := kafkago.Message{
		Topic:      topic,
		Key:        []byte(key),
		Value:      []byte(value),
		WriterData: cb,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue message for topic %s: %w", topic, err)
	}
	return nil
}

// complete is called by the writer once per written batch.
func (p *kafkaGoProducer) complete(messages []kafkago.Message, err error) {
	for _, m := range messages {
		d := dispatch.Delivery{
			Topic:     m.Topic,
			Key:       string(m.Key),
			Partition: int32(m.Partition),
			Offset:    m.Offset,
		}
		logDelivery(p.logger, d, err)
		resolve(m.WriterData, d, err)
	}
}

// Close flushes pending writes; Completion fires for each before it returns.
func (p *kafkaGoProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("Closing kafka-go writer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka-go writer: %w", err)
	}
	return nil
}

// kafkaGoListener reads the topic through a kafka-go consumer-group Reader,
// which commits offsets on CommitInterval.
type kafkaGoListener struct {
	reader *kafkago.Reader
	topic  string
	logger *logger.Logger
	once   sync.Once
}

func newKafkaGoListener(cfg Config) *kafkaGoListener {
	start := kafkago.LastOffset
	if strings.ToLower(cfg.Consumer.InitialOffset) == OffsetOldest {
		start = kafkago.FirstOffset
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.Consumer.GroupID,
		Topic:          cfg.Consumer.Topic,
		StartOffset:    start,
		CommitInterval: time.Second,
		Dialer: &kafkago.Dialer{
			ClientID: cfg.ClientID,
			Timeout:  cfg.DialTimeout,
		},
	})
	return &kafkaGoListener{
		reader: reader,
		topic:  cfg.Consumer.Topic,
		logger: logger.WithFields(logger.Fields{
			"component": "kafka_consumer",
			"driver":    DriverKafkaGo,
			"group":     cfg.Consumer.GroupID,
		}),
	}
}

func (l *kafkaGoListener) Listen(ctx context.Context, h consumer.Handler) error {
	h = consumer.Safe(h)
	l.logger.Infof("Listening on topic %s", l.topic)
	for {
		m, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			l.logger.WithError(err).Warn("Failed to read message")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
			continue
		}
		h.OnMessage(consumer.Record{
			Topic:     m.Topic,
			Key:       string(m.Key),
			Value:     string(m.Value),
			Partition: int32(m.Partition),
			Offset:    m.Offset,
			Timestamp: m.Time,
		})
	}
}

func (l *kafkaGoListener) Close() error {
	var err error
	l.once.Do(func() {
		l.logger.Info("Closing kafka-go reader")
		err = l.reader.Close()
	})
	return err
}
