package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/twmb/franz-go/pkg/kgo"
)

// franzOpts translates Config into the franz-go client options shared by the
// producer and the listener.
func franzOpts(cfg Config) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.DialTimeout > 0 {
		opts = append(opts, kgo.DialTimeout(cfg.DialTimeout))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.MaxRetries))
	}

	// idempotent writes require acks from all in-sync replicas
	switch strings.ToLower(cfg.RequiredAcks) {
	case AcksNone:
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case AcksLeader:
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}
	return opts
}

// franzProducer implements Producer with franz-go's promise-based Produce.
type franzProducer struct {
	client *kgo.Client
	logger *logger.Logger
	mu     sync.RWMutex // protects closed
	closed bool
}

func newFranzProducer(cfg Config) (*franzProducer, error) {
	client, err := kgo.NewClient(franzOpts(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create franz-go client: %w", err)
	}
	return &franzProducer{
		client: client,
		logger: logger.WithField("component", "kafka_producer").WithField("driver", DriverFranz),
	}, nil
}

// SendAsync buffers the record. franz-go fails a buffered record whose
// context is cancelled, so the caller's cancellation is detached: delivery
// outlives the request that submitted it.
func (p *franzProducer) SendAsync(ctx context.Context, topic, key, value string, cb dispatch.DeliveryFunc) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProducerClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to enqueue message for topic %s: %w", topic, err)
	}

	rec := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: []byte(value),
	}
	p.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		d := dispatch.Delivery{
			Topic:     r.Topic,
			Key:       string(r.Key),
			Partition: r.Partition,
			Offset:    r.Offset,
		}
		logDelivery(p.logger, d, err)
		if cb != nil {
			cb(d, err)
		}
	})
	return nil
}

// Close flushes buffered records, which resolves their promises, and then
// closes the client.
func (p *franzProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("Closing franz-go producer")
	err := p.client.Flush(context.Background())
	p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to flush franz-go producer: %w", err)
	}
	return nil
}

// franzListener polls fetches as a member of a franz-go consumer group.
// Offsets are autocommitted by the client.
type franzListener struct {
	client *kgo.Client
	topic  string
	logger *logger.Logger
	once   sync.Once
}

func newFranzListener(cfg Config) (*franzListener, error) {
	reset := kgo.NewOffset().AtEnd()
	if strings.ToLower(cfg.Consumer.InitialOffset) == OffsetOldest {
		reset = kgo.NewOffset().AtStart()
	}
	opts := append(franzOpts(cfg),
		kgo.ConsumerGroup(cfg.Consumer.GroupID),
		kgo.ConsumeTopics(cfg.Consumer.Topic),
		kgo.ConsumeResetOffset(reset),
	)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create franz-go consumer: %w", err)
	}
	return &franzListener{
		client: client,
		topic:  cfg.Consumer.Topic,
		logger: logger.WithFields(logger.Fields{
			"component": "kafka_consumer",
			"driver":    DriverFranz,
			"group":     cfg.Consumer.GroupID,
		}),
	}, nil
}

func (l *franzListener) Listen(ctx context.Context, h consumer.Handler) error {
	h = consumer.Safe(h)
	l.logger.Infof("Listening on topic %s", l.topic)
	for {
		fetches := l.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			l.logger.WithError(err).Errorf("Fetch failed for topic %s partition %d", topic, partition)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			h.OnMessage(consumer.Record{
				Topic:     r.Topic,
				Key:       string(r.Key),
				Value:     string(r.Value),
				Partition: r.Partition,
				Offset:    r.Offset,
				Timestamp: r.Timestamp,
			})
		})
	}
}

func (l *franzListener) Close() error {
	l.once.Do(func() {
		l.logger.Info("Closing franz-go consumer")
		l.client.Close()
	})
	return nil
}
