package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/IBM/sarama"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// saramaProducer implements Producer on top of Sarama's AsyncProducer.
//
// Each ProducerMessage carries its delivery callback in Metadata. Two
// goroutines drain the Successes and Errors channels and resolve the
// callbacks, so SendAsync only has to enqueue the message.
type saramaProducer struct {
	producer sarama.AsyncProducer
	logger   *logger.Logger
	wg       sync.WaitGroup
	mu       sync.RWMutex // protects closed
	closed   bool
}

// newSaramaConfig translates Config into a Sarama configuration.
func newSaramaConfig(cfg Config) *sarama.Config {
	sc := sarama.NewConfig()
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	if cfg.DialTimeout > 0 {
		sc.Net.DialTimeout = cfg.DialTimeout
	}

	switch strings.ToLower(cfg.RequiredAcks) {
	case AcksNone:
		sc.Producer.RequiredAcks = sarama.NoResponse
	case AcksLeader:
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		sc.Producer.RequiredAcks = sarama.WaitForAll
	}
	sc.Producer.Retry.Max = cfg.MaxRetries
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true

	sc.Consumer.Return.Errors = true
	if strings.ToLower(cfg.Consumer.InitialOffset) == OffsetOldest {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	return sc
}

// newSaramaProducer connects an AsyncProducer to the configured brokers.
func newSaramaProducer(cfg Config) (*saramaProducer, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	return wrapSaramaProducer(producer), nil
}

// wrapSaramaProducer starts the result loops for an existing AsyncProducer.
// The producer must have Return.Successes and Return.Errors enabled.
func wrapSaramaProducer(producer sarama.AsyncProducer) *saramaProducer {
	p := &saramaProducer{
		producer: producer,
		logger:   logger.WithField("component", "kafka_producer").WithField("driver", DriverSarama),
	}
	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()
	return p
}

// SendAsync enqueues the message. ctx only bounds the enqueue; delivery
// continues after ctx is done and is reported through cb.
func (p *saramaProducer) SendAsync(ctx context.Context, topic, key, value string, cb dispatch.DeliveryFunc) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProducerClosed
	}

	msg := &sarama.ProducerMessage{
		Topic:    topic,
		Key:      sarama.StringEncoder(key),
		Value:    sarama.StringEncoder(value),
		Metadata: cb,
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to enqueue message for topic %s: %w", topic, ctx.Err())
	}
}

func (p *saramaProducer) handleSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		d := dispatch.Delivery{
			Topic:     msg.Topic,
			Key:       encoderString(msg.Key),
			Partition: msg.Partition,
			Offset:    msg.Offset,
		}
		logDelivery(p.logger, d, nil)
		resolve(msg.Metadata, d, nil)
	}
}

func (p *saramaProducer) handleErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		var d dispatch.Delivery
		var meta interface{}
		if perr.Msg != nil {
			d = dispatch.Delivery{Topic: perr.Msg.Topic, Key: encoderString(perr.Msg.Key)}
			meta = perr.Msg.Metadata
		}
		logDelivery(p.logger, d, perr.Err)
		resolve(meta, d, perr.Err)
	}
}

// Close stops accepting messages, flushes what is buffered and waits until
// every pending callback has been resolved.
func (p *saramaProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("Closing Sarama producer")
	err := p.producer.Close()
	p.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close Sarama producer: %w", err)
	}
	return nil
}

func encoderString(e sarama.Encoder) string {
	if e == nil {
		return ""
	}
	b, err := e.Encode()
	if err != nil {
		return ""
	}
	return string(b)
}
