package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// retryBackoff is how long a listener waits before rejoining after an error.
const retryBackoff = time.Second

// saramaListener joins a Sarama consumer group and hands every claimed
// message to a consumer.Handler.
type saramaListener struct {
	group  sarama.ConsumerGroup
	topic  string
	logger *logger.Logger
	once   sync.Once
}

func newSaramaListener(cfg Config) (*saramaListener, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.Consumer.GroupID, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama consumer group %s: %w", cfg.Consumer.GroupID, err)
	}
	return &saramaListener{
		group: group,
		topic: cfg.Consumer.Topic,
		logger: logger.WithFields(logger.Fields{
			"component": "kafka_consumer",
			"driver":    DriverSarama,
			"group":     cfg.Consumer.GroupID,
		}),
	}, nil
}

// Listen runs consumer-group sessions until ctx is cancelled or the group is
// closed. A session ends on every rebalance, so Consume is called in a loop.
func (l *saramaListener) Listen(ctx context.Context, h consumer.Handler) error {
	go func() {
		for err := range l.group.Errors() {
			l.logger.WithError(err).Error("Consumer group error")
		}
	}()

	gh := &groupHandler{handler: consumer.Safe(h), logger: l.logger}
	l.logger.Infof("Listening on topic %s", l.topic)
	for {
		err := l.group.Consume(ctx, []string{l.topic}, gh)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case err != nil:
			l.logger.WithError(err).Warn("Consumer session ended with error, rejoining")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
		}
	}
}

func (l *saramaListener) Close() error {
	var err error
	l.once.Do(func() {
		l.logger.Info("Closing Sarama consumer group")
		err = l.group.Close()
	})
	return err
}

// groupHandler implements sarama.ConsumerGroupHandler.
type groupHandler struct {
	handler consumer.Handler
	logger  *logger.Logger
}

func (g *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	g.logger.Debugf("Consumer session started, member %s generation %d", sess.MemberID(), sess.GenerationID())
	return nil
}

func (g *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks each message after the handler has seen it, so offsets
// advance even when processing fails.
func (g *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			g.handler.OnMessage(consumer.Record{
				Topic:     msg.Topic,
				Key:       string(msg.Key),
				Value:     string(msg.Value),
				Partition: msg.Partition,
				Offset:    msg.Offset,
				Timestamp: msg.Timestamp,
			})
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}
