package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kfake"
)

type franzDelivery struct {
	d   dispatch.Delivery
	err error
}

func newFakeCluster(t *testing.T, topic string) Config {
	t.Helper()
	c, err := kfake.NewCluster(kfake.NumBrokers(1), kfake.SeedTopics(1, topic))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	cfg := DefaultConfig()
	cfg.Driver = DriverFranz
	cfg.Brokers = c.ListenAddrs()
	cfg.Consumer.Topic = topic
	cfg.Consumer.GroupID = "franz-test-group"
	cfg.Consumer.InitialOffset = OffsetOldest
	return cfg
}

func TestFranzProducer_DeliversToListener(t *testing.T) {
	cfg := newFakeCluster(t, "orders")

	p, err := newFranzProducer(cfg)
	require.NoError(t, err)

	delivered := make(chan franzDelivery, 1)
	require.NoError(t, p.SendAsync(context.Background(), "orders", "order-1", "payload-1", func(d dispatch.Delivery, err error) {
		delivered <- franzDelivery{d: d, err: err}
	}))

	select {
	case got := <-delivered:
		require.NoError(t, got.err)
		assert.Equal(t, "orders", got.d.Topic)
		assert.Equal(t, "order-1", got.d.Key)
		assert.Equal(t, int32(0), got.d.Partition)
		assert.GreaterOrEqual(t, got.d.Offset, int64(0))
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the delivery callback")
	}
	require.NoError(t, p.Close())

	l, err := newFranzListener(cfg)
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan consumer.Record, 1)
	done := make(chan error, 1)
	go func() {
		done <- l.Listen(ctx, consumer.HandlerFunc(func(rec consumer.Record) {
			select {
			case received <- rec:
			default:
			}
		}))
	}()

	select {
	case rec := <-received:
		assert.Equal(t, "orders", rec.Topic)
		assert.Equal(t, "order-1", rec.Key)
		assert.Equal(t, "payload-1", rec.Value)
		assert.Equal(t, int64(0), rec.Offset)
	case <-time.After(15 * time.Second):
		t.Fatal("timed out waiting for the listener to deliver the record")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after cancellation")
	}
}

func TestFranzProducer_RejectsAfterClose(t *testing.T) {
	cfg := newFakeCluster(t, "orders")

	p, err := newFranzProducer(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err = p.SendAsync(context.Background(), "orders", "k", "v", func(dispatch.Delivery, error) {
		t.Error("callback must not run when SendAsync fails")
	})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestFranzProducer_CancelledContext(t *testing.T) {
	cfg := newFakeCluster(t, "orders")

	p, err := newFranzProducer(cfg)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.SendAsync(ctx, "orders", "k", "v", func(dispatch.Delivery, error) {
		t.Error("callback must not run when SendAsync fails")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProducer_Franz(t *testing.T) {
	cfg := newFakeCluster(t, "orders")
	cfg.Breaker.Enabled = false

	p, err := NewProducer(cfg)
	require.NoError(t, err)
	_, ok := p.(*franzProducer)
	assert.True(t, ok, "expected *franzProducer, got %T", p)
	require.NoError(t, p.Close())
}
