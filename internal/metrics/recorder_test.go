package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/events"
	"github.com/alejoacosta74/kafka-publisher/internal/events/mocks"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observer(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry, events.NewEventBus())

	r.MessageSubmitted("orders", nil)
	r.MessageSubmitted("orders", nil)
	r.MessageSubmitted("orders", errors.New("queue full"))
	r.MessageDelivered(dispatch.Delivery{Topic: "orders"}, nil)
	r.MessageDelivered(dispatch.Delivery{Topic: "orders"}, errors.New("not leader"))
	r.BatchCompleted(dispatch.Report{TotalRequested: 3, SuccessCount: 2, FailureCount: 1, Status: dispatch.StatusCompleted}, 20*time.Millisecond)
	r.BatchCompleted(dispatch.Report{TotalRequested: 5, Status: dispatch.StatusFailed}, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.publisherMetrics.submitted.WithLabelValues("orders", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publisherMetrics.submitted.WithLabelValues("orders", resultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publisherMetrics.deliveries.WithLabelValues(resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publisherMetrics.deliveries.WithLabelValues(resultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publisherMetrics.batches.WithLabelValues("Completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publisherMetrics.batches.WithLabelValues("Failed")))

	families, err := registry.Gather()
	require.NoError(t, err)
	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	require.Contains(t, byName, "publisher_batch_duration_seconds")
	hist := byName["publisher_batch_duration_seconds"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 1.02, hist.GetSampleSum(), 0.0001)
}

func TestRecorder_RecordsReceivedMessages(t *testing.T) {
	tests := []struct {
		name     string
		events   []interface{}
		expected map[string]float64
	}{
		{
			name: "records per topic",
			events: []interface{}{
				consumer.Record{Topic: "orders", Key: "a"},
				consumer.Record{Topic: "orders", Key: "b"},
				consumer.Record{Topic: "audit", Key: "c"},
			},
			expected: map[string]float64{"orders": 2, "audit": 1},
		},
		{
			name: "ignores unexpected event types",
			events: []interface{}{
				"not a record",
				42,
				consumer.Record{Topic: "orders"},
			},
			expected: map[string]float64{"orders": 1},
		},
		{
			name:     "no events",
			expected: map[string]float64{"orders": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			ch := make(chan interface{}, len(tt.events))
			var recv <-chan interface{} = ch

			mockBus := mocks.NewMockBus(ctrl)
			mockBus.EXPECT().Subscribe(events.TopicMessageReceived).Return(recv)
			mockBus.EXPECT().Unsubscribe(events.TopicMessageReceived, recv).Times(1)

			r := NewRecorder(prometheus.NewRegistry(), mockBus)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			r.Start(ctx)

			for _, e := range tt.events {
				ch <- e
			}

			assert.Eventually(t, func() bool { return len(ch) == 0 }, time.Second, 5*time.Millisecond)
			// the last event may still be in flight after the channel drained
			for topic, want := range tt.expected {
				topic, want := topic, want
				assert.Eventually(t, func() bool {
					return testutil.ToFloat64(r.consumerMetrics.received.WithLabelValues(topic)) == want
				}, time.Second, 5*time.Millisecond, "topic %s", topic)
			}

			cancel()
			select {
			case <-r.Done():
			case <-time.After(time.Second):
				t.Fatal("recorder did not stop")
			}
		})
	}
}

func TestRecorder_WithEventBus(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Shutdown()

	r := NewRecorder(prometheus.NewRegistry(), bus)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	handler := consumer.PublishTo(bus)
	handler.OnMessage(consumer.Record{Topic: "orders"})

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(r.consumerMetrics.received.WithLabelValues("orders")) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-r.Done()
	assert.Equal(t, 0, bus.TopicSubscriberCount(events.TopicMessageReceived))
}
