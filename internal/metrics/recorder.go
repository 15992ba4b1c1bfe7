package metrics

import (
	"context"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/events"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Recorder records publisher and listener activity as Prometheus metrics.
// It implements dispatch.Observer for the publish side and consumes
// events.TopicMessageReceived for the listener side.
type Recorder struct {
	publisherMetrics struct {
		submitted     *prometheus.CounterVec
		deliveries    *prometheus.CounterVec
		batches       *prometheus.CounterVec
		batchDuration prometheus.Histogram
		batchSize     prometheus.Histogram
	}
	consumerMetrics struct {
		received *prometheus.CounterVec
	}

	eventBus events.Bus
	logger   *logger.Logger
	done     chan struct{}
}

// NewRecorder registers the metrics on reg. Passing a fresh registry keeps
// tests independent of the global default registry.
func NewRecorder(reg prometheus.Registerer, eventBus events.Bus) *Recorder {
	r := &Recorder{
		eventBus: eventBus,
		logger:   logger.WithField("component", "metrics_recorder"),
		done:     make(chan struct{}),
	}
	factory := promauto.With(reg)

	r.publisherMetrics.submitted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "publisher",
		Name:      "messages_submitted_total",
		Help:      "Number of messages handed to the broker client, by topic and result",
	}, []string{"topic", "result"})

	r.publisherMetrics.deliveries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "publisher",
		Name:      "deliveries_total",
		Help:      "Number of delivery outcomes reported by the broker client",
	}, []string{"result"})

	r.publisherMetrics.batches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "publisher",
		Name:      "batches_total",
		Help:      "Number of dispatched batches by final status",
	}, []string{"status"})

	r.publisherMetrics.batchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "publisher",
		Name:      "batch_duration_seconds",
		Help:      "Time spent dispatching a batch",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	r.publisherMetrics.batchSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "publisher",
		Name:      "batch_size_messages",
		Help:      "Number of messages requested per batch",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
	})

	r.consumerMetrics.received = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consumer",
		Name:      "messages_received_total",
		Help:      "Number of messages received by the listener, by topic",
	}, []string{"topic"})

	r.logger.Debug("Metrics recorder initialized")
	return r
}

func (r *Recorder) MessageSubmitted(topic string, err error) {
	r.publisherMetrics.submitted.WithLabelValues(topic, result(err)).Inc()
}

func (r *Recorder) MessageDelivered(_ dispatch.Delivery, err error) {
	r.publisherMetrics.deliveries.WithLabelValues(result(err)).Inc()
}

func (r *Recorder) BatchCompleted(report dispatch.Report, elapsed time.Duration) {
	r.publisherMetrics.batches.WithLabelValues(string(report.Status)).Inc()
	r.publisherMetrics.batchDuration.Observe(elapsed.Seconds())
	r.publisherMetrics.batchSize.Observe(float64(report.TotalRequested))
}

// Start subscribes to received-message events and records them until ctx is
// cancelled.
func (r *Recorder) Start(ctx context.Context) {
	received := r.eventBus.Subscribe(events.TopicMessageReceived)
	r.logger.Debug("Subscribed to received messages")

	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				r.logger.Debug("Context cancelled, stopping metrics recorder")
				r.eventBus.Unsubscribe(events.TopicMessageReceived, received)
				return
			case event, ok := <-received:
				if !ok {
					r.logger.Debug("Received-message channel closed")
					return
				}
				rec, ok := event.(consumer.Record)
				if !ok {
					r.logger.Warnf("Unexpected event type %T on %s", event, events.TopicMessageReceived)
					continue
				}
				r.consumerMetrics.received.WithLabelValues(rec.Topic).Inc()
			}
		}
	}()
}

// Done is closed once the recorder stopped consuming events.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
