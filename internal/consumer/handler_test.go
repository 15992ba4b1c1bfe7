package consumer

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/events"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		Topic:     "orders",
		Key:       "k-1",
		Value:     "m-1",
		Partition: 2,
		Offset:    17,
		Timestamp: time.Unix(1700000000, 0),
	}
}

func TestLoggingHandler_OnMessage(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	NewLoggingHandler().OnMessage(testRecord())

	out := buf.String()
	assert.Contains(t, out, "Received message - Topic: orders, Key: k-1")
	assert.Contains(t, out, "Message value: m-1")
	assert.Contains(t, out, "Offset 17 and Partition 2")
}

func TestSafe_SwallowsPanics(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	h := Safe(HandlerFunc(func(Record) { panic("boom") }))

	assert.NotPanics(t, func() { h.OnMessage(testRecord()) })
	assert.Contains(t, buf.String(), "Error processing message - Topic: orders, Key: k-1")
}

func TestChain_ContinuesAfterPanickingHandler(t *testing.T) {
	var got []string
	h := Chain(
		HandlerFunc(func(r Record) { got = append(got, "first:"+r.Key) }),
		HandlerFunc(func(Record) { panic("boom") }),
		nil,
		HandlerFunc(func(r Record) { got = append(got, "last:"+r.Key) }),
	)

	h.OnMessage(testRecord())

	assert.Equal(t, []string{"first:k-1", "last:k-1"}, got)
}

func TestPublishTo(t *testing.T) {
	bus := events.NewEventBus()
	ch := bus.Subscribe(events.TopicMessageReceived)
	defer bus.Unsubscribe(events.TopicMessageReceived, ch)

	PublishTo(bus).OnMessage(testRecord())

	select {
	case ev := <-ch:
		rec, ok := ev.(Record)
		require.True(t, ok)
		assert.Equal(t, testRecord(), rec)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for record event")
	}
}
