package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Delivery is the broker's acknowledgment for one message.
type Delivery struct {
	Topic     string
	Key       string
	Partition int32
	Offset    int64
}

// DeliveryFunc receives the terminal outcome of one accepted submission:
// the delivery metadata on success, or the error reported by the broker
// client.
type DeliveryFunc func(Delivery, error)

// Sender is the asynchronous send primitive the coordinator dispatches
// through. It is implemented by the broker client adapters in internal/kafka.
//
// SendAsync must not block on delivery. A non-nil return means the message
// was not accepted for delivery; in that case cb is never called. For every
// accepted message cb is called exactly once, possibly from another
// goroutine. Implementations must be safe for concurrent use.
type Sender interface {
	SendAsync(ctx context.Context, topic, key, value string, cb DeliveryFunc) error
}

// Mode selects what counts as a successful message in a report.
type Mode string

const (
	// ModeFireAndForget counts a message as successful once the sender has
	// accepted it. Broker acknowledgments are only logged and observed.
	ModeFireAndForget Mode = "fire-and-forget"
	// ModeConfirmed counts a message as successful only once the broker has
	// acknowledged it. The report is finalized after every accepted message
	// reached a terminal state, or the batch deadline passed.
	ModeConfirmed Mode = "confirmed"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFireAndForget:
		return ModeFireAndForget, nil
	case ModeConfirmed:
		return ModeConfirmed, nil
	default:
		return "", fmt.Errorf("unknown dispatch mode %q (want %q or %q)", s, ModeFireAndForget, ModeConfirmed)
	}
}

// Status is the overall outcome of a batch.
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Report is the aggregated result of one Dispatch call.
//
// When Status is Completed, SuccessCount+FailureCount == TotalRequested.
// When Status is Failed the counts are whatever had accumulated when the
// batch was abandoned and Error says why.
type Report struct {
	BatchID        string `json:"batchId,omitempty"`
	TotalRequested int    `json:"totalRequested"`
	SuccessCount   int    `json:"successCount"`
	FailureCount   int    `json:"failureCount"`
	Status         Status `json:"status"`
	Error          string `json:"error,omitempty"`
}

// Config controls how batches are dispatched.
type Config struct {
	Mode Mode
	// BatchTimeout bounds a whole Dispatch call, including the wait for
	// acknowledgments in confirmed mode. Zero disables it.
	BatchTimeout time.Duration
	// RatePerSecond paces submissions. Zero or negative disables pacing.
	RatePerSecond float64
	// Burst is the limiter bucket size, used only when pacing is enabled.
	Burst int
}

// DefaultConfig returns the fire-and-forget configuration without pacing.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeFireAndForget,
		BatchTimeout: 30 * time.Second,
		Burst:        1,
	}
}

// Observer is notified about dispatch activity. The metrics recorder
// implements it.
type Observer interface {
	// MessageSubmitted is called after every submission attempt; err is
	// non-nil when the sender refused the message or panicked.
	MessageSubmitted(topic string, err error)
	// MessageDelivered is called with the asynchronous delivery outcome.
	MessageDelivered(d Delivery, err error)
	// BatchCompleted is called once per Dispatch call with the final report.
	BatchCompleted(r Report, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) MessageSubmitted(string, error)        {}
func (nopObserver) MessageDelivered(Delivery, error)      {}
func (nopObserver) BatchCompleted(Report, time.Duration) {}
