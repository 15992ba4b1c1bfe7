// Package dispatch submits batches of message descriptors through an
// asynchronous Sender and aggregates the outcomes into a Report.
//
// A failing message never aborts the batch: per-message failures, whether
// refused synchronously, panicking inside the sender, or nacked by the broker
// in confirmed mode, are counted and the loop moves on. Only failures of the
// loop itself (cancelled context, expired batch deadline, pacing failure)
// mark the report as Failed.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/alejoacosta74/kafka-publisher/internal/publish"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Coordinator dispatches descriptor batches. All counters live on the stack
// of a single Dispatch call, so one Coordinator serves concurrent requests;
// the only shared collaborator is the Sender.
type Coordinator struct {
	sender   Sender
	config   Config
	limiter  *rate.Limiter
	observer Observer
	newID    func() string
	logger   *logger.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithObserver registers an observer for submissions, deliveries and batches.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithIDGenerator replaces the uuid-based batch id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

// New creates a Coordinator dispatching through sender.
//
// Parameters:
//   - sender: the broker client adapter; must be safe for concurrent use
//   - cfg: completion mode, batch deadline and pacing
//   - opts: optional observer / id generator
func New(sender Sender, cfg Config, opts ...Option) *Coordinator {
	if cfg.Mode == "" {
		cfg.Mode = ModeFireAndForget
	}
	c := &Coordinator{
		sender:   sender,
		config:   cfg,
		observer: nopObserver{},
		newID:    uuid.NewString,
		logger:   logger.WithField("component", "dispatch_coordinator"),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the completion mode the coordinator was configured with.
func (c *Coordinator) Mode() Mode {
	return c.config.Mode
}

// Dispatch submits every descriptor and returns the aggregated report.
//
// In fire-and-forget mode the report is built from submission outcomes and
// returned as soon as the last descriptor was submitted. In confirmed mode it
// additionally waits for the delivery callback of every accepted message.
//
// An empty batch yields a Completed report with all counts at zero.
func (c *Coordinator) Dispatch(ctx context.Context, descs []publish.Descriptor) (report Report) {
	start := time.Now()
	report = Report{
		BatchID:        c.newID(),
		TotalRequested: len(descs),
	}
	log := c.logger.WithFields(logger.Fields{
		"batch_id": report.BatchID,
		"total":    report.TotalRequested,
		"mode":     c.config.Mode,
	})

	if c.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.BatchTimeout)
		defer cancel()
	}

	var b batch
	if c.config.Mode == ModeConfirmed {
		b.results = make(chan error, len(descs))
	}

	defer func() {
		if r := recover(); r != nil {
			report = b.fail(report, fmt.Errorf("unexpected error during dispatch: %v", r))
		}
		c.observer.BatchCompleted(report, time.Since(start))
		if report.Status == StatusFailed {
			log.WithField("error", report.Error).Errorf("Batch dispatch failed - Success: %d, Failure: %d",
				report.SuccessCount, report.FailureCount)
			return
		}
		log.Infof("Batch dispatch completed - Success: %d, Failure: %d", report.SuccessCount, report.FailureCount)
	}()

	for _, d := range descs {
		if err := c.pace(ctx); err != nil {
			return b.fail(report, err)
		}

		err := c.submit(ctx, d, c.deliveryCallback(d, b.results))
		c.observer.MessageSubmitted(d.Topic, err)
		if err != nil {
			b.failure++
			log.WithError(err).Errorf("Failed to publish message: %s", d.Value)
			continue
		}
		b.accepted++
		if c.config.Mode == ModeFireAndForget {
			b.success++
		}
		log.Debugf("Successfully published message: %s", d.Value)
	}

	if c.config.Mode == ModeConfirmed {
		if err := b.await(ctx); err != nil {
			return b.fail(report, err)
		}
	}

	report.SuccessCount = b.success
	report.FailureCount = b.failure
	report.Status = StatusCompleted
	return report
}

// Send submits a single descriptor. In fire-and-forget mode it returns the
// submission error; in confirmed mode it also waits for the delivery outcome.
func (c *Coordinator) Send(ctx context.Context, d publish.Descriptor) error {
	if c.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.BatchTimeout)
		defer cancel()
	}
	if err := c.pace(ctx); err != nil {
		return err
	}

	var done chan error
	if c.config.Mode == ModeConfirmed {
		done = make(chan error, 1)
	}
	err := c.submit(ctx, d, c.deliveryCallback(d, done))
	c.observer.MessageSubmitted(d.Topic, err)
	if err != nil || done == nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for delivery: %w", ctx.Err())
	}
}

// pace blocks until the limiter admits the next submission, and fails once
// the batch context is done.
func (c *Coordinator) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch aborted: %w", err)
	}
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// submit calls the sender, turning a panic into an error so a single bad
// send cannot take the batch down with it.
func (c *Coordinator) submit(ctx context.Context, d publish.Descriptor, cb DeliveryFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return c.sender.SendAsync(ctx, d.Topic, d.Key, d.Value, cb)
}

// batch holds the request-scoped counters of one Dispatch call.
type batch struct {
	accepted int
	success  int
	failure  int
	// results collects delivery outcomes in confirmed mode; it is sized to
	// the batch so callbacks never block.
	results chan error
}

// deliveryCallback reports the outcome to the observer and, when sink is
// non-nil, forwards it there without ever blocking the broker client.
func (c *Coordinator) deliveryCallback(d publish.Descriptor, sink chan<- error) DeliveryFunc {
	return func(del Delivery, err error) {
		if del.Topic == "" {
			del.Topic = d.Topic
			del.Key = d.Key
		}
		c.observer.MessageDelivered(del, err)
		if sink == nil {
			return
		}
		select {
		case sink <- err:
		default:
			c.logger.Warnf("Dropping duplicate delivery callback for key %s", d.Key)
		}
	}
}

// await collects one delivery outcome per accepted submission.
func (b *batch) await(ctx context.Context) error {
	for b.accepted > 0 {
		select {
		case err := <-b.results:
			b.accepted--
			b.tally(err)
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %d deliveries: %w", b.accepted, ctx.Err())
		}
	}
	return nil
}

func (b *batch) tally(err error) {
	if err != nil {
		b.failure++
		return
	}
	b.success++
}

// fail finalizes report as Failed with the counts accumulated so far.
func (b *batch) fail(report Report, err error) Report {
	if b.results != nil {
		b.drain()
	}
	report.SuccessCount = b.success
	report.FailureCount = b.failure
	report.Status = StatusFailed
	report.Error = err.Error()
	return report
}

// drain tallies the delivery outcomes that have already arrived.
func (b *batch) drain() {
	for b.accepted > 0 {
		select {
		case err := <-b.results:
			b.accepted--
			b.tally(err)
		default:
			return
		}
	}
}
