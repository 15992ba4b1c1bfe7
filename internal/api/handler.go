package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/journal"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/alejoacosta74/kafka-publisher/internal/publish"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultReceivedLimit = 20
	maxReceivedLimit     = 1000
)

// Dispatcher is the part of dispatch.Coordinator the handlers use.
type Dispatcher interface {
	Dispatch(ctx context.Context, descs []publish.Descriptor) dispatch.Report
	Send(ctx context.Context, d publish.Descriptor) error
}

type Handler struct {
	dispatcher Dispatcher
	journal    journal.Journal
	maxBatch   int
	logger     *logger.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxBatchSize caps the messages a batch or custom request may expand to.
// Values <= 0 keep publish.DefaultMaxBatchSize.
func WithMaxBatchSize(n int) HandlerOption {
	return func(h *Handler) {
		h.maxBatch = n
	}
}

// NewHandler wires the publish endpoints to d. j may be nil when the listener
// is disabled; /received then reports 503.
func NewHandler(d Dispatcher, j journal.Journal, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher: d,
		journal:    j,
		logger:     logger.WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PublishBatch handles POST /publish/batch with query or form parameters
// topic, key, messagePrefix and numberOfMessages.
func (h *Handler) PublishBatch(c *fiber.Ctx) error {
	var req publish.CountRequest
	if err := parseParams(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request parameters: " + err.Error()})
	}
	if req.Count <= 0 {
		return c.Status(fiber.StatusBadRequest).SendString(msgInvalidCount)
	}
	req.MaxBatch = h.maxBatch

	descs, err := req.Normalize()
	if err != nil {
		return validationFailed(c, err)
	}
	return h.dispatch(c, descs)
}

// PublishSingle handles POST /publish/single with query or form parameters
// topic, key and message.
func (h *Handler) PublishSingle(c *fiber.Ctx) error {
	var req publish.SingleRequest
	if err := parseParams(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request parameters: " + err.Error()})
	}

	descs, err := req.Normalize()
	if err != nil {
		return validationFailed(c, err)
	}

	if err := h.dispatcher.Send(c.UserContext(), descs[0]); err != nil {
		h.logger.WithError(err).Errorf("Failed to send message to topic: %s", req.Topic)
		return c.Status(fiber.StatusInternalServerError).SendString(msgSingleFailed + err.Error())
	}
	return c.SendString(msgSingleSent)
}

// PublishCustom handles POST /publish/custom with a JSON body
// {topic, key, messagePrefix, startIndex, endIndex}.
func (h *Handler) PublishCustom(c *fiber.Ctx) error {
	var req publish.RangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	req.MaxBatch = h.maxBatch

	descs, err := req.Normalize()
	if err != nil {
		return validationFailed(c, err)
	}
	return h.dispatch(c, descs)
}

// Received handles GET /received?limit=n.
func (h *Handler) Received(c *fiber.Ctx) error {
	if h.journal == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "Listener is disabled"})
	}

	limit := defaultReceivedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxReceivedLimit {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "limit must be an integer between 1 and " + strconv.Itoa(maxReceivedLimit),
			})
		}
		limit = n
	}

	records, err := h.journal.Recent(c.UserContext(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read received messages")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to read received messages"})
	}
	return c.JSON(ReceivedResponse{Count: len(records), Records: records})
}

func (h *Handler) dispatch(c *fiber.Ctx, descs []publish.Descriptor) error {
	report := h.dispatcher.Dispatch(c.UserContext(), descs)
	if report.Status == dispatch.StatusFailed {
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}
	return c.JSON(report)
}

func validationFailed(c *fiber.Ctx, err error) error {
	if verr, ok := publish.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:      "Validation failed",
			Violations: verr.Violations,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
}

// parseParams fills out from the query string and, for form posts, from the
// body. Body values win over query values.
func parseParams(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return err
	}
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
		return c.BodyParser(out)
	}
	return nil
}
