package api

import (
	"errors"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp creates the fiber app with the middleware every route shares.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "kafka-publisher",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger())
	return app
}

// errorHandler answers unhandled errors, recovered panics included, with a
// Failed report. Client errors raised by fiber itself keep their code.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).SendString(fe.Message)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dispatch.Report{
		Status: dispatch.StatusFailed,
		Error:  err.Error(),
	})
}

func SetupRoutes(app *fiber.App, h *Handler) {
	kafka := app.Group("/api/kafka")

	kafka.Post("/publish/batch", h.PublishBatch)
	kafka.Post("/publish/single", h.PublishSingle)
	kafka.Post("/publish/custom", h.PublishCustom)
	kafka.Get("/received", h.Received)

	kafka.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

// requestLogger logs every request once it has been handled.
func requestLogger() fiber.Handler {
	log := logger.WithField("component", "http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		entry := log.WithFields(logger.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("Request failed")
		} else {
			entry.Debug("Request handled")
		}
		return err
	}
}
