package api

import (
	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/publish"
)

// Plain-text responses.
const (
	msgInvalidCount = "Number of messages must be greater than 0"
	msgSingleSent   = "Message sent to Kafka"
	msgSingleFailed = "Failed to send message: "
)

// ErrorResponse is the JSON body of every structured error.
type ErrorResponse struct {
	Error      string              `json:"error"`
	Violations []publish.Violation `json:"violations,omitempty"`
}

// ReceivedResponse lists the most recent records seen by the listener,
// newest first.
type ReceivedResponse struct {
	Count   int               `json:"count"`
	Records []consumer.Record `json:"records"`
}
