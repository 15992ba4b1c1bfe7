//go:generate mockgen -destination=mock_bus.go -package=mocks github.com/alejoacosta74/kafka-publisher/internal/events Bus

package mocks
