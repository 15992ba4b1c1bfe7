//go:generate mockgen -destination=mock_sender.go -package=mocks github.com/alejoacosta74/kafka-publisher/internal/dispatch Sender,Observer

package mocks
