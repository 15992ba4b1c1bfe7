package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// handleSignals cancels the context on the first SIGINT or SIGTERM, or
// returns when ctx is done for another reason.
func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Infof("Received %s, shutting down", sig)
		cancel()
	case <-ctx.Done():
	}
}
