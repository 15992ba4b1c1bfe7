package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics and /health over plain net/http, separate from
// the publish API.
type Server struct {
	server *http.Server
	logger *logger.Logger
	done   chan struct{}
}

// NewServer serves the metrics gathered by g. When reg is non-nil the
// handler's own request metrics are registered on it as well.
func NewServer(addr string, g prometheus.Gatherer, reg prometheus.Registerer) *Server {
	s := &Server{
		logger: logger.WithField("component", "metrics_server"),
		done:   make(chan struct{}),
	}

	var metricsHandler http.Handler = promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	if reg != nil {
		metricsHandler = promhttp.InstrumentMetricHandler(reg, metricsHandler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Tracef("Metrics request from %s", r.RemoteAddr)
		metricsHandler.ServeHTTP(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("Shutting down metrics server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Error shutting down metrics server")
		}
	}()

	s.logger.Infof("Metrics server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	<-s.done
	s.logger.Info("Metrics server shutdown complete")
	return nil
}
