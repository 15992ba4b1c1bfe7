package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/api"
	"github.com/alejoacosta74/kafka-publisher/internal/config"
	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/events"
	"github.com/alejoacosta74/kafka-publisher/internal/journal"
	"github.com/alejoacosta74/kafka-publisher/internal/kafka"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/alejoacosta74/kafka-publisher/internal/metrics"
	"github.com/alejoacosta74/kafka-publisher/internal/system"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP publish API and the topic listener",
	Long: `Run the HTTP publish API under /api/kafka, the Prometheus metrics server
and, unless disabled, the consumer-group listener. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("driver", "sarama", "Kafka client driver (sarama, franz, kafkago)")
	serveCmd.Flags().String("mode", "fire-and-forget", "dispatch mode (fire-and-forget, confirmed)")
	viper.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("kafka.driver", serveCmd.Flags().Lookup("driver"))
	viper.BindPFlag("dispatch.mode", serveCmd.Flags().Lookup("mode"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	system.FromConfig(cfg.System).Apply()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go handleSignals(ctx, cancel)

	if err := kafka.CheckClusterAvailability(cfg.Kafka.Brokers, cfg.Kafka.DialTimeout); err != nil {
		logger.WithError(err).Warn("Kafka cluster is not reachable yet, continuing startup")
	}

	bus := events.NewEventBus()
	defer bus.Shutdown()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry, bus)
	recorder.Start(ctx)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close producer")
		}
	}()

	dcfg, err := cfg.Dispatch.ToDispatch()
	if err != nil {
		return err
	}
	coordinator := dispatch.New(producer, dcfg, dispatch.WithObserver(recorder))

	var (
		j        journal.Journal
		listener kafka.Listener
	)
	if cfg.Kafka.Consumer.Enabled {
		if j, err = journal.New(cfg.Journal); err != nil {
			return fmt.Errorf("failed to create journal: %w", err)
		}
		defer j.Close()
		if listener, err = kafka.NewListener(cfg.Kafka); err != nil {
			return fmt.Errorf("failed to create listener: %w", err)
		}
	}

	app := api.NewApp()
	api.SetupRoutes(app, api.NewHandler(coordinator, j, api.WithMaxBatchSize(cfg.Dispatch.MaxBatchSize)))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Addr, registry, registry)
		g.Go(func() error { return server.Start(gctx) })
	}

	if listener != nil {
		handler := consumer.Chain(
			consumer.NewLoggingHandler(),
			consumer.PublishTo(bus),
			journal.Handler(j),
		)
		g.Go(func() error { return listener.Listen(gctx, handler) })
		g.Go(func() error {
			<-gctx.Done()
			return listener.Close()
		})
	}

	logServeSummary(cfg, coordinator.Mode())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func logServeSummary(cfg config.Config, mode dispatch.Mode) {
	logger.WithFields(logger.Fields{
		"driver":   cfg.Kafka.Driver,
		"brokers":  cfg.Kafka.Brokers,
		"mode":     mode,
		"listener": cfg.Kafka.Consumer.Enabled,
		"topic":    cfg.Kafka.Consumer.Topic,
		"journal":  cfg.Journal.Backend,
	}).Info("kafka-publisher started")
}
