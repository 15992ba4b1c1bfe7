package cmd

import (
	"os"

	"github.com/alejoacosta74/kafka-publisher/internal/config"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kafka-publisher",
	Short: "HTTP publish facade and listener for Kafka",
	Long: `kafka-publisher exposes HTTP endpoints that publish single messages,
numbered batches and index ranges to a Kafka topic, and runs a consumer-group
listener that logs what it receives.

Configuration is read from an optional YAML file (--config) and KPUB_*
environment variables, e.g. KPUB_KAFKA_BROKERS=broker-1:9092,broker-2:9092.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringSlice("brokers", nil, "Kafka broker addresses, overrides kafka.brokers")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("kafka.brokers", rootCmd.PersistentFlags().Lookup("brokers"))
}

// loadConfig reads the configuration and applies the log settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return config.Config{}, err
	}
	if err := logger.SetFormat(cfg.Log.Format); err != nil {
		return config.Config{}, err
	}
	logger.Debugf("Loaded configuration: %+v", cfg)
	return cfg, nil
}
