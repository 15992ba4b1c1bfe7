// Package config loads the service configuration from defaults, an optional
// YAML file and KPUB_ environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/journal"
	"github.com/alejoacosta74/kafka-publisher/internal/publish"
	"github.com/alejoacosta74/kafka-publisher/internal/kafka"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KPUB_KAFKA_BROKERS.
const EnvPrefix = "KPUB"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Kafka    kafka.Config   `mapstructure:"kafka"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Journal  journal.Config `mapstructure:"journal"`
	Log      LogConfig      `mapstructure:"log"`
	System   SystemConfig   `mapstructure:"system"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// DispatchConfig mirrors dispatch.Config with a string mode.
type DispatchConfig struct {
	Mode          string        `mapstructure:"mode"`
	BatchTimeout  time.Duration `mapstructure:"batchtimeout"`
	RatePerSecond float64       `mapstructure:"ratepersecond"`
	Burst         int           `mapstructure:"burst"`
	// MaxBatchSize caps the messages one count or range request may expand to.
	MaxBatchSize int `mapstructure:"maxbatchsize"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SystemConfig tunes the Go runtime. Zero values keep the runtime defaults.
type SystemConfig struct {
	MaxProcs      int `mapstructure:"maxprocs"`
	GCPercent     int `mapstructure:"gcpercent"`
	MemoryLimitMB int `mapstructure:"memorylimitmb"`
}

// SetDefaults registers every key with its default value. Keys must be known
// to viper for AutomaticEnv to pick up their environment overrides.
func SetDefaults(v *viper.Viper) {
	k := kafka.DefaultConfig()
	d := dispatch.DefaultConfig()
	j := journal.DefaultConfig()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":2112")

	v.SetDefault("kafka.driver", string(k.Driver))
	v.SetDefault("kafka.brokers", k.Brokers)
	v.SetDefault("kafka.clientid", k.ClientID)
	v.SetDefault("kafka.requiredacks", k.RequiredAcks)
	v.SetDefault("kafka.maxretries", k.MaxRetries)
	v.SetDefault("kafka.dialtimeout", k.DialTimeout)
	v.SetDefault("kafka.poolsize", k.PoolSize)
	v.SetDefault("kafka.breaker.enabled", k.Breaker.Enabled)
	v.SetDefault("kafka.breaker.threshold", k.Breaker.Threshold)
	v.SetDefault("kafka.breaker.timeout", k.Breaker.Timeout)
	v.SetDefault("kafka.consumer.enabled", k.Consumer.Enabled)
	v.SetDefault("kafka.consumer.topic", k.Consumer.Topic)
	v.SetDefault("kafka.consumer.groupid", k.Consumer.GroupID)
	v.SetDefault("kafka.consumer.initialoffset", k.Consumer.InitialOffset)

	v.SetDefault("dispatch.mode", string(d.Mode))
	v.SetDefault("dispatch.batchtimeout", d.BatchTimeout)
	v.SetDefault("dispatch.ratepersecond", d.RatePerSecond)
	v.SetDefault("dispatch.burst", d.Burst)
	v.SetDefault("dispatch.maxbatchsize", publish.DefaultMaxBatchSize)

	v.SetDefault("journal.backend", j.Backend)
	v.SetDefault("journal.size", j.Size)
	v.SetDefault("journal.redisaddr", j.RedisAddr)
	v.SetDefault("journal.rediskey", j.RedisKey)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("system.maxprocs", 0)
	v.SetDefault("system.gcpercent", 0)
	v.SetDefault("system.memorylimitmb", 0)
}

// Load reads the configuration into a Config. file may be empty.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	if _, err := c.Dispatch.ToDispatch(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if c.Dispatch.MaxBatchSize <= 0 {
		return fmt.Errorf("dispatch: max batch size must be greater than 0")
	}
	switch c.Journal.Backend {
	case journal.BackendMemory, journal.BackendRedis:
	default:
		return fmt.Errorf("journal: unknown backend %q", c.Journal.Backend)
	}
	if c.Journal.Size <= 0 {
		return fmt.Errorf("journal: size must be greater than 0")
	}
	return nil
}

// ToDispatch converts the section into a dispatch.Config.
func (d DispatchConfig) ToDispatch() (dispatch.Config, error) {
	mode, err := dispatch.ParseMode(d.Mode)
	if err != nil {
		return dispatch.Config{}, err
	}
	if d.BatchTimeout < 0 {
		return dispatch.Config{}, fmt.Errorf("batch timeout must not be negative")
	}
	return dispatch.Config{
		Mode:          mode,
		BatchTimeout:  d.BatchTimeout,
		RatePerSecond: d.RatePerSecond,
		Burst:         d.Burst,
	}, nil
}
