package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/circuitbreaker"
)

// Driver names a broker client library.
type Driver string

const (
	DriverSarama  Driver = "sarama"
	DriverFranz   Driver = "franz"
	DriverKafkaGo Driver = "kafkago"
)

// Acks values accepted by Config.RequiredAcks.
const (
	AcksAll    = "all"
	AcksLeader = "leader"
	AcksNone   = "none"
)

// Initial offsets accepted by ConsumerConfig.InitialOffset.
const (
	OffsetOldest = "oldest"
	OffsetNewest = "newest"
)

// Config holds the broker connection settings shared by every driver.
type Config struct {
	Driver       Driver         `mapstructure:"driver"`
	Brokers      []string       `mapstructure:"brokers"`
	ClientID     string         `mapstructure:"clientid"`
	RequiredAcks string         `mapstructure:"requiredacks"`
	MaxRetries   int            `mapstructure:"maxretries"`
	DialTimeout  time.Duration  `mapstructure:"dialtimeout"`
	PoolSize     int            `mapstructure:"poolsize"`
	Breaker      BreakerConfig  `mapstructure:"breaker"`
	Consumer     ConsumerConfig `mapstructure:"consumer"`
}

// BreakerConfig configures the circuit breaker around the producer.
type BreakerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Threshold int           `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ConsumerConfig describes the listener subscription.
type ConsumerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Topic         string `mapstructure:"topic"`
	GroupID       string `mapstructure:"groupid"`
	InitialOffset string `mapstructure:"initialoffset"`
}

// DefaultConfig returns settings for a local single-broker cluster.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSarama,
		Brokers:      []string{"localhost:9092"},
		ClientID:     "kafka-publisher",
		RequiredAcks: AcksAll,
		MaxRetries:   3,
		DialTimeout:  10 * time.Second,
		PoolSize:     1,
		Breaker: BreakerConfig{
			Enabled:   true,
			Threshold: 5,
			Timeout:   30 * time.Second,
		},
		Consumer: ConsumerConfig{
			Enabled:       true,
			Topic:         "test-topic",
			GroupID:       "ss-test-cg-test1",
			InitialOffset: OffsetNewest,
		},
	}
}

// Validate checks the settings every driver depends on.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSarama, DriverFranz, DriverKafkaGo:
	default:
		return fmt.Errorf("unknown kafka driver %q", c.Driver)
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker address is required")
	}
	switch strings.ToLower(c.RequiredAcks) {
	case AcksAll, AcksLeader, AcksNone:
	default:
		return fmt.Errorf("invalid required acks %q", c.RequiredAcks)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be at least 1")
	}
	if c.Breaker.Enabled && c.Breaker.Threshold < 1 {
		return fmt.Errorf("breaker threshold must be at least 1")
	}
	if c.Consumer.Enabled {
		if c.Consumer.Topic == "" {
			return fmt.Errorf("consumer topic is required when the consumer is enabled")
		}
		if c.Consumer.GroupID == "" {
			return fmt.Errorf("consumer group id is required when the consumer is enabled")
		}
		switch strings.ToLower(c.Consumer.InitialOffset) {
		case OffsetOldest, OffsetNewest:
		default:
			return fmt.Errorf("invalid initial offset %q", c.Consumer.InitialOffset)
		}
	}
	return nil
}

// NewProducer creates the producer for the configured driver, pooled when
// PoolSize is above one and guarded by a circuit breaker when enabled.
func NewProducer(cfg Config) (Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		producer Producer
		err      error
	)
	if cfg.PoolSize > 1 {
		producer, err = newProducerPool(cfg.PoolSize, func() (Producer, error) { return newDriverProducer(cfg) })
	} else {
		producer, err = newDriverProducer(cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Breaker.Enabled {
		producer = NewBreakerProducer(producer, circuitbreaker.NewCircuitBreaker(cfg.Breaker.Threshold, cfg.Breaker.Timeout))
	}
	return producer, nil
}

func newDriverProducer(cfg Config) (Producer, error) {
	switch cfg.Driver {
	case DriverFranz:
		p, err := newFranzProducer(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverKafkaGo:
		return newKafkaGoProducer(cfg), nil
	default:
		p, err := newSaramaProducer(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// NewListener creates the consumer-group listener for the configured driver.
func NewListener(cfg Config) (Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Consumer.Enabled {
		return nil, fmt.Errorf("consumer is disabled")
	}
	switch cfg.Driver {
	case DriverFranz:
		l, err := newFranzListener(cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	case DriverKafkaGo:
		return newKafkaGoListener(cfg), nil
	default:
		l, err := newSaramaListener(cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}
