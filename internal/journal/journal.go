// Package journal keeps the most recent records received by the listener so
// they can be inspected through the HTTP API.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// appendTimeout bounds a single Append issued from the listener.
const appendTimeout = 2 * time.Second

// Journal stores received records, newest first.
type Journal interface {
	Append(ctx context.Context, rec consumer.Record) error
	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]consumer.Record, error)
	Close() error
}

// Config selects and sizes the backend.
type Config struct {
	Backend   string `mapstructure:"backend"`
	Size      int    `mapstructure:"size"`
	RedisAddr string `mapstructure:"redisaddr"`
	RedisKey  string `mapstructure:"rediskey"`
}

func DefaultConfig() Config {
	return Config{
		Backend:   BackendMemory,
		Size:      100,
		RedisAddr: "localhost:6379",
		RedisKey:  "kafka-publisher:received",
	}
}

// New builds the configured backend.
func New(cfg Config) (Journal, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("journal size must be greater than 0")
	}
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.Size), nil
	case BackendRedis:
		return NewRedis(cfg.RedisAddr, cfg.RedisKey, cfg.Size), nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}

// Handler adapts j to a consumer.Handler. Append errors are logged and
// dropped so a slow or unavailable store never blocks the listener for long.
func Handler(j Journal) consumer.Handler {
	log := logger.WithField("component", "journal")
	return consumer.HandlerFunc(func(rec consumer.Record) {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()
		if err := j.Append(ctx, rec); err != nil {
			log.WithError(err).Warnf("Failed to journal message from topic %s", rec.Topic)
		}
	})
}
