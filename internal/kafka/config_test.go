package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"franz driver", func(c *Config) { c.Driver = DriverFranz }, ""},
		{"unknown driver", func(c *Config) { c.Driver = "confluent" }, "unknown kafka driver"},
		{"no brokers", func(c *Config) { c.Brokers = nil }, "broker"},
		{"bad acks", func(c *Config) { c.RequiredAcks = "two" }, "required acks"},
		{"zero pool", func(c *Config) { c.PoolSize = 0 }, "pool size"},
		{"breaker threshold", func(c *Config) { c.Breaker.Threshold = 0 }, "threshold"},
		{"breaker disabled ignores threshold", func(c *Config) {
			c.Breaker.Enabled = false
			c.Breaker.Threshold = 0
		}, ""},
		{"missing topic", func(c *Config) { c.Consumer.Topic = "" }, "consumer topic"},
		{"missing group", func(c *Config) { c.Consumer.GroupID = "" }, "group id"},
		{"bad offset", func(c *Config) { c.Consumer.InitialOffset = "middle" }, "initial offset"},
		{"consumer disabled", func(c *Config) {
			c.Consumer.Enabled = false
			c.Consumer.Topic = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewListener_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Consumer.Enabled = false
	_, err := NewListener(cfg)
	assert.ErrorContains(t, err, "disabled")
}

func TestNewProducer_KafkaGoWithBreaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = DriverKafkaGo

	p, err := NewProducer(cfg)
	assert.NoError(t, err)
	bp, ok := p.(*BreakerProducer)
	if assert.True(t, ok) {
		_, ok = bp.Producer.(*kafkaGoProducer)
		assert.True(t, ok)
	}
	assert.NoError(t, p.Close())
}
