package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/kafka"
	"github.com/alejoacosta74/kafka-publisher/internal/publish"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, kafka.DriverSarama, cfg.Kafka.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "ss-test-cg-test1", cfg.Kafka.Consumer.GroupID)
	assert.Equal(t, 10*time.Second, cfg.Kafka.DialTimeout)
	assert.Equal(t, "memory", cfg.Journal.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, publish.DefaultMaxBatchSize, cfg.Dispatch.MaxBatchSize)

	dc, err := cfg.Dispatch.ToDispatch()
	require.NoError(t, err)
	assert.Equal(t, dispatch.DefaultConfig(), dc)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KPUB_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("KPUB_KAFKA_DRIVER", "franz")
	t.Setenv("KPUB_DISPATCH_MODE", "confirmed")
	t.Setenv("KPUB_DISPATCH_BATCHTIMEOUT", "5s")
	t.Setenv("KPUB_KAFKA_CONSUMER_ENABLED", "false")
	t.Setenv("KPUB_DISPATCH_MAXBATCHSIZE", "500")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, kafka.DriverFranz, cfg.Kafka.Driver)
	assert.False(t, cfg.Kafka.Consumer.Enabled)
	assert.Equal(t, 500, cfg.Dispatch.MaxBatchSize)

	dc, err := cfg.Dispatch.ToDispatch()
	require.NoError(t, err)
	assert.Equal(t, dispatch.ModeConfirmed, dc.Mode)
	assert.Equal(t, 5*time.Second, dc.BatchTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publisher.yaml")
	content := `
http:
  addr: ":9000"
kafka:
  driver: kafkago
  brokers: ["k1:9092"]
  consumer:
    topic: audit
    initialoffset: oldest
dispatch:
  ratepersecond: 250
  burst: 10
journal:
  backend: redis
  redisaddr: "redis:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, kafka.DriverKafkaGo, cfg.Kafka.Driver)
	assert.Equal(t, "audit", cfg.Kafka.Consumer.Topic)
	assert.Equal(t, "oldest", cfg.Kafka.Consumer.InitialOffset)
	assert.Equal(t, "ss-test-cg-test1", cfg.Kafka.Consumer.GroupID, "unset keys keep defaults")
	assert.Equal(t, 250.0, cfg.Dispatch.RatePerSecond)
	assert.Equal(t, "redis", cfg.Journal.Backend)
	assert.Equal(t, "redis:6379", cfg.Journal.RedisAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, v *viper.Viper)
		wantErr string
	}{
		{"unknown mode", func(t *testing.T, _ *viper.Viper) { t.Setenv("KPUB_DISPATCH_MODE", "eventually") }, "dispatch"},
		{"unknown driver", func(t *testing.T, _ *viper.Viper) { t.Setenv("KPUB_KAFKA_DRIVER", "librdkafka") }, "kafka"},
		{"unknown journal", func(t *testing.T, _ *viper.Viper) { t.Setenv("KPUB_JOURNAL_BACKEND", "disk") }, "journal"},
		{"zero max batch size", func(_ *testing.T, v *viper.Viper) { v.Set("dispatch.maxbatchsize", 0) }, "max batch size"},
		{"empty http addr", func(_ *testing.T, v *viper.Viper) { v.Set("http.addr", "") }, "http.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(t, v)
			_, err := Load(v, "")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
