package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int) consumer.Record {
	return consumer.Record{Topic: "orders", Key: fmt.Sprintf("k-%d", i), Value: fmt.Sprintf("v-%d", i), Offset: int64(i)}
}

func keys(recs []consumer.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Key)
	}
	return out
}

func TestMemory_Recent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		size    int
		appends int
		limit   int
		want    []string
	}{
		{"empty", 3, 0, 10, []string{}},
		{"partially filled", 3, 2, 0, []string{"k-2", "k-1"}},
		{"wraps around", 3, 5, 0, []string{"k-5", "k-4", "k-3"}},
		{"limit smaller than count", 3, 5, 2, []string{"k-5", "k-4"}},
		{"limit larger than count", 5, 2, 10, []string{"k-2", "k-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory(tt.size)
			for i := 1; i <= tt.appends; i++ {
				require.NoError(t, m.Append(ctx, record(i)))
			}
			got, err := m.Recent(ctx, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(got))
		})
	}
}

func TestMemory_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(50)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Append(ctx, record(i))
		}(i)
	}
	wg.Wait()

	got, err := m.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestHandler_AppendsRecords(t *testing.T) {
	m := NewMemory(5)
	h := Handler(m)
	h.OnMessage(record(1))
	h.OnMessage(record(2))

	got, err := m.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"k-2", "k-1"}, keys(got))
}

func TestNew(t *testing.T) {
	j, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, j)

	cfg := DefaultConfig()
	cfg.Backend = BackendRedis
	j, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, j)
	assert.NoError(t, j.Close())

	cfg.Backend = "etcd"
	_, err = New(cfg)
	assert.ErrorContains(t, err, "unknown journal backend")

	cfg = DefaultConfig()
	cfg.Size = 0
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestRedis_Recent(t *testing.T) {
	mr := miniredis.RunT(t)
	const key = "test:received"

	r := newRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), key, 3)
	defer r.Close()

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, r.Append(ctx, record(i)))
	}

	stored, err := mr.List(key)
	require.NoError(t, err)
	assert.Len(t, stored, 3, "list is trimmed to the journal size")

	tests := []struct {
		name     string
		n        int
		expected []string
	}{
		{"newest first", 2, []string{"k-5", "k-4"}},
		{"limit above size", 10, []string{"k-5", "k-4", "k-3"}},
		{"zero means size", 0, []string{"k-5", "k-4", "k-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := r.Recent(ctx, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, keys(recs))
		})
	}

	recs, err := r.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, record(5).Value, recs[0].Value)
	assert.Equal(t, int64(5), recs[0].Offset)
}

func TestNew_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.RedisAddr = mr.Addr()
	cfg.Size = 2

	j, err := New(cfg)
	require.NoError(t, err)
	defer j.Close()

	h := Handler(j)
	for i := 1; i <= 3; i++ {
		h.OnMessage(record(i))
	}

	recs, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"k-3", "k-2"}, keys(recs))
	assert.True(t, mr.Exists(cfg.RedisKey))
}

func TestRedis_UnavailableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	r := newRedisWithClient(rdb, "test:received", 10)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.ErrorContains(t, r.Append(ctx, record(1)), "redis LPUSH/LTRIM test:received")
	_, err := r.Recent(ctx, 5)
	assert.ErrorContains(t, err, "redis LRANGE test:received")
}

func TestDecodeRecords(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := consumer.Record{Topic: "orders", Key: "k", Value: "v", Partition: 1, Offset: 7, Timestamp: ts}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	got, err := decodeRecords([]string{string(payload)})
	require.NoError(t, err)
	assert.Equal(t, []consumer.Record{rec}, got)

	_, err = decodeRecords([]string{"{"})
	assert.ErrorContains(t, err, "decode record")
}
