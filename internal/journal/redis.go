package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
	"github.com/redis/go-redis/v9"
)

// Redis keeps the journal in a capped Redis list, so several publisher
// instances can share it and it survives restarts.
type Redis struct {
	rdb  redis.UniversalClient
	key  string
	size int
}

func NewRedis(addr, key string, size int) *Redis {
	return newRedisWithClient(redis.NewClient(&redis.Options{Addr: addr}), key, size)
}

func newRedisWithClient(rdb redis.UniversalClient, key string, size int) *Redis {
	return &Redis{rdb: rdb, key: key, size: size}
}

// Append pushes rec to the head of the list and trims the tail in one
// round trip.
func (r *Redis) Append(ctx context.Context, rec consumer.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, r.key, payload)
	pipe.LTrim(ctx, r.key, 0, int64(r.size-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis LPUSH/LTRIM %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, n int) ([]consumer.Record, error) {
	if n <= 0 || n > r.size {
		n = r.size
	}
	raw, err := r.rdb.LRange(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE %s: %w", r.key, err)
	}
	return decodeRecords(raw)
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func decodeRecords(raw []string) ([]consumer.Record, error) {
	out := make([]consumer.Record, 0, len(raw))
	for _, s := range raw {
		var rec consumer.Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
