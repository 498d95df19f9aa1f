package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"newscycle/internal/core"
)

const (
	DefaultRedisKey  = "newscycle:health:last_run"
	historyKeySuffix = ":history"
	historyLength    = 100
)

// RedisSink SETs the last record as JSON and keeps a capped list of recent ones.
type RedisSink struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSink connects to addr. key defaults to DefaultRedisKey; ttl 0 keeps
// the value forever.
func NewRedisSink(addr, password string, db int, key string, ttl time.Duration) *RedisSink {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSink{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		key:    key,
		ttl:    ttl,
	}
}

// Name implements Sink.
func (s *RedisSink) Name() string { return "redis" }

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, record *core.HealthRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal health record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key, data, s.ttl)
	pipe.LPush(ctx, s.key+historyKeySuffix, data)
	pipe.LTrim(ctx, s.key+historyKeySuffix, 0, historyLength-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish health record to redis: %w", err)
	}
	return nil
}

// Latest reads back the last published record. It returns nil, nil when none exists.
func (s *RedisSink) Latest(ctx context.Context) (*core.HealthRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read health record from redis: %w", err)
	}
	var record core.HealthRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode health record: %w", err)
	}
	return &record, nil
}

// Ping checks the connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
