package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/lumera-labs/lumera-streams/pkg/types"
)

// RedisConfig configures the shared event-log cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisLogStore shares fetched event logs between service instances.
type RedisLogStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLogStore connects and pings Redis.
func NewRedisLogStore(ctx context.Context, cfg RedisConfig) (*RedisLogStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis event cache: %w", err)
	}
	return newRedisLogStore(client, cfg.KeyPrefix, cfg.TTL), nil
}

func newRedisLogStore(client *redis.Client, prefix string, ttl time.Duration) *RedisLogStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "lumera-streams:events"
	}
	return &RedisLogStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisLogStore) key(kind types.EventKind) string {
	return s.prefix + ":" + kind.String()
}

func (s *RedisLogStore) Get(ctx context.Context, kind types.EventKind) ([]types.RawEvent, bool, error) {
	b, err := s.client.Get(ctx, s.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", kind, err)
	}
	var out []types.RawEvent
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, fmt.Errorf("redis decode %s: %w", kind, err)
	}
	return out, true, nil
}

func (s *RedisLogStore) Put(ctx context.Context, kind types.EventKind, events []types.RawEvent) error {
	b, err := json.Marshal(events)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(kind), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}

func (s *RedisLogStore) Close() error { return s.client.Close() }
