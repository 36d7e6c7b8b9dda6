package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cfbfeed/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps one Redis key per snapshot, written with SETNX
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "cfbfeed:snapshot"
	}

	log.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("Successfully connected to redis")

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) redisKey(key models.SnapshotKey) string {
	return fmt.Sprintf("%s:%d:%d:%s", s.prefix, key.Season, key.Week, key.Datatype)
}

// Get returns the payload stored for key
func (s *RedisStore) Get(ctx context.Context, key models.SnapshotKey) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Put writes data only if key does not exist. Snapshots carry no expiry.
func (s *RedisStore) Put(ctx context.Context, key models.SnapshotKey, data []byte) error {
	ok, err := s.client.SetNX(ctx, s.redisKey(key), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to put snapshot %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	return nil
}

// Client returns the underlying client so other components can share the connection
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
