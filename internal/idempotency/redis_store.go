package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists dedup markers and in-flight locks.
type Store interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	IsDone(ctx context.Context, key string) (bool, error)
	MarkDone(ctx context.Context, key string, ttl time.Duration) error
}

// RedisStore is the Redis-backed Store used in production.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, lockKey(key), 1, ttl).Result()
	if err != nil {
		s.log.Error("failed to acquire dedup lock", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return acquired, nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("release dedup lock %q: %w", key, err)
	}

	return nil
}

func (s *RedisStore) IsDone(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, doneKey(key)).Result()
	if err != nil {
		s.log.Error("failed to check dedup marker", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return n > 0, nil
}

func (s *RedisStore) MarkDone(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, doneKey(key), 1, ttl).Err(); err != nil {
		return fmt.Errorf("mark update %q processed: %w", key, err)
	}

	return nil
}

func doneKey(key string) string {
	return fmt.Sprintf("update:dedup:%s", key)
}

func lockKey(key string) string {
	return fmt.Sprintf("update:dedup:%s:lock", key)
}
