// internal/session/redis.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"explainer/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values under <prefix>:<id>:<key> with a TTL.
type RedisStore struct {
	client *database.RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) key(id, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, id, key)
}

func (s *RedisStore) Get(ctx context.Context, id, key string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	v, err := s.client.Get(ctx, s.key(id, key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Put(ctx context.Context, id, key, value string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(id, key), value, s.ttl); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
