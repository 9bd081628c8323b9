package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallbiznis/valora-connect/internal/repository"
)

// RedisCredentialStore implements CredentialStore backed by Redis.
type RedisCredentialStore struct {
	client redis.UniversalClient
}

var _ repository.CredentialStore = (*RedisCredentialStore)(nil)

// NewRedisCredentialStore constructs a Redis-backed credential store.
func NewRedisCredentialStore(client redis.UniversalClient) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

// Set stores the value under key with the given TTL.
func (s *RedisCredentialStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Get loads the value, returning nil when the key is absent or expired.
func (s *RedisCredentialStore) Get(ctx context.Context, key string) ([]byte, error) {
	bytes, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return bytes, nil
}

// GetDelete atomically reads and removes the key via GETDEL, so a value is
// handed to at most one of any concurrent callers.
func (s *RedisCredentialStore) GetDelete(ctx context.Context, key string) ([]byte, error) {
	bytes, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("consume %s: %w", key, err)
	}
	return bytes, nil
}

// Delete removes the key; deleting an absent key is not an error.
func (s *RedisCredentialStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
