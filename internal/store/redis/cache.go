package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheGet retrieves a cached search computation. A miss is (nil, false),
// not an error.
func (s *Store) CacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, CacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached results: %w", err)
	}
	return data, true, nil
}

// CacheSet stores a search computation with a TTL. Callers treat failures
// as best-effort: logged, never surfaced.
func (s *Store) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, CacheKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache results: %w", err)
	}
	return nil
}
