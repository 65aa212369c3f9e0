// Package redis implements the persistence Store on Redis: JSON-encoded
// records behind prefixed keys, a sorted set for the reverse-chronological
// listing, per-user membership sets, and TxPipeline batches for atomic
// multi-record commits.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/store"
)

// Store handles Redis operations for bookmarks, keychains, references and
// the result cache.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) GetBookmark(ctx context.Context, key string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bookmark %s: %w", key, err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", key, err)
	}
	return &bookmark, nil
}

func (s *Store) GetBookmarks(ctx context.Context, keys []string) ([]*domain.Bookmark, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = BookmarkKey(key)
	}
	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // missing key, skip
		}
		var bookmark domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &bookmark); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", keys[i], err)
		}
		bookmarks = append(bookmarks, &bookmark)
	}
	return bookmarks, nil
}

func (s *Store) ListBookmarks(ctx context.Context, opts store.ListOptions) ([]*domain.Bookmark, error) {
	keys, err := s.listKeys(ctx, opts.Users)
	if err != nil {
		return nil, err
	}

	bookmarks, err := s.GetBookmarks(ctx, keys)
	if err != nil {
		return nil, err
	}

	filtered := bookmarks[:0]
	for _, b := range bookmarks {
		if opts.PublicOnly && !b.Public {
			continue
		}
		if !opts.Before.IsZero() && !b.Updated.Before(opts.Before) {
			continue
		}
		filtered = append(filtered, b)
	}

	// The global sorted set already orders by updated desc, but user-scoped
	// listings come from unordered sets, so sort uniformly.
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Updated.Equal(filtered[j].Updated) {
			return filtered[i].Updated.After(filtered[j].Updated)
		}
		return filtered[i].Key < filtered[j].Key
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// listKeys resolves the candidate bookmark keys for a listing: the global
// by-updated sorted set, or the union of the users' membership sets.
func (s *Store) listKeys(ctx context.Context, users []string) ([]string, error) {
	if len(users) == 0 {
		keys, err := s.client.ZRevRange(ctx, KeyBookmarksByUpdated, 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list bookmark keys: %w", err)
		}
		return keys, nil
	}

	setKeys := make([]string, len(users))
	for i, user := range users {
		setKeys[i] = UserBookmarksKey(user)
	}
	keys, err := s.client.SUnion(ctx, setKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmark keys by user: %w", err)
	}
	return keys, nil
}
