package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/codealamode/imiimi/internal/domain"
)

func (s *Store) GetKeychain(ctx context.Context, stem string) (*domain.Keychain, error) {
	data, err := s.client.Get(ctx, KeychainKey(stem)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get keychain %s: %w", stem, err)
	}

	var keychain domain.Keychain
	if err := json.Unmarshal(data, &keychain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keychain %s: %w", stem, err)
	}
	return &keychain, nil
}

func (s *Store) GetReference(ctx context.Context, id string) (*domain.Reference, error) {
	data, err := s.client.Get(ctx, ReferenceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reference %s: %w", id, err)
	}

	var reference domain.Reference
	if err := json.Unmarshal(data, &reference); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reference %s: %w", id, err)
	}
	return &reference, nil
}

func (s *Store) HasReference(ctx context.Context, user, bookmarkKey string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, UserBookmarksKey(user), bookmarkKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check reference %s/%s: %w", user, bookmarkKey, err)
	}
	return ok, nil
}

func (s *Store) BookmarkKeysByUser(ctx context.Context, user string) ([]string, error) {
	keys, err := s.client.SMembers(ctx, UserBookmarksKey(user)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks of %s: %w", user, err)
	}
	return keys, nil
}
