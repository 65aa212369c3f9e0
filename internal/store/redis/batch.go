package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/codealamode/imiimi/internal/store"
)

// Commit applies a batch through a transactional pipeline, so the forward
// index, the inverted index and the derived sets change together or not at
// all. A failed exec leaves nothing applied; the caller treats that as fatal
// for the enclosing operation.
func (s *Store) Commit(ctx context.Context, batch *store.Batch) error {
	if batch.Empty() {
		return nil
	}

	pipe := s.client.TxPipeline()

	for _, b := range batch.PutBookmarks {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", b.Key, err)
		}
		pipe.Set(ctx, BookmarkKey(b.Key), data, 0)
		pipe.ZAdd(ctx, KeyBookmarksByUpdated, redis.Z{
			Score:  float64(b.Updated.UnixNano()),
			Member: b.Key,
		})
	}

	for _, k := range batch.PutKeychains {
		data, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("failed to marshal keychain %s: %w", k.Stem, err)
		}
		pipe.Set(ctx, KeychainKey(k.Stem), data, 0)
	}

	for _, r := range batch.PutReferences {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal reference %s: %w", r.ID, err)
		}
		pipe.Set(ctx, ReferenceKey(r.ID), data, 0)
		pipe.SAdd(ctx, UserBookmarksKey(r.User), r.BookmarkKey)
	}

	for _, key := range batch.DeleteBookmarks {
		pipe.Del(ctx, BookmarkKey(key))
		pipe.ZRem(ctx, KeyBookmarksByUpdated, key)
	}

	for _, stem := range batch.DeleteKeychains {
		pipe.Del(ctx, KeychainKey(stem))
	}

	for _, id := range batch.DeleteReferences {
		pipe.Del(ctx, ReferenceKey(id))
		if user, bookmarkKey, ok := splitReferenceID(id); ok {
			pipe.SRem(ctx, UserBookmarksKey(user), bookmarkKey)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// splitReferenceID recovers (user, bookmark key) from a reference ID.
// Bookmark keys are hex digests and never contain "/".
func splitReferenceID(id string) (user, bookmarkKey string, ok bool) {
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}
