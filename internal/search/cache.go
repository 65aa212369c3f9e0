package search

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/codealamode/imiimi/internal/logger"
)

// Cache stores computed rankings. The Redis store implements it; the engine
// treats every cache failure as a miss.
type Cache interface {
	CacheGet(ctx context.Context, key string) ([]byte, bool, error)
	CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// rankCacheKey derives a stable cache key from the query stems. Sorting
// makes "cat dog" and "dog cat" share an entry.
func rankCacheKey(stems []string) string {
	sorted := make([]string, len(stems))
	copy(sorted, stems)
	sort.Strings(sorted)
	sum := md5.Sum([]byte(strings.Join(sorted, " ")))
	return "rank:" + hex.EncodeToString(sum[:])
}

func (e *Engine) cachedRank(ctx context.Context, key string) ([]string, bool) {
	if e.cache == nil {
		return nil, false
	}
	data, ok, err := e.cache.CacheGet(ctx, key)
	if err != nil {
		e.logger.Warn("rank cache read failed", logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		e.logger.Warn("rank cache entry corrupt", logger.Error(err))
		return nil, false
	}
	return keys, true
}

func (e *Engine) storeRank(ctx context.Context, key string, keys []string) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return
	}
	if err := e.cache.CacheSet(ctx, key, data, e.cacheTTL); err != nil {
		e.logger.Warn("rank cache write failed", logger.Error(err))
	}
}
