package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/indexer"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/store/memory"
	"github.com/codealamode/imiimi/internal/tagger"
	"github.com/codealamode/imiimi/internal/tokenizer"
)

type testEnv struct {
	store   *memory.Store
	manager *indexer.Manager
	engine  *Engine
	stop    *tokenizer.StopWords
}

func newTestEnv(perPage int) *testEnv {
	st := memory.New()
	m := indexer.New(st, logger.Nop())

	// Deterministic, strictly increasing clock: later saves are "fresher".
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time {
		current = current.Add(time.Minute)
		return current
	})

	stop := tokenizer.NewStopWords([]string{"the", "and"}, "")
	return &testEnv{
		store:   st,
		manager: m,
		engine:  New(st, nil, stop, logger.Nop(), perPage, time.Hour),
		stop:    stop,
	}
}

// save indexes a bookmark the way the full pipeline would: the word list is
// auto-tagged and the content hash derives from the words.
func (env *testEnv) save(t *testing.T, user, url string, public bool, words ...string) *domain.Reference {
	t.Helper()
	ref, err := env.manager.Save(context.Background(), indexer.SaveParams{
		URL:         url,
		Title:       url,
		Tags:        tagger.AutoTag(words, env.stop, 0),
		ContentHash: "hash:" + strings.Join(words, ","),
		User:        user,
		Public:      public,
	})
	require.NoError(t, err)
	return ref
}

func urls(result *Result) []string {
	out := make([]string, len(result.Bookmarks))
	for i, b := range result.Bookmarks {
		out[i] = b.URL
	}
	return out
}

func TestSearchRanksByMatchedStemsThenWeight(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://both.example.com/", true, "cats", "cats", "dogs")
	env.save(t, "bob", "http://dogs.example.com/", true, "dogs", "dogs")
	env.save(t, "carol", "http://cats.example.com/", true, "cats", "cats")

	result, err := env.engine.Search(ctx, Params{Query: "cats dogs"})
	require.NoError(t, err)

	// both.example.com matches two stems and wins outright. The single-stem
	// matches tie on weight and popularity, so the fresher save ranks first.
	assert.Equal(t, []string{
		"http://both.example.com/",
		"http://cats.example.com/",
		"http://dogs.example.com/",
	}, urls(result))
	assert.False(t, result.More)
}

func TestSearchMatchesStemmedForms(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://cats.example.com/", true, "cats")

	// Singular query, plural content: both reduce to the same stem.
	result, err := env.engine.Search(ctx, Params{Query: "cat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://cats.example.com/"}, urls(result))
}

func TestSearchHidesPrivateBookmarksFromOthers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://public.example.com/", true, "cats")
	env.save(t, "alice", "http://private.example.com/", false, "cats")

	anon, err := env.engine.Search(ctx, Params{Query: "cats"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://public.example.com/"}, urls(anon))

	bob, err := env.engine.Search(ctx, Params{Query: "cats", Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://public.example.com/"}, urls(bob))

	alice, err := env.engine.Search(ctx, Params{Query: "cats", Actor: "alice"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"http://public.example.com/",
		"http://private.example.com/",
	}, urls(alice))
}

func TestSearchRestrictedToUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://alice.example.com/", true, "cats")
	env.save(t, "bob", "http://bob.example.com/", true, "cats")

	result, err := env.engine.Search(ctx, Params{Query: "cats", Users: []string{"bob"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://bob.example.com/"}, urls(result))

	none, err := env.engine.Search(ctx, Params{Query: "dogs", Users: []string{"bob"}})
	require.NoError(t, err)
	assert.Empty(t, none.Bookmarks)
}

func TestSearchFallsBackToListingWithoutQueryWords(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://older.example.com/", true, "cats")
	env.save(t, "alice", "http://newer.example.com/", true, "dogs")
	env.save(t, "alice", "http://private.example.com/", false, "mice")

	// No query at all: newest first, public only for anonymous callers.
	result, err := env.engine.Search(ctx, Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://newer.example.com/",
		"http://older.example.com/",
	}, urls(result))

	// Stop-word-only queries degrade the same way.
	result, err = env.engine.Search(ctx, Params{Query: "the and"})
	require.NoError(t, err)
	assert.Len(t, result.Bookmarks, 2)

	// Users-only query: same listing scoped to the user; browsing their own
	// bookmarks includes private ones.
	result, err = env.engine.Search(ctx, Params{Users: []string{"alice"}, Actor: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://private.example.com/",
		"http://newer.example.com/",
		"http://older.example.com/",
	}, urls(result))
}

func TestSearchPagination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(2)

	env.save(t, "alice", "http://one.example.com/", true, "cats")
	env.save(t, "alice", "http://two.example.com/", true, "cats", "cats")
	env.save(t, "alice", "http://three.example.com/", true, "cats", "cats", "cats")

	page0, err := env.engine.Search(ctx, Params{Query: "cats", Page: 0})
	require.NoError(t, err)
	assert.Len(t, page0.Bookmarks, 2)
	assert.True(t, page0.More)

	page1, err := env.engine.Search(ctx, Params{Query: "cats", Page: 1})
	require.NoError(t, err)
	assert.Len(t, page1.Bookmarks, 1)
	assert.False(t, page1.More)

	page2, err := env.engine.Search(ctx, Params{Query: "cats", Page: 2})
	require.NoError(t, err)
	assert.Empty(t, page2.Bookmarks)
	assert.False(t, page2.More)

	// No overlap between pages.
	for _, b0 := range page0.Bookmarks {
		for _, b1 := range page1.Bookmarks {
			assert.NotEqual(t, b0.Key, b1.Key)
		}
	}
}

func TestSearchBeforeCutoff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://older.example.com/", true, "cats")
	older, err := env.store.GetBookmark(ctx, domain.BookmarkKey("http://older.example.com/"))
	require.NoError(t, err)
	env.save(t, "alice", "http://newer.example.com/", true, "cats")

	result, err := env.engine.Search(ctx, Params{
		Query:  "cats",
		Before: older.Updated.Add(time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://older.example.com/"}, urls(result))
}

func TestSearchOrderingIsTransitive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://a.example.com/", true, "cats", "cats", "cats", "dogs")
	env.save(t, "bob", "http://b.example.com/", true, "cats", "cats", "dogs", "dogs")
	env.save(t, "carol", "http://c.example.com/", true, "cats")

	keys, err := env.engine.SearchGeneric(ctx, "cats dogs", nil)
	require.NoError(t, err)
	require.Len(t, keys, 3)

	// Repeated runs must produce the identical total order.
	for i := 0; i < 5; i++ {
		again, err := env.engine.SearchGeneric(ctx, "cats dogs", nil)
		require.NoError(t, err)
		assert.Equal(t, keys, again)
	}
}

func TestCountRelevant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	env.save(t, "alice", "http://both.example.com/", true, "cats", "dogs")
	env.save(t, "bob", "http://cats.example.com/", true, "cats")

	count, err := env.engine.CountRelevant(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = env.engine.CountRelevant(ctx, "cats dogs")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = env.engine.CountRelevant(ctx, "ferrets")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = env.engine.CountRelevant(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Stemming applies to counting too.
	count, err = env.engine.CountRelevant(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

type recordingCache struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string][]byte)}
}

func (c *recordingCache) CacheGet(_ context.Context, key string) ([]byte, bool, error) {
	c.gets++
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *recordingCache) CacheSet(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.entries[key] = value
	return nil
}

func TestSearchGenericCachesWordOnlyQueries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)
	cache := newRecordingCache()
	env.engine.cache = cache

	env.save(t, "alice", "http://cats.example.com/", true, "cats")

	first, err := env.engine.SearchGeneric(ctx, "cats", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := env.engine.SearchGeneric(ctx, "cats", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets, "second run should be served from cache")

	// Word order must not fragment the cache.
	env.save(t, "alice", "http://dogs.example.com/", true, "dogs", "cats")
	_, err = env.engine.SearchGeneric(ctx, "cats dogs", nil)
	require.NoError(t, err)
	setsAfter := cache.sets
	_, err = env.engine.SearchGeneric(ctx, "dogs cats", nil)
	require.NoError(t, err)
	assert.Equal(t, setsAfter, cache.sets)

	// User-restricted queries bypass the cache entirely.
	getsBefore := cache.gets
	_, err = env.engine.SearchGeneric(ctx, "cats", []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, getsBefore, cache.gets)
}

func TestSearchGenericSentinels(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(10)

	_, err := env.engine.SearchGeneric(ctx, "", nil)
	assert.ErrorIs(t, err, domain.ErrNoQuery)

	_, err = env.engine.SearchGeneric(ctx, "the", nil)
	assert.ErrorIs(t, err, domain.ErrNoQuery)

	_, err = env.engine.SearchGeneric(ctx, "", []string{"alice"})
	assert.ErrorIs(t, err, domain.ErrGenericQuery)
}
