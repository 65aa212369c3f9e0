package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/store/memory"
)

func testManager() (*Manager, *memory.Store) {
	st := memory.New()
	return New(st, logger.Nop()), st
}

func fishTags() []domain.Tag {
	return []domain.Tag{
		{Stem: "fish", Word: "fish", Count: 1.0},
		{Stem: "tank", Word: "tank", Count: 0.5},
	}
}

func TestSaveCreatesBookmarkReferenceAndKeychains(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	ref, err := m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		MimeType:    "text/html",
		Title:       "Example",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "alice",
		Public:      true,
	})
	require.NoError(t, err)

	key := domain.BookmarkKey("http://example.com/")
	assert.Equal(t, domain.ReferenceID("alice", key), ref.ID)
	assert.Equal(t, key, ref.BookmarkKey)

	b, err := st.GetBookmark(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Example", b.Title)
	assert.Equal(t, 1, b.Popularity)
	assert.Equal(t, []string{"fish", "tank"}, b.Stems)

	for _, stem := range []string{"fish", "tank"} {
		k, err := st.GetKeychain(ctx, stem)
		require.NoError(t, err)
		assert.Equal(t, []string{key}, k.Keys)
		assert.Equal(t, 1, k.Popularity)
	}

	ok, err := st.HasReference(ctx, "alice", key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveThenDeleteLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	ref, err := m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Title:       "Example",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "alice",
	})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, ref.ID))

	_, err = st.GetBookmark(ctx, ref.BookmarkKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.GetReference(ctx, ref.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	for _, stem := range []string{"fish", "tank"} {
		_, err = st.GetKeychain(ctx, stem)
		assert.ErrorIs(t, err, domain.ErrNotFound, "keychain %s should be gone", stem)
	}
}

func TestSaveUnchangedHashLeavesKeychainsAlone(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	_, err := m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Title:       "Example",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "alice",
	})
	require.NoError(t, err)

	before, err := st.GetKeychain(ctx, "fish")
	require.NoError(t, err)

	// Same content hash: metadata may move, the index must not churn. The
	// tags deliberately differ to prove they are ignored.
	_, err = m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Title:       "Example (renamed)",
		Tags:        []domain.Tag{{Stem: "shark", Word: "shark", Count: 1.0}},
		ContentHash: "hash-1",
		User:        "alice",
		IsUpdate:    true,
	})
	require.NoError(t, err)

	after, err := st.GetKeychain(ctx, "fish")
	require.NoError(t, err)
	assert.Equal(t, before.Keys, after.Keys)
	assert.Equal(t, before.Popularity, after.Popularity)
	assert.Equal(t, before.Updated, after.Updated)

	_, err = st.GetKeychain(ctx, "shark")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	b, err := st.GetBookmark(ctx, domain.BookmarkKey("http://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, "Example (renamed)", b.Title)
	assert.Equal(t, []string{"fish", "tank"}, b.Stems)
}

func TestSaveChangedHashReindexes(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	_, err := m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "alice",
	})
	require.NoError(t, err)

	_, err = m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Tags:        []domain.Tag{{Stem: "shark", Word: "shark", Count: 1.0}},
		ContentHash: "hash-2",
		User:        "alice",
		IsUpdate:    true,
	})
	require.NoError(t, err)

	key := domain.BookmarkKey("http://example.com/")

	k, err := st.GetKeychain(ctx, "shark")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, k.Keys)

	for _, stem := range []string{"fish", "tank"} {
		_, err = st.GetKeychain(ctx, stem)
		assert.ErrorIs(t, err, domain.ErrNotFound, "stale keychain %s should be gone", stem)
	}
}

func TestDuplicateCreateRejected(t *testing.T) {
	ctx := context.Background()
	m, _ := testManager()

	params := SaveParams{
		URL:         "http://example.com/",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "alice",
	}
	_, err := m.Save(ctx, params)
	require.NoError(t, err)

	_, err = m.Save(ctx, params)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestReferenceCountingAcrossUsers(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	aliceRef, err := m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "alice",
	})
	require.NoError(t, err)

	bobRef, err := m.Save(ctx, SaveParams{
		URL:         "http://example.com/",
		Tags:        fishTags(),
		ContentHash: "hash-1",
		User:        "bob",
	})
	require.NoError(t, err)

	key := domain.BookmarkKey("http://example.com/")
	b, err := st.GetBookmark(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Popularity)

	// First delete: bookmark survives with decremented popularity.
	require.NoError(t, m.Delete(ctx, aliceRef.ID))

	b, err = st.GetBookmark(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Popularity)

	k, err := st.GetKeychain(ctx, "fish")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, k.Keys)

	// Last delete: bookmark and keychains go with it.
	require.NoError(t, m.Delete(ctx, bobRef.ID))

	_, err = st.GetBookmark(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.GetKeychain(ctx, "fish")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteMissingReference(t *testing.T) {
	ctx := context.Background()
	m, _ := testManager()

	err := m.Delete(ctx, domain.ReferenceID("alice", "deadbeef"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexUnindexRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	bookmark := &domain.Bookmark{Key: "k1", URL: "http://example.com/"}
	bookmark.SetTags(fishTags())

	require.NoError(t, m.Index(ctx, bookmark))

	k, err := st.GetKeychain(ctx, "fish")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, k.Keys)

	require.NoError(t, m.Unindex(ctx, bookmark))

	for _, stem := range []string{"fish", "tank"} {
		_, err = st.GetKeychain(ctx, stem)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestUnindexSharedKeychainKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	m, st := testManager()

	first := &domain.Bookmark{Key: "k1", URL: "http://one.example.com/"}
	first.SetTags(fishTags())
	second := &domain.Bookmark{Key: "k2", URL: "http://two.example.com/"}
	second.SetTags([]domain.Tag{{Stem: "fish", Word: "fish", Count: 1.0}})

	require.NoError(t, m.Index(ctx, first))
	require.NoError(t, m.Index(ctx, second))

	k, err := st.GetKeychain(ctx, "fish")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"k1", "k2"}, k.Keys)
	assert.Equal(t, 2, k.Popularity)

	require.NoError(t, m.Unindex(ctx, first))

	k, err = st.GetKeychain(ctx, "fish")
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, k.Keys)
	assert.Equal(t, 1, k.Popularity)
}
