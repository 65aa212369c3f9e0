// Package indexer keeps the forward index (bookmark records holding tags)
// and the inverted index (stem keychains holding bookmark keys) consistent
// across create, update and delete.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/store"
)

// Manager mutates the indexes through atomic store batches. Mutations to
// one bookmark's keychains are serialized by a per-key lock; unrelated
// bookmarks index and unindex fully in parallel.
type Manager struct {
	store  store.Store
	logger logger.Logger
	locks  sync.Map // bookmark key -> *sync.Mutex
	now    func() time.Time
}

func New(st store.Store, log logger.Logger) *Manager {
	return &Manager{store: st, logger: log, now: time.Now}
}

// SetNow overrides the clock. Used in tests.
func (m *Manager) SetNow(now func() time.Time) { m.now = now }

// lock serializes index mutations for one bookmark key.
func (m *Manager) lock(key string) func() {
	mu, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// SaveParams describe one save of a processed URL.
type SaveParams struct {
	URL         string // canonical URL
	MimeType    string
	Title       string
	Tags        []domain.Tag
	ContentHash string // "" when the fetch failed
	User        string
	Public      bool

	// IsUpdate allows saving over an existing reference. A plain create of
	// an already-referenced bookmark is a duplicate.
	IsUpdate bool
}

// Save creates or updates the bookmark for a canonical URL and the caller's
// reference to it, re-indexing only when the content hash changed. The
// bookmark, the reference, and every touched keychain commit in one batch.
func (m *Manager) Save(ctx context.Context, p SaveParams) (*domain.Reference, error) {
	key := domain.BookmarkKey(p.URL)
	unlock := m.lock(key)
	defer unlock()

	now := m.now()

	bookmark, err := m.store.GetBookmark(ctx, key)
	created := false
	switch {
	case errors.Is(err, domain.ErrNotFound):
		bookmark = &domain.Bookmark{Key: key, URL: p.URL, Created: now}
		created = true
	case err != nil:
		return nil, fmt.Errorf("failed to load bookmark for save: %w", err)
	}

	refID := domain.ReferenceID(p.User, key)
	reference, err := m.store.GetReference(ctx, refID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		reference = &domain.Reference{
			ID:          refID,
			User:        p.User,
			BookmarkKey: key,
			Created:     now,
		}
		bookmark.Popularity++
	case err != nil:
		return nil, fmt.Errorf("failed to load reference for save: %w", err)
	default:
		if !p.IsUpdate {
			m.logger.Warn("duplicate reference, bookmark already saved",
				logger.String("user", p.User),
				logger.String("url", p.URL))
			return nil, domain.ErrDuplicateReference
		}
	}
	reference.Public = p.Public
	reference.Updated = now

	batch := &store.Batch{}
	keychains := newWorkingSet(m.store)

	// Hash-gated reindexing: unchanged content keeps its keychains
	// untouched, only ownership and metadata move.
	changed := created || bookmark.ContentHash != p.ContentHash
	if changed {
		if !created {
			m.unindex(ctx, bookmark, keychains, now)
		}
		bookmark.SetTags(p.Tags)
		bookmark.ContentHash = p.ContentHash
	}
	bookmark.MimeType = p.MimeType
	bookmark.Title = p.Title
	bookmark.Public = p.Public
	bookmark.Updated = now
	if changed {
		m.index(ctx, bookmark, keychains, now)
	}

	keychains.appendTo(batch)
	batch.PutBookmarks = append(batch.PutBookmarks, bookmark)
	batch.PutReferences = append(batch.PutReferences, reference)

	if err := m.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to commit save of %s: %w", p.URL, err)
	}

	m.logger.Info("saved bookmark",
		logger.String("user", p.User),
		logger.String("url", p.URL),
		logger.Int("tags", len(bookmark.Stems)),
		logger.Int("popularity", bookmark.Popularity))
	return reference, nil
}

// Delete removes a reference. The bookmark's popularity drops with it; at
// zero the bookmark is unindexed and deleted, otherwise only the decrement
// persists. The reference itself always goes.
func (m *Manager) Delete(ctx context.Context, referenceID string) error {
	reference, err := m.store.GetReference(ctx, referenceID)
	if errors.Is(err, domain.ErrNotFound) {
		m.logger.Warn("couldn't delete reference, doesn't exist",
			logger.String("reference", referenceID))
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load reference for delete: %w", err)
	}

	unlock := m.lock(reference.BookmarkKey)
	defer unlock()

	now := m.now()
	batch := &store.Batch{DeleteReferences: []string{referenceID}}

	bookmark, err := m.store.GetBookmark(ctx, reference.BookmarkKey)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Reference without a bookmark: corrupted state, clean up what we can.
		m.logger.Error("reference points at missing bookmark",
			logger.String("reference", referenceID))
	case err != nil:
		return fmt.Errorf("failed to load bookmark for delete: %w", err)
	default:
		bookmark.Popularity--
		if bookmark.Popularity <= 0 {
			keychains := newWorkingSet(m.store)
			m.unindex(ctx, bookmark, keychains, now)
			keychains.appendTo(batch)
			batch.DeleteBookmarks = append(batch.DeleteBookmarks, bookmark.Key)
		} else {
			batch.PutBookmarks = append(batch.PutBookmarks, bookmark)
		}
	}

	if err := m.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("failed to commit delete of %s: %w", referenceID, err)
	}

	m.logger.Info("deleted reference",
		logger.String("reference", referenceID))
	return nil
}

// Index adds the bookmark's key to the keychain of every stem it carries,
// creating keychains as needed, and commits.
func (m *Manager) Index(ctx context.Context, bookmark *domain.Bookmark) error {
	unlock := m.lock(bookmark.Key)
	defer unlock()

	batch := &store.Batch{}
	keychains := newWorkingSet(m.store)
	m.index(ctx, bookmark, keychains, m.now())
	keychains.appendTo(batch)
	if err := m.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("failed to commit index of %s: %w", bookmark.URL, err)
	}
	return nil
}

// Unindex removes the bookmark's key from every keychain of its stems and
// commits. Keychains left empty are deleted.
func (m *Manager) Unindex(ctx context.Context, bookmark *domain.Bookmark) error {
	unlock := m.lock(bookmark.Key)
	defer unlock()

	batch := &store.Batch{}
	keychains := newWorkingSet(m.store)
	m.unindex(ctx, bookmark, keychains, m.now())
	keychains.appendTo(batch)
	if err := m.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("failed to commit unindex of %s: %w", bookmark.URL, err)
	}
	return nil
}

func (m *Manager) index(ctx context.Context, bookmark *domain.Bookmark, keychains *workingSet, now time.Time) {
	for i, stem := range bookmark.Stems {
		keychain := keychains.get(ctx, stem)
		if keychain == nil {
			keychain = &domain.Keychain{
				Stem:    stem,
				Word:    bookmark.Words[i],
				Created: now,
			}
			keychains.put(keychain)
		}
		if !keychain.HasKey(bookmark.Key) {
			keychain.Keys = append(keychain.Keys, bookmark.Key)
		}
		keychain.Popularity = len(keychain.Keys)
		keychain.Updated = now
	}
}

func (m *Manager) unindex(ctx context.Context, bookmark *domain.Bookmark, keychains *workingSet, now time.Time) {
	for _, stem := range bookmark.Stems {
		keychain := keychains.get(ctx, stem)
		if keychain == nil {
			// Corrupted index state. Log loudly, keep going: the index
			// self-heals on the next reindex.
			m.logger.Error("consistency error: keychain missing for indexed stem",
				logger.String("stem", stem),
				logger.String("bookmark", bookmark.URL))
			continue
		}
		if !keychain.RemoveKey(bookmark.Key) {
			m.logger.Error("consistency error: keychain doesn't have bookmark",
				logger.String("stem", stem),
				logger.String("bookmark", bookmark.URL))
		}
		keychain.Popularity = len(keychain.Keys)
		keychain.Updated = now
	}
}
