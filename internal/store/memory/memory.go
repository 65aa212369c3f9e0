// Package memory provides an in-memory Store used by tests and as a
// fallback when Redis is unavailable.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	bookmarks  map[string]*domain.Bookmark  // key -> bookmark
	keychains  map[string]*domain.Keychain  // stem -> keychain
	references map[string]*domain.Reference // id -> reference
	byUser     map[string]map[string]bool   // user -> set of bookmark keys
}

func New() *Store {
	return &Store{
		bookmarks:  make(map[string]*domain.Bookmark),
		keychains:  make(map[string]*domain.Keychain),
		references: make(map[string]*domain.Reference),
		byUser:     make(map[string]map[string]bool),
	}
}

func (s *Store) GetBookmark(_ context.Context, key string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *Store) GetBookmarks(_ context.Context, keys []string) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookmarks := make([]*domain.Bookmark, 0, len(keys))
	for _, key := range keys {
		if b, ok := s.bookmarks[key]; ok {
			copied := *b
			bookmarks = append(bookmarks, &copied)
		}
	}
	return bookmarks, nil
}

func (s *Store) ListBookmarks(_ context.Context, opts store.ListOptions) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scope map[string]bool
	if len(opts.Users) > 0 {
		scope = make(map[string]bool)
		for _, user := range opts.Users {
			for key := range s.byUser[user] {
				scope[key] = true
			}
		}
	}

	var out []*domain.Bookmark
	for key, b := range s.bookmarks {
		if scope != nil && !scope[key] {
			continue
		}
		if opts.PublicOnly && !b.Public {
			continue
		}
		if !opts.Before.IsZero() && !b.Updated.Before(opts.Before) {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Updated.Equal(out[j].Updated) {
			return out[i].Updated.After(out[j].Updated)
		}
		return out[i].Key < out[j].Key
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) GetKeychain(_ context.Context, stem string) (*domain.Keychain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keychains[stem]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *k
	copied.Keys = append([]string(nil), k.Keys...)
	return &copied, nil
}

func (s *Store) GetReference(_ context.Context, id string) (*domain.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.references[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *Store) HasReference(_ context.Context, user, bookmarkKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byUser[user][bookmarkKey], nil
}

func (s *Store) BookmarkKeysByUser(_ context.Context, user string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.byUser[user]))
	for key := range s.byUser[user] {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Store) Commit(_ context.Context, batch *store.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range batch.PutBookmarks {
		copied := *b
		s.bookmarks[b.Key] = &copied
	}
	for _, k := range batch.PutKeychains {
		copied := *k
		copied.Keys = append([]string(nil), k.Keys...)
		s.keychains[k.Stem] = &copied
	}
	for _, r := range batch.PutReferences {
		copied := *r
		s.references[r.ID] = &copied
		if s.byUser[r.User] == nil {
			s.byUser[r.User] = make(map[string]bool)
		}
		s.byUser[r.User][r.BookmarkKey] = true
	}
	for _, key := range batch.DeleteBookmarks {
		delete(s.bookmarks, key)
	}
	for _, stem := range batch.DeleteKeychains {
		delete(s.keychains, stem)
	}
	for _, id := range batch.DeleteReferences {
		if r, ok := s.references[id]; ok {
			delete(s.byUser[r.User], r.BookmarkKey)
			delete(s.references, id)
		}
	}
	return nil
}
