// Package store defines the persistence contract the index manager and the
// search engine run against. Implementations are key-addressable with an
// atomic multi-record batch commit; the forward and inverted indexes must
// never be able to diverge through a partial write.
package store

import (
	"context"
	"time"

	"github.com/codealamode/imiimi/internal/domain"
)

// Batch groups every record touched by one logical mutation. Commit applies
// it atomically: all records persist or none do.
type Batch struct {
	PutBookmarks  []*domain.Bookmark
	PutKeychains  []*domain.Keychain
	PutReferences []*domain.Reference

	DeleteBookmarks  []string // bookmark keys
	DeleteKeychains  []string // stems
	DeleteReferences []string // reference IDs
}

// Empty reports whether the batch carries no work.
func (b *Batch) Empty() bool {
	return len(b.PutBookmarks) == 0 && len(b.PutKeychains) == 0 &&
		len(b.PutReferences) == 0 && len(b.DeleteBookmarks) == 0 &&
		len(b.DeleteKeychains) == 0 && len(b.DeleteReferences) == 0
}

// ListOptions filter and page a reverse-chronological bookmark listing.
type ListOptions struct {
	// Users restricts the listing to bookmarks referenced by at least one
	// of these users. Empty means everyone's bookmarks.
	Users []string

	// PublicOnly drops private bookmarks. The caller decides this based on
	// who is asking.
	PublicOnly bool

	// Before keeps only bookmarks updated strictly before this time.
	// Zero means no cutoff.
	Before time.Time

	// Limit caps the result count (0 = unlimited); Offset skips that many
	// newest entries first.
	Limit  int
	Offset int
}

// Store is the persistence collaborator.
type Store interface {
	// GetBookmark returns domain.ErrNotFound for a missing key.
	GetBookmark(ctx context.Context, key string) (*domain.Bookmark, error)

	// GetBookmarks loads many bookmarks, preserving key order and silently
	// skipping missing keys.
	GetBookmarks(ctx context.Context, keys []string) ([]*domain.Bookmark, error)

	// ListBookmarks returns bookmarks ordered by updated descending.
	ListBookmarks(ctx context.Context, opts ListOptions) ([]*domain.Bookmark, error)

	// GetKeychain returns domain.ErrNotFound for an unindexed stem.
	GetKeychain(ctx context.Context, stem string) (*domain.Keychain, error)

	// GetReference returns domain.ErrNotFound for a missing ID.
	GetReference(ctx context.Context, id string) (*domain.Reference, error)

	// HasReference reports whether the user saved the bookmark.
	HasReference(ctx context.Context, user, bookmarkKey string) (bool, error)

	// BookmarkKeysByUser returns the keys of every bookmark the user
	// referenced, unordered.
	BookmarkKeysByUser(ctx context.Context, user string) ([]string, error)

	// Commit atomically applies a batch.
	Commit(ctx context.Context, batch *Batch) error
}
