// Package search ranks indexed bookmarks against free-text queries in two
// phases: a cacheable generic phase resolving query stems to a ranked list
// of bookmark keys, and a per-caller specific phase applying visibility,
// recency cutoff and pagination.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/store"
	"github.com/codealamode/imiimi/internal/tagger"
	"github.com/codealamode/imiimi/internal/tokenizer"
)

// DefaultPerPage is the page size when none is configured.
const DefaultPerPage = 5

// Engine executes searches over the store built by the index manager.
type Engine struct {
	store     store.Store
	cache     Cache
	stopWords *tokenizer.StopWords
	logger    logger.Logger
	perPage   int
	cacheTTL  time.Duration
}

// New builds an engine. cache may be nil to disable result caching.
func New(st store.Store, cache Cache, stopWords *tokenizer.StopWords, log logger.Logger, perPage int, cacheTTL time.Duration) *Engine {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Engine{
		store:     st,
		cache:     cache,
		stopWords: stopWords,
		logger:    log,
		perPage:   perPage,
		cacheTTL:  cacheTTL,
	}
}

// Params describe one search request.
type Params struct {
	Query  string    // free text, tokenized and stemmed like page content
	Users  []string  // restrict to bookmarks referenced by these users
	Actor  string    // requesting user, "" for anonymous
	Before time.Time // only results last updated strictly before; zero = no cutoff
	Page   int       // zero-based
}

// Result is one page of bookmarks plus whether another page exists.
type Result struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
	More      bool               `json:"more"`
}

// Search runs both phases. Queries with no rankable words fall back to a
// reverse-chronological listing, so the caller always gets a page back.
func (e *Engine) Search(ctx context.Context, p Params) (*Result, error) {
	keys, err := e.SearchGeneric(ctx, p.Query, p.Users)
	if errors.Is(err, domain.ErrNoQuery) || errors.Is(err, domain.ErrGenericQuery) {
		return e.GetBookmarks(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return e.SearchSpecific(ctx, keys, p)
}

// SearchGeneric resolves a query to bookmark keys ranked by relevance,
// independent of who is asking. It returns ErrNoQuery when neither words nor
// users were given, and ErrGenericQuery when only users were: both mean
// "nothing to rank", and the caller lists by recency instead.
func (e *Engine) SearchGeneric(ctx context.Context, query string, users []string) ([]string, error) {
	stems := e.queryStems(query)
	if len(stems) == 0 {
		if len(users) == 0 {
			return nil, domain.ErrNoQuery
		}
		return nil, domain.ErrGenericQuery
	}

	// Word-only queries are user-independent and safe to cache.
	cacheable := len(users) == 0
	cacheKey := rankCacheKey(stems)
	if cacheable {
		if keys, ok := e.cachedRank(ctx, cacheKey); ok {
			return keys, nil
		}
	}

	candidates, err := e.unionKeychains(ctx, stems)
	if err != nil {
		return nil, err
	}

	if len(users) > 0 {
		owned, err := e.keysOwnedBy(ctx, users)
		if err != nil {
			return nil, err
		}
		restricted := candidates[:0]
		for _, key := range candidates {
			if owned[key] {
				restricted = append(restricted, key)
			}
		}
		candidates = restricted
	}

	keys, err := e.rank(ctx, candidates, stems)
	if err != nil {
		return nil, err
	}

	if cacheable {
		e.storeRank(ctx, cacheKey, keys)
	}
	return keys, nil
}

// SearchSpecific turns ranked keys into one page for a specific caller:
// drops what the actor may not see, applies the recency cutoff, slices the
// page and probes one row beyond it for More.
func (e *Engine) SearchSpecific(ctx context.Context, keys []string, p Params) (*Result, error) {
	bookmarks, err := e.store.GetBookmarks(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranked bookmarks: %w", err)
	}

	visible := make([]*domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if !p.Before.IsZero() && !b.Updated.Before(p.Before) {
			continue
		}
		ok, err := e.visibleTo(ctx, b, p.Actor)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, b)
		}
	}

	return e.page(visible, p.Page), nil
}

// GetBookmarks lists bookmarks by recency. It backs the search fallback and
// the plain listing endpoints. A user browsing their own bookmarks sees
// private ones too; every other scope is public-only.
func (e *Engine) GetBookmarks(ctx context.Context, p Params) (*Result, error) {
	publicOnly := !(len(p.Users) == 1 && p.Actor != "" && p.Users[0] == p.Actor)
	bookmarks, err := e.store.ListBookmarks(ctx, store.ListOptions{
		Users:      p.Users,
		PublicOnly: publicOnly,
		Before:     p.Before,
		Offset:     p.Page * e.perPage,
		Limit:      e.perPage + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	more := len(bookmarks) > e.perPage
	if more {
		bookmarks = bookmarks[:e.perPage]
	}
	return &Result{Bookmarks: bookmarks, More: more}, nil
}

// CountRelevant reports how many bookmarks carry every stem of the query.
// It shares the stemming path with SearchGeneric but intersects keychains
// instead of unioning them.
func (e *Engine) CountRelevant(ctx context.Context, query string) (int, error) {
	stems := e.queryStems(query)
	if len(stems) == 0 {
		return 0, nil
	}

	var common map[string]bool
	for _, stem := range stems {
		keychain, err := e.store.GetKeychain(ctx, stem)
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to get keychain %s: %w", stem, err)
		}

		if common == nil {
			common = make(map[string]bool, len(keychain.Keys))
			for _, key := range keychain.Keys {
				common[key] = true
			}
			continue
		}
		next := make(map[string]bool, len(common))
		for _, key := range keychain.Keys {
			if common[key] {
				next[key] = true
			}
		}
		common = next
		if len(common) == 0 {
			return 0, nil
		}
	}
	return len(common), nil
}

// queryStems tokenizes a query the way page content is tokenized and stems
// the distinct non-stop words, preserving first-occurrence order.
func (e *Engine) queryStems(query string) []string {
	var stems []string
	seen := make(map[string]bool)
	for _, word := range tokenizer.ExtractWords(query) {
		if e.stopWords.Contains(word) {
			continue
		}
		stem := tagger.Stem(word)
		if seen[stem] {
			continue
		}
		seen[stem] = true
		stems = append(stems, stem)
	}
	return stems
}

// unionKeychains collects every bookmark key indexed under any query stem.
// Stems nothing was indexed under contribute nothing.
func (e *Engine) unionKeychains(ctx context.Context, stems []string) ([]string, error) {
	var keys []string
	seen := make(map[string]bool)
	for _, stem := range stems {
		keychain, err := e.store.GetKeychain(ctx, stem)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get keychain %s: %w", stem, err)
		}
		for _, key := range keychain.Keys {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func (e *Engine) keysOwnedBy(ctx context.Context, users []string) (map[string]bool, error) {
	owned := make(map[string]bool)
	for _, user := range users {
		keys, err := e.store.BookmarkKeysByUser(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to get bookmarks of %s: %w", user, err)
		}
		for _, key := range keys {
			owned[key] = true
		}
	}
	return owned, nil
}

// rank orders candidate keys by relevance to the query stems: number of
// matched stems, then summed matched weights, then popularity, then recency.
// The final key comparison makes the order total and stable across runs.
func (e *Engine) rank(ctx context.Context, keys []string, stems []string) ([]string, error) {
	bookmarks, err := e.store.GetBookmarks(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	type scored struct {
		bookmark *domain.Bookmark
		matched  int
		weight   float64
	}
	ranked := make([]scored, 0, len(bookmarks))
	for _, b := range bookmarks {
		var matched int
		var weight float64
		for _, stem := range stems {
			if w, ok := b.HasStem(stem); ok {
				matched++
				weight += w
			}
		}
		ranked = append(ranked, scored{bookmark: b, matched: matched, weight: weight})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.matched != b.matched {
			return a.matched > b.matched
		}
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		if a.bookmark.Popularity != b.bookmark.Popularity {
			return a.bookmark.Popularity > b.bookmark.Popularity
		}
		if !a.bookmark.Updated.Equal(b.bookmark.Updated) {
			return a.bookmark.Updated.After(b.bookmark.Updated)
		}
		return a.bookmark.Key < b.bookmark.Key
	})

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.bookmark.Key
	}
	return out, nil
}

// visibleTo reports whether the actor may see a bookmark: public ones
// always, private ones only when the actor holds a reference to them.
func (e *Engine) visibleTo(ctx context.Context, b *domain.Bookmark, actor string) (bool, error) {
	if b.Public {
		return true, nil
	}
	if actor == "" {
		return false, nil
	}
	ok, err := e.store.HasReference(ctx, actor, b.Key)
	if err != nil {
		return false, fmt.Errorf("failed to check visibility of %s: %w", b.Key, err)
	}
	return ok, nil
}

func (e *Engine) page(bookmarks []*domain.Bookmark, page int) *Result {
	start := page * e.perPage
	if start >= len(bookmarks) {
		return &Result{Bookmarks: []*domain.Bookmark{}}
	}
	end := start + e.perPage
	more := end < len(bookmarks)
	if end > len(bookmarks) {
		end = len(bookmarks)
	}
	return &Result{Bookmarks: bookmarks[start:end], More: more}
}
