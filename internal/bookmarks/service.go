// Package bookmarks composes the save pipeline: canonicalize the URL, fetch
// the document, tokenize and auto-tag it, then hand the result to the index
// manager. Fetch and parse failures degrade to a contentless bookmark, they
// never abort the save.
package bookmarks

import (
	"context"
	"fmt"
	"strings"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/fetcher"
	"github.com/codealamode/imiimi/internal/indexer"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/store"
	"github.com/codealamode/imiimi/internal/tagger"
	"github.com/codealamode/imiimi/internal/tokenizer"
	"github.com/codealamode/imiimi/internal/urlnorm"
)

type Service struct {
	normalizer   *urlnorm.Normalizer
	fetcher      fetcher.Fetcher
	tokenizer    *tokenizer.Tokenizer
	stopWords    *tokenizer.StopWords
	indexer      *indexer.Manager
	store        store.Store
	logger       logger.Logger
	minTagWeight float64
}

func NewService(
	normalizer *urlnorm.Normalizer,
	fetch fetcher.Fetcher,
	tok *tokenizer.Tokenizer,
	stopWords *tokenizer.StopWords,
	idx *indexer.Manager,
	st store.Store,
	log logger.Logger,
	minTagWeight float64,
) *Service {
	if minTagWeight <= 0 {
		minTagWeight = tagger.DefaultMinCount
	}
	return &Service{
		normalizer:   normalizer,
		fetcher:      fetch,
		tokenizer:    tok,
		stopWords:    stopWords,
		indexer:      idx,
		store:        st,
		logger:       log,
		minTagWeight: minTagWeight,
	}
}

// Processed is the outcome of running one URL through the pipeline.
type Processed struct {
	URL         string // canonical
	MimeType    string
	Title       string
	ContentHash string
	Tags        []domain.Tag
}

// ProcessURL canonicalizes and fetches a URL, then tokenizes and auto-tags
// the document. An unreachable or unparseable document yields a bookmark
// titled by its URL with no tags and an empty content hash.
func (s *Service) ProcessURL(ctx context.Context, rawURL string) (*Processed, error) {
	canonical, err := s.normalizer.Normalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %q: %w", rawURL, err)
	}

	processed := &Processed{URL: canonical, Title: canonical}

	result, err := s.fetcher.Fetch(ctx, canonical)
	if err != nil {
		s.logger.Warn("fetch failed, saving without content",
			logger.String("url", canonical),
			logger.Error(err))
		return processed, nil
	}
	processed.MimeType = result.MimeType

	if !isHTML(result.MimeType) {
		return processed, nil
	}

	title, words, hash, err := s.tokenizer.TokenizeHTML(result.Body)
	if err != nil {
		s.logger.Warn("tokenize failed, saving without content",
			logger.String("url", canonical),
			logger.Error(err))
		return processed, nil
	}
	if title != "" {
		processed.Title = title
	}
	processed.ContentHash = hash
	processed.Tags = tagger.AutoTag(words, s.stopWords, s.minTagWeight)
	return processed, nil
}

// CreateBookmark runs the pipeline for a new reference by the user. Saving
// a URL the user already references is a duplicate, not an update.
func (s *Service) CreateBookmark(ctx context.Context, user, rawURL string, public bool) (*domain.Reference, error) {
	processed, err := s.ProcessURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.indexer.Save(ctx, saveParams(processed, user, public, false))
}

// UpdateBookmark re-fetches an already-referenced bookmark and reindexes it
// if its content changed.
func (s *Service) UpdateBookmark(ctx context.Context, user, bookmarkKey string, public bool) (*domain.Reference, error) {
	bookmark, err := s.store.GetBookmark(ctx, bookmarkKey)
	if err != nil {
		return nil, err
	}
	processed, err := s.ProcessURL(ctx, bookmark.URL)
	if err != nil {
		return nil, err
	}
	return s.indexer.Save(ctx, saveParams(processed, user, public, true))
}

// DeleteBookmark drops the user's reference; the last reference takes the
// bookmark and its index entries with it.
func (s *Service) DeleteBookmark(ctx context.Context, user, bookmarkKey string) error {
	return s.indexer.Delete(ctx, domain.ReferenceID(user, bookmarkKey))
}

func saveParams(p *Processed, user string, public, isUpdate bool) indexer.SaveParams {
	return indexer.SaveParams{
		URL:         p.URL,
		MimeType:    p.MimeType,
		Title:       p.Title,
		Tags:        p.Tags,
		ContentHash: p.ContentHash,
		User:        user,
		Public:      public,
		IsUpdate:    isUpdate,
	}
}

func isHTML(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/html") ||
		strings.HasPrefix(mimeType, "application/xhtml")
}
