package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codealamode/imiimi/internal/bookmarks"
	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/fetcher"
	"github.com/codealamode/imiimi/internal/indexer"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/store/memory"
	"github.com/codealamode/imiimi/internal/tokenizer"
	"github.com/codealamode/imiimi/internal/urlnorm"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (*fetcher.Result, error) {
	return &fetcher.Result{
		StatusCode: 200,
		MimeType:   "text/html",
		Body:       []byte("<html><head><title>Seeded</title></head><body><p>seed words</p></body></html>"),
	}, nil
}

func newTestPipeline() (*bookmarks.Service, *memory.Store) {
	st := memory.New()
	log := logger.Nop()
	service := bookmarks.NewService(
		&urlnorm.Normalizer{},
		stubFetcher{},
		tokenizer.New([]string{"title", "p"}),
		tokenizer.NewStopWords(nil, ""),
		indexer.New(st, log),
		st,
		log,
		0,
	)
	return service, st
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	service, st := newTestPipeline()

	path := writeSeedFile(t, `bookmarks:
  - url: http://one.example.com/
    user: alice
  - url: http://two.example.com/
    user: bob
    public: false
  - user: carol
`)

	loader := NewLoader(path, service, logger.Nop())
	require.NoError(t, loader.Load(ctx))

	one, err := st.GetBookmark(ctx, domain.BookmarkKey("http://one.example.com/"))
	require.NoError(t, err)
	assert.True(t, one.Public, "public defaults to true")

	two, err := st.GetBookmark(ctx, domain.BookmarkKey("http://two.example.com/"))
	require.NoError(t, err)
	assert.False(t, two.Public)
	assert.Equal(t, 1, two.Popularity)
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, st := newTestPipeline()

	path := writeSeedFile(t, `bookmarks:
  - url: http://one.example.com/
    user: alice
`)

	loader := NewLoader(path, service, logger.Nop())
	require.NoError(t, loader.Load(ctx))
	require.NoError(t, loader.Load(ctx), "duplicates are skipped, not errors")

	b, err := st.GetBookmark(ctx, domain.BookmarkKey("http://one.example.com/"))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Popularity)
}

func TestLoadBadFile(t *testing.T) {
	service, _ := newTestPipeline()

	loader := NewLoader(filepath.Join(t.TempDir(), "missing.yaml"), service, logger.Nop())
	assert.Error(t, loader.Load(context.Background()))

	bad := writeSeedFile(t, "bookmarks: {not: [valid")
	loader = NewLoader(bad, service, logger.Nop())
	assert.Error(t, loader.Load(context.Background()))
}
