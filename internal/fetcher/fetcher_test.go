package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codealamode/imiimi/internal/logger"
)

func newTestFetcher(maxBody int64) *HTTPFetcher {
	return NewHTTP(2*time.Second, 3, maxBody, logger.Nop())
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>hello</p></body></html>"))
	}))
	defer srv.Close()

	result, err := newTestFetcher(1 << 20).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/html", result.MimeType)
	assert.Contains(t, string(result.Body), "hello")
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(1 << 20).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchTruncatesOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	result, err := newTestFetcher(100).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, result.Body, 100)
}

func TestFetchFollowsRedirects(t *testing.T) {
	var final *httptest.Server
	final = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("destination"))
	}))
	defer final.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/landed", http.StatusFound)
	}))
	defer redirecting.Close()

	result, err := newTestFetcher(1 << 20).Fetch(context.Background(), redirecting.URL)
	require.NoError(t, err)
	assert.Equal(t, final.URL+"/landed", result.URL)
	assert.Contains(t, string(result.Body), "destination")
}

func TestFetchRedirectBudget(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"/again", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(1 << 20).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchUnreachableHost(t *testing.T) {
	// Reserved TEST-NET address, nothing listens there.
	_, err := newTestFetcher(1 << 20).Fetch(context.Background(), "http://192.0.2.1:9/")
	assert.Error(t, err)
}
