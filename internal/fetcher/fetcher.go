// Package fetcher retrieves web content for indexing. Fetch failures are
// expected and recoverable: the save pipeline degrades to an empty word list
// instead of aborting.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codealamode/imiimi/internal/logger"
)

// Result is one fetched document. URL is the final URL after redirects.
type Result struct {
	URL        string
	StatusCode int
	MimeType   string
	Body       []byte
}

// Fetcher retrieves raw content for a URL. Implementations must follow
// redirects, enforce a deadline, and cap the body size. A non-2xx status is
// an error: the caller treats any error as "no content".
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// HTTPFetcher fetches over plain HTTP(S) with a bounded timeout, a redirect
// budget, and a body-size cap. Oversized bodies are truncated, not rejected:
// a partial page still yields usable tags.
type HTTPFetcher struct {
	client  *http.Client
	maxBody int64
	logger  logger.Logger
}

func NewHTTP(timeout time.Duration, maxRedirects int, maxBody int64, log logger.Logger) *HTTPFetcher {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &HTTPFetcher{client: client, maxBody: maxBody, logger: log}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch request for %s: %w", url, err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("fetch failed",
			logger.String("url", url),
			logger.Error(err))
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("fetch returned bad status",
			logger.String("url", url),
			logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		f.logger.Warn("fetch body read failed",
			logger.String("url", url),
			logger.Error(err))
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	f.logger.Debug("fetched",
		logger.String("url", url),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)))

	return &Result{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		MimeType:   mimeType(resp.Header.Get("Content-Type")),
		Body:       body,
	}, nil
}

// mimeType strips content-type parameters: "text/html; charset=utf-8"
// becomes "text/html".
func mimeType(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mime)
}
