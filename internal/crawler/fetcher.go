package crawler

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// fetcher performs the HTTP GET described in spec.md §6: the
// configured User-Agent, the rehttp-wrapped retry/backoff transport
// the teacher's crawler used, and a bounded per-request timeout.
type fetcher struct {
	userAgent string
	client    *http.Client
}

func newFetcher(userAgent string, timeout time.Duration) *fetcher {
	transport := rehttp.NewTransport(
		&http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(1, 10*time.Second),
	)
	return &fetcher{
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// fetch performs a GET request for targetURL, returning the response
// body for the caller to parse and close once done. Any non-2xx status
// or a declared non-HTML content type is reported as an error instead.
func (f *fetcher) fetch(ctx context.Context, targetURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("crawler: build request for %s: %w", targetURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crawler: fetch %s: %w", targetURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("crawler: fetch %s: unexpected status %s", targetURL, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "html") {
		resp.Body.Close()
		return nil, fmt.Errorf("crawler: fetch %s: non-HTML content type %q", targetURL, ct)
	}
	return resp, nil
}
