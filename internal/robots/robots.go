// Package robots implements the per-origin robots.txt cache the crawl
// engine consults before fetching a URL. It wraps
// github.com/temoto/robotstxt, the same backend the teacher crawler
// used for its CrawlingRules, generalized from a single-domain rule
// set into a shared cache keyed by origin.
package robots

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/temoto/robotstxt"
)

// Policy caches one robots.txt group per origin, fetching and parsing
// on first miss and never refetching within the process lifetime.
type Policy struct {
	userAgent string
	respect   bool
	client    *http.Client

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

// New creates a Policy. respect is the global "respect robots.txt"
// switch (crawler.respect.robots.txt); when false, Allowed always
// returns true without ever fetching anything.
func New(userAgent string, respect bool, timeout time.Duration) *Policy {
	transport := rehttp.NewTransport(
		&http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(1, 10*time.Second),
	)
	return &Policy{
		userAgent: userAgent,
		respect:   respect,
		client:    &http.Client{Timeout: timeout, Transport: transport},
		groups:    make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched: true unconditionally
// if the global switch is off, otherwise true unless its path starts
// with a Disallow prefix from the matching User-agent group.
func (p *Policy) Allowed(ctx context.Context, rawURL string) bool {
	if !p.respect {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	group := p.groupFor(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.RequestURI())
}

// groupFor returns the cached group for u's origin, fetching it on
// first miss. Only one fetch per origin happens under contention: the
// mutex is held for the whole compute-if-absent section, which is
// acceptable because the fetch only happens once per origin ever.
func (p *Policy) groupFor(ctx context.Context, u *url.URL) *robotstxt.Group {
	origin := originOf(u)

	p.mu.Lock()
	defer p.mu.Unlock()
	if group, ok := p.groups[origin]; ok {
		return group
	}

	group := p.fetchGroup(ctx, origin)
	p.groups[origin] = group
	return group
}

func (p *Policy) fetchGroup(ctx context.Context, origin string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(p.userAgent)
}

func originOf(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
