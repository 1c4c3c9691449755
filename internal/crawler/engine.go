// Package crawler implements the concurrent crawl engine: a worker
// pool draining the Frontier, fetching and parsing HTML, honoring
// robots directives and crawl limits, persisting pages, and reporting
// progress through a Listener.
package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codepr/gosearch/internal/frontier"
	"github.com/codepr/gosearch/internal/robots"
	"github.com/codepr/gosearch/internal/store"
	"github.com/codepr/gosearch/internal/urlhygiene"
)

// State is one of the engine's lifecycle states (spec.md §4.5).
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Settings are the crawler.* configuration values from spec.md §6.
type Settings struct {
	ThreadPoolSize   int
	MaxPages         int
	RequestTimeout   time.Duration
	PolitenessDelay  time.Duration
	UserAgent        string
	RespectRobots    bool
}

// Engine is one crawl engine instance; a fresh Engine (or a Start call
// on an idle one) begins a new invocation with its own CrawlSession.
type Engine struct {
	store    *store.Store
	robots   *robots.Policy
	frontier *frontier.Frontier
	fetcher  *fetcher
	listener *Listener
	settings Settings

	state       atomic.Int32
	sessionID   atomic.Int64
	crawled     atomic.Int64
	outstanding atomic.Int64
	maxDepth    int
	wg          sync.WaitGroup
	completeMu  sync.Mutex
}

// New constructs an Engine over the given Store and Settings,
// optionally wired to a Listener for progress events.
func New(st *store.Store, settings Settings, listener *Listener) *Engine {
	if settings.ThreadPoolSize <= 0 {
		settings.ThreadPoolSize = 1
	}
	return &Engine{
		store:    st,
		robots:   robots.New(settings.UserAgent, settings.RespectRobots, settings.RequestTimeout),
		frontier: frontier.New(),
		fetcher:  newFetcher(settings.UserAgent, settings.RequestTimeout),
		listener: listener,
		settings: settings,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// SessionID returns the id of the most recently started CrawlSession.
func (e *Engine) SessionID() int64 {
	return e.sessionID.Load()
}

// Start canonicalizes seed, opens a CrawlSession, clears the frontier,
// and spawns the worker pool. It returns once every worker has been
// launched; use Wait to block until the crawl finishes.
func (e *Engine) Start(ctx context.Context, seed string, maxDepth, maxPages int) error {
	canonical, err := urlhygiene.Canonicalize(seed)
	if err != nil {
		e.state.Store(int32(StateError))
		return fmt.Errorf("crawler: invalid seed %q: %w", seed, err)
	}
	if !urlhygiene.Admissible(canonical) {
		e.state.Store(int32(StateError))
		return fmt.Errorf("crawler: invalid seed %q: %w", seed, urlhygiene.ErrInvalidURL)
	}

	sessionID, err := e.store.CreateSession(ctx, canonical, maxDepth)
	if err != nil {
		e.state.Store(int32(StateError))
		return fmt.Errorf("crawler: create session: %w", err)
	}
	e.sessionID.Store(sessionID)
	e.maxDepth = maxDepth
	if maxPages > 0 {
		e.settings.MaxPages = maxPages
	}
	e.crawled.Store(0)
	e.outstanding.Store(0)

	e.frontier.Clear()
	e.frontier.Offer(canonical, 0)
	e.state.Store(int32(StateRunning))
	e.listener.started(canonical, sessionID)

	for i := 0; i < e.settings.ThreadPoolSize; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
	return nil
}

// Wait blocks until every worker goroutine has exited, which happens
// once the engine reaches a terminal state.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Stop transitions a running engine to stopped and cancels the
// frontier to release every worker blocked in Take, leaving any
// un-taken entries in place — the next Start's own Clear resets the
// frontier for reuse.
func (e *Engine) Stop() {
	if e.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		e.frontier.Cancel()
		e.finalizeSession(store.SessionStopped)
		e.listener.stopped(e.sessionID.Load(), int(e.crawled.Load()))
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.wg.Done()
	for {
		entry, ok := e.frontier.Take()
		if !ok {
			return
		}
		if e.State() != StateRunning {
			return
		}
		e.outstanding.Add(1)
		e.listener.pageStart(entry.URL, entry.Depth)
		e.process(ctx, entry)
		remaining := e.outstanding.Add(-1)
		e.maybeComplete(remaining)
	}
}

// process runs one URL through steps 2-8 of spec.md §4.5.
func (e *Engine) process(ctx context.Context, entry frontier.Entry) {
	if !e.robots.Allowed(ctx, entry.URL) {
		e.listener.pageSkipped(entry.URL, "disallowed")
		return
	}

	resp, err := e.fetcher.fetch(ctx, entry.URL)
	if err != nil {
		e.listener.pageError(entry.URL, entry.Depth, err)
		e.politenessSleep()
		return
	}
	parsed, err := parseHTML(resp.Body)
	resp.Body.Close()
	if err != nil {
		e.listener.pageError(entry.URL, entry.Depth, fmt.Errorf("crawler: parse %s: %w", entry.URL, err))
		e.politenessSleep()
		return
	}

	pageID, err := e.store.InsertPage(ctx, store.Page{
		URL:       entry.URL,
		Title:     parsed.title,
		Body:      parsed.body,
		CrawledAt: time.Now(),
		WordCount: 0,
		Depth:     entry.Depth,
	})
	if err != nil {
		if err == store.ErrURLExists {
			// Another worker won the race for this URL; nothing to do.
			e.politenessSleep()
			return
		}
		e.listener.pageError(entry.URL, entry.Depth, err)
		e.politenessSleep()
		return
	}

	crawled := e.crawled.Add(1)
	e.listener.pageSuccess(entry.URL, entry.Depth, pageID, int(crawled))

	if e.settings.MaxPages > 0 && int(crawled) >= e.settings.MaxPages {
		e.Stop()
		return
	}

	if entry.Depth < e.maxDepth {
		e.enqueueLinks(entry, parsed.links)
	}

	e.politenessSleep()
}

func (e *Engine) enqueueLinks(entry frontier.Entry, links []string) {
	for _, raw := range links {
		resolved, err := urlhygiene.Resolve(entry.URL, raw)
		if err != nil {
			continue
		}
		if !urlhygiene.Admissible(resolved) {
			continue
		}
		e.frontier.Offer(resolved, entry.Depth+1)
	}
}

func (e *Engine) politenessSleep() {
	if e.settings.PolitenessDelay > 0 {
		time.Sleep(e.settings.PolitenessDelay)
	}
}

// maybeComplete declares the session completed once no worker is
// processing a URL and the frontier is empty, resolving the race
// between transient emptiness and a worker about to enqueue new links
// (spec.md §9's open question): the outstanding counter can only reach
// zero after every in-flight enqueue has already happened.
func (e *Engine) maybeComplete(outstandingRemaining int64) {
	if outstandingRemaining != 0 || !e.frontier.IsEmpty() {
		return
	}
	e.completeMu.Lock()
	defer e.completeMu.Unlock()
	if outstandingRemaining != 0 || !e.frontier.IsEmpty() {
		return
	}
	if e.state.CompareAndSwap(int32(StateRunning), int32(StateCompleted)) {
		e.frontier.Cancel()
		e.finalizeSession(store.SessionCompleted)
		e.listener.completed(e.sessionID.Load(), int(e.crawled.Load()))
	}
}

func (e *Engine) finalizeSession(status string) {
	now := time.Now()
	_ = e.store.UpdateSession(context.Background(), e.sessionID.Load(), int(e.crawled.Load()), &now, status)
}
