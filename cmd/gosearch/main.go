// Command gosearch wires the crawl engine, indexer, and search engine
// together: crawl a seed URL, index everything stored, then run one
// query against the resulting index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/codepr/gosearch/internal/analyzer"
	"github.com/codepr/gosearch/internal/config"
	"github.com/codepr/gosearch/internal/crawler"
	"github.com/codepr/gosearch/internal/index"
	"github.com/codepr/gosearch/internal/indexer"
	"github.com/codepr/gosearch/internal/search"
	"github.com/codepr/gosearch/internal/store"
)

func main() {
	seed := flag.String("seed", "", "seed URL to crawl")
	query := flag.String("query", "", "query to run against the index after crawling")
	maxDepth := flag.Int("max-depth", 0, "override crawler.default.depth")
	maxPages := flag.Int("max-pages", 0, "override crawler.max.pages")
	flag.Parse()

	if *seed == "" {
		fmt.Fprintln(os.Stderr, "gosearch: -seed is required")
		os.Exit(1)
	}

	cfg := config.Load(config.EnvSource{})
	if *maxDepth > 0 {
		cfg.CrawlerDefaultDepth = *maxDepth
	}
	if *maxPages > 0 {
		cfg.CrawlerMaxPages = *maxPages
	}

	st, err := store.Open(cfg.DatabasePath, cfg.DatabaseConnectionPoolSize)
	if err != nil {
		log.Fatalf("gosearch: open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	listener := &crawler.Listener{
		PageSuccess: func(url string, depth int, pageID int64, pagesCrawled int) {
			log.Printf("crawled %s (depth %d, total %d)", url, depth, pagesCrawled)
		},
		PageError: func(url string, depth int, err error) {
			log.Printf("fetch/parse failed for %s: %v", url, err)
		},
		PageSkipped: func(url string, reason string) {
			log.Printf("skipped %s: %s", url, reason)
		},
		Completed: func(sessionID int64, pagesCrawled int) {
			log.Printf("session %d completed, %d pages crawled", sessionID, pagesCrawled)
		},
		Stopped: func(sessionID int64, pagesCrawled int) {
			log.Printf("session %d stopped early, %d pages crawled", sessionID, pagesCrawled)
		},
	}

	engine := crawler.New(st, crawler.Settings{
		ThreadPoolSize:  cfg.CrawlerThreadPoolSize,
		MaxPages:        cfg.CrawlerMaxPages,
		RequestTimeout:  cfg.CrawlerRequestTimeout,
		PolitenessDelay: cfg.CrawlerPolitenessDelay,
		UserAgent:       cfg.CrawlerUserAgent,
		RespectRobots:   cfg.CrawlerRespectRobots,
	}, listener)

	if err := engine.Start(ctx, *seed, cfg.CrawlerDefaultDepth, cfg.CrawlerMaxPages); err != nil {
		log.Fatalf("gosearch: start crawl: %v", err)
	}
	engine.Wait()

	wordBounds := analyzer.Bounds{Min: cfg.IndexerMinWordLength, Max: cfg.IndexerMaxWordLength}

	idx := index.New()
	ix := indexer.NewWithBounds(st, idx, &indexer.Listener{
		PageFailed: func(pageID int64, err error) {
			log.Printf("indexing failed for page %d: %v", pageID, err)
		},
	}, wordBounds)
	count, err := ix.IndexAllPages(ctx)
	if err != nil {
		log.Fatalf("gosearch: index all pages: %v", err)
	}
	log.Printf("indexed %d pages", count)

	if *query == "" {
		return
	}

	searchEngine := search.New(st, idx, search.Settings{
		MaxResults:    cfg.SearchMaxResults,
		SnippetLength: cfg.SearchSnippetLength,
		WordBounds:    wordBounds,
	})
	results, err := searchEngine.Search(ctx, *query, cfg.SearchMaxResults)
	if err != nil {
		log.Fatalf("gosearch: search: %v", err)
	}

	for _, r := range results {
		fmt.Printf("%d. %s (%s) score=%.4f\n   %s\n", r.Rank, r.Title, r.URL, r.Score, r.Snippet)
	}
}
