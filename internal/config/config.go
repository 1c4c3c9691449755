// Package config defines the typed configuration consumed by the core
// pipeline, read through an injectable key→value Source. Loading the
// source itself (files, flags, a remote config service) is outside
// this package's concern; it only knows the keys in play and their
// defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Source is a minimal key→value lookup, satisfied by environment
// variables, a flat map, or any richer loader a caller wires in.
type Source interface {
	Get(key string) (string, bool)
}

// EnvSource reads keys from the process environment.
type EnvSource struct{}

// Get implements Source via os.LookupEnv.
func (EnvSource) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapSource is a Source backed by a plain map, convenient for tests and
// for loaders that have already parsed a file into key/value pairs.
type MapSource map[string]string

// Get implements Source.
func (m MapSource) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Default user agent, identifying this crawler the way the teacher's
// crawler identified itself to remote servers and to robots.txt groups.
const DefaultUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

// Config is the fully-resolved set of values named in the
// specification's configuration keys; their defaults are set in
// Defaults.
type Config struct {
	// CrawlerThreadPoolSize is crawler.thread.pool.size.
	CrawlerThreadPoolSize int
	// CrawlerMaxPages is crawler.max.pages.
	CrawlerMaxPages int
	// CrawlerDefaultDepth is crawler.default.depth.
	CrawlerDefaultDepth int
	// CrawlerRequestTimeout is crawler.request.timeout, in milliseconds.
	CrawlerRequestTimeout time.Duration
	// CrawlerPolitenessDelay is crawler.delay.between.requests, in milliseconds.
	CrawlerPolitenessDelay time.Duration
	// CrawlerUserAgent is crawler.user.agent.
	CrawlerUserAgent string
	// CrawlerRespectRobots is crawler.respect.robots.txt.
	CrawlerRespectRobots bool
	// DatabasePath is database.path.
	DatabasePath string
	// DatabaseConnectionPoolSize is database.connection.pool.size.
	DatabaseConnectionPoolSize int
	// IndexerMinWordLength is indexer.min.word.length.
	IndexerMinWordLength int
	// IndexerMaxWordLength is indexer.max.word.length.
	IndexerMaxWordLength int
	// SearchMaxResults is search.max.results.
	SearchMaxResults int
	// SearchSnippetLength is search.snippet.length.
	SearchSnippetLength int
}

// Defaults returns the configuration enumerated in the specification,
// used whenever a key is missing from the Source (ConfigurationMissing
// falls back to these rather than failing).
func Defaults() Config {
	return Config{
		CrawlerThreadPoolSize:      8,
		CrawlerMaxPages:            1000,
		CrawlerDefaultDepth:        3,
		CrawlerRequestTimeout:      10 * time.Second,
		CrawlerPolitenessDelay:     500 * time.Millisecond,
		CrawlerUserAgent:           DefaultUserAgent,
		CrawlerRespectRobots:       true,
		DatabasePath:               "gosearch.db",
		DatabaseConnectionPoolSize: 4,
		IndexerMinWordLength:       2,
		IndexerMaxWordLength:       50,
		SearchMaxResults:           10,
		SearchSnippetLength:        200,
	}
}

// Load builds a Config from src, filling in Defaults() for any key that
// src does not provide or that fails to parse.
func Load(src Source) Config {
	cfg := Defaults()

	if v, ok := getInt(src, "crawler.thread.pool.size"); ok {
		cfg.CrawlerThreadPoolSize = v
	}
	if v, ok := getInt(src, "crawler.max.pages"); ok {
		cfg.CrawlerMaxPages = v
	}
	if v, ok := getInt(src, "crawler.default.depth"); ok {
		cfg.CrawlerDefaultDepth = v
	}
	if v, ok := getInt(src, "crawler.request.timeout"); ok {
		cfg.CrawlerRequestTimeout = time.Duration(v) * time.Millisecond
	}
	if v, ok := getInt(src, "crawler.delay.between.requests"); ok {
		cfg.CrawlerPolitenessDelay = time.Duration(v) * time.Millisecond
	}
	if v, ok := src.Get("crawler.user.agent"); ok && v != "" {
		cfg.CrawlerUserAgent = v
	}
	if v, ok := getBool(src, "crawler.respect.robots.txt"); ok {
		cfg.CrawlerRespectRobots = v
	}
	if v, ok := src.Get("database.path"); ok && v != "" {
		cfg.DatabasePath = v
	}
	if v, ok := getInt(src, "database.connection.pool.size"); ok {
		cfg.DatabaseConnectionPoolSize = v
	}
	if v, ok := getInt(src, "indexer.min.word.length"); ok {
		cfg.IndexerMinWordLength = v
	}
	if v, ok := getInt(src, "indexer.max.word.length"); ok {
		cfg.IndexerMaxWordLength = v
	}
	if v, ok := getInt(src, "search.max.results"); ok {
		cfg.SearchMaxResults = v
	}
	if v, ok := getInt(src, "search.snippet.length"); ok {
		cfg.SearchSnippetLength = v
	}

	return cfg
}

func getInt(src Source, key string) (int, bool) {
	raw, ok := src.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getBool(src Source, key string) (bool, bool) {
	raw, ok := src.Get(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}
