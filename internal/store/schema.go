package store

// schema creates every table and secondary index named in the
// specification's abstract schema (§6), idempotently.
const schema = `
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    crawled_at INTEGER NOT NULL,
    word_count INTEGER NOT NULL DEFAULT 0,
    depth INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

CREATE TABLE IF NOT EXISTS words (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    term TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_words_term ON words(term);

CREATE TABLE IF NOT EXISTS postings (
    word_id INTEGER NOT NULL REFERENCES words(id),
    page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
    frequency INTEGER NOT NULL,
    positions_csv TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (word_id, page_id)
);

CREATE INDEX IF NOT EXISTS idx_postings_word_id ON postings(word_id);
CREATE INDEX IF NOT EXISTS idx_postings_page_id ON postings(page_id);

CREATE TABLE IF NOT EXISTS crawl_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seed TEXT NOT NULL,
    max_depth INTEGER NOT NULL,
    pages_crawled INTEGER NOT NULL DEFAULT 0,
    started_at INTEGER NOT NULL,
    ended_at INTEGER,
    status TEXT NOT NULL DEFAULT 'running'
);
`
