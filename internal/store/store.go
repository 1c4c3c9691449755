// Package store is the durable layer: pages, words, postings and crawl
// sessions backed by SQLite through database/sql. It is the only
// component that owns persistent entities; everything else holds
// values or handles into it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrURLExists is returned by InsertPage when a page with the same URL
// has already been persisted.
var ErrURLExists = errors.New("store: url already exists")

// ErrNotFound is returned by the single-row getters when no matching
// row exists.
var ErrNotFound = errors.New("store: not found")

// Page mirrors the pages table.
type Page struct {
	ID        int64
	URL       string
	Title     string
	Body      string
	CrawledAt time.Time
	WordCount int
	Depth     int
}

// Session mirrors the crawl_sessions table.
type Session struct {
	ID           int64
	Seed         string
	MaxDepth     int
	PagesCrawled int
	StartedAt    time.Time
	EndedAt      *time.Time
	Status       string
}

// Session statuses, per spec.md §3.
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionStopped   = "stopped"
	SessionError     = "error"
)

// Store is the durable access layer. It is safe for concurrent use;
// database/sql's own connection pool provides the bounded, blocking
// handle acquisition the specification calls for.
type Store struct {
	db *sql.DB
}

// Open creates (if necessary) and opens the SQLite database at path,
// bootstraps the schema, and bounds the connection pool to
// poolSize handles.
func Open(path string, poolSize int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("store: bootstrap schema: %w", err)
	}
	return nil
}

// InsertPage persists a new page, returning its assigned id, or
// ErrURLExists if page.URL is already stored.
func (s *Store) InsertPage(ctx context.Context, page Page) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (url, title, body, crawled_at, word_count, depth) VALUES (?, ?, ?, ?, ?, ?)`,
		page.URL, page.Title, page.Body, page.CrawledAt.Unix(), page.WordCount, page.Depth)
	if err != nil {
		if isUniqueConstraint(err) {
			return 0, ErrURLExists
		}
		return 0, fmt.Errorf("store: insert page: %w", err)
	}
	return res.LastInsertId()
}

// GetPageByID returns the page with the given id, or ErrNotFound.
func (s *Store) GetPageByID(ctx context.Context, id int64) (Page, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, title, body, crawled_at, word_count, depth FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// GetPageByURL returns the page with the given canonical URL, or
// ErrNotFound.
func (s *Store) GetPageByURL(ctx context.Context, url string) (Page, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, title, body, crawled_at, word_count, depth FROM pages WHERE url = ?`, url)
	return scanPage(row)
}

// ListPages returns every stored page, ordered by id.
func (s *Store) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, body, crawled_at, word_count, depth FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPageRows(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountPages returns the total number of stored pages.
func (s *Store) CountPages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count pages: %w", err)
	}
	return n, nil
}

// UpdatePageWordCount sets a page's word_count to n.
func (s *Store) UpdatePageWordCount(ctx context.Context, id int64, n int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE pages SET word_count = ? WHERE id = ?`, n, id)
	if err != nil {
		return fmt.Errorf("store: update word count: %w", err)
	}
	return nil
}

// DeletePage removes a page and, via the foreign key cascade, every
// posting referencing it.
func (s *Store) DeletePage(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete page: %w", err)
	}
	return nil
}

// UpsertWord returns the id of term, inserting a new words row if this
// is the first occurrence.
func (s *Store) UpsertWord(ctx context.Context, term string) (int64, error) {
	return s.upsertWordTx(ctx, s.db, term)
}

func (s *Store) upsertWordTx(ctx context.Context, execer execer, term string) (int64, error) {
	var id int64
	err := execer.QueryRowContext(ctx, `SELECT id FROM words WHERE term = ?`, term).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("store: lookup word: %w", err)
	}
	res, err := execer.ExecContext(ctx, `INSERT INTO words (term) VALUES (?)`, term)
	if err != nil {
		if isUniqueConstraint(err) {
			// Lost a race with another inserter; the row now exists.
			err = execer.QueryRowContext(ctx, `SELECT id FROM words WHERE term = ?`, term).Scan(&id)
			if err != nil {
				return 0, fmt.Errorf("store: lookup word after race: %w", err)
			}
			return id, nil
		}
		return 0, fmt.Errorf("store: insert word: %w", err)
	}
	return res.LastInsertId()
}

// UpsertPosting replaces any existing posting for (wordID, pageID) with
// the given frequency and positions, inside a single transaction
// alongside the UpsertWord call that produced wordID.
func (s *Store) UpsertPosting(ctx context.Context, term string, pageID int64, frequency int, positions []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin posting tx: %w", err)
	}
	defer tx.Rollback()

	wordID, err := s.upsertWordTx(ctx, tx, term)
	if err != nil {
		return err
	}

	csv := positionsToCSV(positions)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO postings (word_id, page_id, frequency, positions_csv) VALUES (?, ?, ?, ?)
		 ON CONFLICT(word_id, page_id) DO UPDATE SET frequency = excluded.frequency, positions_csv = excluded.positions_csv`,
		wordID, pageID, frequency, csv)
	if err != nil {
		return fmt.Errorf("store: upsert posting: %w", err)
	}
	return tx.Commit()
}

// DeletePostingsForPage removes every posting for pageID, the first
// step of reindexing a page.
func (s *Store) DeletePostingsForPage(ctx context.Context, pageID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM postings WHERE page_id = ?`, pageID)
	if err != nil {
		return fmt.Errorf("store: delete postings for page: %w", err)
	}
	return nil
}

// PagesForTerm returns the ids of every page with a posting for term.
func (s *Store) PagesForTerm(ctx context.Context, term string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.page_id FROM postings p
		JOIN words w ON w.id = p.word_id
		WHERE w.term = ?`, term)
	if err != nil {
		return nil, fmt.Errorf("store: pages for term: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan page id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PostingsForPage returns every (term, frequency, positions) posting
// stored for pageID.
func (s *Store) PostingsForPage(ctx context.Context, pageID int64) ([]TermPosting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.term, p.frequency, p.positions_csv FROM postings p
		JOIN words w ON w.id = p.word_id
		WHERE p.page_id = ?`, pageID)
	if err != nil {
		return nil, fmt.Errorf("store: postings for page: %w", err)
	}
	defer rows.Close()

	var out []TermPosting
	for rows.Next() {
		var tp TermPosting
		var csv string
		if err := rows.Scan(&tp.Term, &tp.Frequency, &csv); err != nil {
			return nil, fmt.Errorf("store: scan posting: %w", err)
		}
		tp.Positions = positionsFromCSV(csv)
		out = append(out, tp)
	}
	return out, rows.Err()
}

// TermPosting is a denormalized view of one stored posting, as
// returned by PostingsForPage.
type TermPosting struct {
	Term      string
	Frequency int
	Positions []int
}

// CreateSession starts a new crawl session, returning its id.
func (s *Store) CreateSession(ctx context.Context, seed string, maxDepth int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_sessions (seed, max_depth, pages_crawled, started_at, status) VALUES (?, ?, 0, ?, ?)`,
		seed, maxDepth, time.Now().Unix(), SessionRunning)
	if err != nil {
		return 0, fmt.Errorf("store: create session: %w", err)
	}
	return res.LastInsertId()
}

// UpdateSession updates a session's progress and, optionally, its
// terminal timestamp and status.
func (s *Store) UpdateSession(ctx context.Context, id int64, pagesCrawled int, endedAt *time.Time, status string) error {
	var endedUnix sql.NullInt64
	if endedAt != nil {
		endedUnix = sql.NullInt64{Int64: endedAt.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE crawl_sessions SET pages_crawled = ?, ended_at = ?, status = ? WHERE id = ?`,
		pagesCrawled, endedUnix, status, id)
	if err != nil {
		return fmt.Errorf("store: update session: %w", err)
	}
	return nil
}

// GetSession returns one session by id.
func (s *Store) GetSession(ctx context.Context, id int64) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seed, max_depth, pages_crawled, started_at, ended_at, status FROM crawl_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns every crawl session, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, max_depth, pages_crawled, started_at, ended_at, status FROM crawl_sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ClearAll removes every row from every table, used by tests and by an
// explicit reset operation.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin clear tx: %w", err)
	}
	defer tx.Rollback()
	for _, table := range []string{"postings", "words", "pages", "crawl_sessions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// execer is the subset of *sql.DB / *sql.Tx that upsertWordTx needs,
// letting UpsertWord and UpsertPosting share one implementation whether
// or not they are already inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row *sql.Row) (Page, error) {
	return scanPageGeneric(row)
}

func scanPageRows(rows *sql.Rows) (Page, error) {
	return scanPageGeneric(rows)
}

func scanPageGeneric(r rowScanner) (Page, error) {
	var p Page
	var crawledAt int64
	err := r.Scan(&p.ID, &p.URL, &p.Title, &p.Body, &crawledAt, &p.WordCount, &p.Depth)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("store: scan page: %w", err)
	}
	p.CrawledAt = time.Unix(crawledAt, 0).UTC()
	return p, nil
}

func scanSession(row *sql.Row) (Session, error) {
	return scanSessionGeneric(row)
}

func scanSessionRows(rows *sql.Rows) (Session, error) {
	return scanSessionGeneric(rows)
}

func scanSessionGeneric(r rowScanner) (Session, error) {
	var s Session
	var startedAt int64
	var endedAt sql.NullInt64
	err := r.Scan(&s.ID, &s.Seed, &s.MaxDepth, &s.PagesCrawled, &startedAt, &endedAt, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("store: scan session: %w", err)
	}
	s.StartedAt = time.Unix(startedAt, 0).UTC()
	if endedAt.Valid {
		t := time.Unix(endedAt.Int64, 0).UTC()
		s.EndedAt = &t
	}
	return s, nil
}

func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}

func positionsToCSV(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func positionsFromCSV(csv string) []int {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	positions := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			// A corrupt positions list is treated as an empty one rather
			// than failing the whole query, per the retrieval-side error
			// handling policy.
			return nil
		}
		positions = append(positions, n)
	}
	return positions
}
