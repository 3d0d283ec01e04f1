package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/storage"
)

// Options holds database configuration options
type Options struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	// If MaxOpenConns is 0 or negative, there is no limit.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections to the database.
	// If MaxIdleConns is negative, no idle connections are retained.
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum duration of time that a database
	// connection may be reused.
	// If ConnMaxLifetime is 0, connections are reused forever.
	ConnMaxLifetime time.Duration

	// EnableWAL enables Write-Ahead Logging mode for better concurrency.
	EnableWAL bool

	// CacheSize sets the database cache size in pages.
	// Negative values are in KB (e.g., -2000 = 2MB cache).
	CacheSize int

	// BusyTimeout sets the busy timeout.
	BusyTimeout time.Duration
}

// DefaultOptions returns default database options
func DefaultOptions() *Options {
	return &Options{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		EnableWAL:       true,
		CacheSize:       -2000, // 2MB cache
		BusyTimeout:     5 * time.Second,
	}
}

// Store is a SQLite implementation of storage.Store
type Store struct {
	db *sql.DB
}

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// New creates a new SQLite store with default options
func New(dbPath string) (*Store, error) {
	return NewWithOptions(dbPath, DefaultOptions())
}

// NewWithOptions creates a new SQLite store with custom options
func NewWithOptions(dbPath string, opts *Options) (*Store, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.configurePerformance(opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure performance: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// configurePerformance applies performance optimizations
func (s *Store) configurePerformance(opts *Options) error {
	if opts.EnableWAL {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if opts.CacheSize != 0 {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA cache_size=%d;", opts.CacheSize)); err != nil {
			return fmt.Errorf("failed to set cache size: %w", err)
		}
	}

	if opts.BusyTimeout > 0 {
		timeoutMs := int(opts.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", timeoutMs)); err != nil {
			return fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	// Synchronous mode: NORMAL is a good balance of safety and performance
	if _, err := s.db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	return nil
}

// initSchema creates the necessary tables if they don't exist
func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			pubkey TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			kind INTEGER NOT NULL,
			tags TEXT,
			content TEXT NOT NULL,
			sig TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_pubkey ON events(pubkey);
		CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
		CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// Get retrieves a single event matching the indices
func (s *Store) Get(ctx context.Context, indices event.Indices) (*event.Event, error) {
	query, args := buildWhere(indices)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, pubkey, created_at, kind, tags, content, sig FROM events"+query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		// Tag constraints are checked in Go; everything else was
		// already narrowed by the WHERE clause
		if indices.Match(evt) {
			return evt, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return nil, storage.ErrNotFound
}

// Put stores an event
func (s *Store) Put(ctx context.Context, evt *event.Event) error {
	tagsJSON, err := json.Marshal(evt.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO events (id, pubkey, created_at, kind, tags, content, sig)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		evt.ID, evt.PubKey, evt.CreatedAt, evt.Kind, string(tagsJSON), evt.Content, evt.Sig)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Delete removes events matching the indices
func (s *Store) Delete(ctx context.Context, indices event.Indices) error {
	if len(indices.Tags) == 0 {
		query, args := buildWhere(indices)
		if _, err := s.db.ExecContext(ctx, "DELETE FROM events"+query, args...); err != nil {
			return fmt.Errorf("failed to delete events: %w", err)
		}
		return nil
	}

	// Tag constraints require a scan
	matched, err := s.Filter(ctx, indices.Match)
	if err != nil {
		return err
	}
	for _, evt := range matched {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", evt.ID); err != nil {
			return fmt.Errorf("failed to delete event %s: %w", evt.ID, err)
		}
	}
	return nil
}

// Filter returns all stored events satisfying the predicate
func (s *Store) Filter(ctx context.Context, predicate func(*event.Event) bool) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, pubkey, created_at, kind, tags, content, sig FROM events ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var results []*event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		if predicate(evt) {
			results = append(results, evt)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return results, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// buildWhere translates the scalar index fields into a WHERE clause.
// Tag constraints are left to Indices.Match.
func buildWhere(indices event.Indices) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if indices.ID != "" {
		conditions = append(conditions, "id = ?")
		args = append(args, indices.ID)
	}
	if indices.PubKey != "" {
		conditions = append(conditions, "pubkey = ?")
		args = append(args, indices.PubKey)
	}
	if indices.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, *indices.Kind)
	}
	if indices.CreatedAt != nil {
		conditions = append(conditions, "created_at = ?")
		args = append(args, *indices.CreatedAt)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanEvent(rows *sql.Rows) (*event.Event, error) {
	var evt event.Event
	var tagsJSON sql.NullString

	if err := rows.Scan(&evt.ID, &evt.PubKey, &evt.CreatedAt, &evt.Kind, &tagsJSON, &evt.Content, &evt.Sig); err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &evt.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for %s: %w", evt.ID, err)
		}
	}
	return &evt, nil
}
