package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/shadowfeed/internal/feed"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added sort-order indexes for row-indexed reads
const currentSchemaVersion = 1

// Store provides durable storage for wallet records.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB

	mu        sync.Mutex
	bulk      bool
	observers map[int]func(feed.Change)
	nextObs   int

	collections map[feed.Kind]*Collection
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db}
	s.collections = map[feed.Kind]*Collection{
		feed.KindTransaction: newCollection(s, feed.KindTransaction, transactionTable),
		feed.KindAddress:     newCollection(s, feed.KindAddress, addressTable),
		feed.KindMessage:     newCollection(s, feed.KindMessage, messageTable),
	}
	return s, nil
}

// Close closes every subscription and the database connection.
func (s *Store) Close() error {
	for _, c := range s.collections {
		c.hub.Close()
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Collection returns the collection for kind, or nil for an invalid kind.
func (s *Store) Collection(kind feed.Kind) *Collection {
	return s.collections[kind]
}

// Collections returns every collection keyed by kind.
func (s *Store) Collections() map[feed.Kind]*Collection {
	out := make(map[feed.Kind]*Collection, len(s.collections))
	for k, c := range s.collections {
		out[k] = c
	}
	return out
}

// IsBulkLoading reports whether a bulk load is in progress.
func (s *Store) IsBulkLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulk
}

// SetBulkLoading starts or ends a bulk load. Ending one posts FullReset
// for every collection.
func (s *Store) SetBulkLoading(on bool) {
	s.mu.Lock()
	was := s.bulk
	s.bulk = on
	s.mu.Unlock()

	if was && !on {
		for _, k := range feed.AllKinds() {
			s.notify(feed.FullReset(k))
		}
	}
}

// notify drops the collection's row cache and posts c, unless a bulk
// load is in progress.
func (s *Store) notify(c feed.Change) {
	coll, ok := s.collections[c.Kind]
	if !ok {
		return
	}
	coll.invalidate()

	s.mu.Lock()
	if s.bulk {
		s.mu.Unlock()
		return
	}
	observers := make([]func(feed.Change), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	coll.hub.Publish(c)
	for _, fn := range observers {
		fn(c)
	}
}

// Observe registers fn to be called synchronously, on the mutating
// goroutine, for every change posted. Unlike Collection.Subscribe, fn has
// run by the time the mutation returns.
func (s *Store) Observe(fn func(feed.Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.observers == nil {
		s.observers = make(map[int]func(feed.Change))
	}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Counts returns the row count of every collection.
func (s *Store) Counts(ctx context.Context) (map[feed.Kind]int, error) {
	out := make(map[feed.Kind]int, len(s.collections))
	for k, c := range s.collections {
		n, err := c.RowCount(ctx)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds indexes matching each collection's sort order.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_order
		ON transactions(confirmations, tx_time DESC, txid);
		CREATE INDEX IF NOT EXISTS idx_addresses_order
		ON addresses(label, address);
		CREATE INDEX IF NOT EXISTS idx_messages_order
		ON messages(received_at DESC, msg_key);
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
