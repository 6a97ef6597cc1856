package kv

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on kv.updated_seq
const currentSchemaVersion = 1

// Option configures a Store or Memory.
type Option func(*options)

type options struct {
	quota int
}

// WithQuota limits the size of a single value in bytes. Zero means no limit.
func WithQuota(bytes int) Option {
	return func(o *options) {
		o.quota = bytes
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Entry describes one stored value.
type Entry struct {
	Key        string `json:"key"`
	Bytes      int    `json:"bytes"`
	UpdatedSeq int64  `json:"updated_seq"`
}

// Store is a SQLite-backed byte store.
type Store struct {
	db    *sql.DB
	quota int
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
// The special path ":memory:" opens a private in-memory database.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps ":memory:" databases alive for the life of the Store.
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

	o := buildOptions(opts)
	return &Store{db: db, quota: o.quota}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get returns the value stored under key. The boolean is false when the key
// is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	if s.quota > 0 && len(value) > s.quota {
		return fmt.Errorf("set %q: %w (%d > %d bytes)", key, ErrQuotaExceeded, len(value), s.quota)
	}
	if value == nil {
		value = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set %q: begin tx: %w", key, err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_seq) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_seq = excluded.updated_seq
	`, key, value, seq)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set %q: commit: %w", key, err)
	}
	return nil
}

// Entries lists every stored key with its size and the write sequence that
// last replaced it, most recent first.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, length(value), updated_seq FROM kv
		ORDER BY updated_seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Bytes, &e.UpdatedSeq); err != nil {
			return nil, fmt.Errorf("entries: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entries: %w", err)
	}
	return entries, nil
}

// WriteSeq returns the logical sequence number of the latest write.
func (s *Store) WriteSeq(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_meta WHERE name = 'write_seq'`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("write seq: %w", err)
	}
	return seq, nil
}

// nextSeq increments and returns the write counter inside tx.
func nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	if _, err := tx.ExecContext(ctx, `UPDATE kv_meta SET value = value + 1 WHERE name = 'write_seq'`); err != nil {
		return 0, fmt.Errorf("bump write seq: %w", err)
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM kv_meta WHERE name = 'write_seq'`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read write seq: %w", err)
	}
	return seq, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
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

// migrateToV1 indexes updated_seq, the order Entries lists keys in.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_kv_updated_seq ON kv(updated_seq)`)
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
