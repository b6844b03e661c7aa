package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"semnotes/internal/core"
)

// ErrNotFound is returned when a key is not present in the store.
var ErrNotFound = errors.New("key not found")

// ErrLimitExceeded is returned by SetWithCountLimit when the guarded count is
// already at its limit.
var ErrLimitExceeded = errors.New("record limit exceeded")

// Record is one stored entry: a namespaced key, an explicit kind discriminant,
// and a JSON value.
type Record struct {
	Key   string
	Kind  string
	Value json.RawMessage
}

// Store is a durable, prefix-queryable key-value store backed by SQLite. It is
// the system of record for profiles, categories, and notes.
type Store struct {
	db *sql.DB
}

// New opens a key-value store at the given path and sets connection pool
// settings. The busy timeout covers concurrent submit writers; transactions
// take the write lock up front so a guarded count-then-write never deadlocks
// against another writer.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate creates the required table. It is idempotent and can be run multiple
// times safely.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value TEXT NOT NULL
	);`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Set stores value under key, overwriting any existing record.
func (s *Store) Set(ctx context.Context, key, kind string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, kind, value) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
		key, kind, string(data),
	)
	if err != nil {
		return core.StoreError("set "+key, err)
	}
	return nil
}

// SetWithCountLimit stores value under key unless the number of records of
// the given kind in the prefix range is already at limit, in which case it
// returns ErrLimitExceeded. The count and the write happen in one transaction,
// so two concurrent callers cannot both pass the check and overshoot the
// limit.
func (s *Store) SetWithCountLimit(ctx context.Context, key, kind string, value any, prefix string, limit int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreError("set "+key, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	countQuery := "SELECT COUNT(*) FROM kv WHERE key >= ? AND key < ? AND kind = ?"
	args := []any{prefix, prefixUpperBound(prefix), kind}
	if args[1] == "" {
		countQuery = "SELECT COUNT(*) FROM kv WHERE key >= ? AND kind = ?"
		args = []any{prefix, kind}
	}

	var count int
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return core.StoreError("count "+prefix, err)
	}
	if count >= limit {
		return ErrLimitExceeded
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, kind, value) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
		key, kind, string(data),
	); err != nil {
		return core.StoreError("set "+key, err)
	}

	if err := tx.Commit(); err != nil {
		return core.StoreError("set "+key, err)
	}
	return nil
}

// Get reads the record stored under key into out and returns its kind.
// Returns ErrNotFound when the key is absent.
func (s *Store) Get(ctx context.Context, key string, out any) (string, error) {
	var kind, value string
	err := s.db.QueryRowContext(ctx,
		"SELECT kind, value FROM kv WHERE key = ?", key,
	).Scan(&kind, &value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", core.StoreError("get "+key, err)
	}

	if out != nil {
		if err := json.Unmarshal([]byte(value), out); err != nil {
			return "", fmt.Errorf("failed to unmarshal value for %s: %w", key, err)
		}
	}
	return kind, nil
}

// Delete removes the record under key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return core.StoreError("delete "+key, err)
	}
	return nil
}

// DeleteMany removes all the given keys in one transaction.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreError("delete many", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			return core.StoreError("delete "+key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.StoreError("delete many", err)
	}
	return nil
}

// ListByPrefix returns all records whose key starts with prefix. Order is
// unspecified; callers must not depend on it.
//
// The scan is a half-open key range rather than LIKE: SQLite's LIKE is
// case-insensitive for ASCII, which would let keys differing only in case
// (distinct under the primary key's binary collation) match each other's
// prefixes; the range comparison stays byte-exact.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]Record, error) {
	query := "SELECT key, kind, value FROM kv WHERE key >= ? AND key < ?"
	args := []any{prefix, prefixUpperBound(prefix)}
	if args[1] == "" {
		query = "SELECT key, kind, value FROM kv WHERE key >= ?"
		args = args[:1]
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.StoreError("list by prefix "+prefix, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var value string
		if err := rows.Scan(&rec.Key, &rec.Kind, &value); err != nil {
			return nil, core.StoreError("scan record", err)
		}
		rec.Value = json.RawMessage(value)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("list by prefix "+prefix, err)
	}
	return records, nil
}

// prefixUpperBound returns the smallest key greater than every key carrying
// the given prefix, or "" when no finite bound exists (a prefix of all 0xFF
// bytes, or the empty prefix matching everything).
func prefixUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xFF {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
