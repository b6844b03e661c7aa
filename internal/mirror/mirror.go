package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"semnotes/internal/core"
)

// MemoryRow is the denormalized projection of a note kept for similarity
// search. The profile name is captured at write time and may go stale if the
// profile is later renamed; that staleness is accepted.
type MemoryRow struct {
	ID          string // note id
	UserID      string
	ProfileID   string
	ProfileName string
	Entry       string
	Embedding   []float32
	CreatedTs   int64
	UpdatedTs   int64
}

// ProfileRow is the mirror's record of a profile.
type ProfileRow struct {
	ID     string
	UserID string
	Name   string
}

// DB is the relational mirror: a secondary store holding the query-optimized
// projection of profiles and notes used by the retrieval path. Consistency
// with the key-value store is maintained by the ingestion and delete paths,
// not by database constraints.
type DB struct {
	db *sql.DB
}

// New opens the mirror database at the given path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Migrate creates the required tables. It is idempotent.
func (d *DB) Migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			profile_name TEXT NOT NULL,
			entry TEXT NOT NULL,
			embedding TEXT NOT NULL,
			created_ts INTEGER NOT NULL,
			updated_ts INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_user ON memories (user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_profile ON memories (profile_id);`,
	}

	for _, stmt := range schema {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping reports whether the mirror is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// UpsertProfile inserts or updates the mirror's profile record.
func (d *DB) UpsertProfile(ctx context.Context, p *ProfileRow) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, name) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, name = excluded.name`,
		p.ID, p.UserID, p.Name,
	)
	if err != nil {
		return core.StoreError("upsert mirror profile", err)
	}
	return nil
}

// DeleteProfile removes a profile record and all of its memory rows.
func (d *DB) DeleteProfile(ctx context.Context, userID, profileID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreError("delete mirror profile", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM memories WHERE user_id = ? AND profile_id = ?", userID, profileID,
	); err != nil {
		return core.StoreError("delete mirror memories", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM profiles WHERE user_id = ? AND id = ?", userID, profileID,
	); err != nil {
		return core.StoreError("delete mirror profile", err)
	}

	if err := tx.Commit(); err != nil {
		return core.StoreError("delete mirror profile", err)
	}
	return nil
}

// UpsertMemory inserts or updates a memory row.
func (d *DB) UpsertMemory(ctx context.Context, row *MemoryRow) error {
	embedding, err := json.Marshal(row.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, profile_id, profile_name, entry, embedding, created_ts, updated_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 user_id = excluded.user_id, profile_id = excluded.profile_id,
		 profile_name = excluded.profile_name, entry = excluded.entry,
		 embedding = excluded.embedding, updated_ts = excluded.updated_ts`,
		row.ID, row.UserID, row.ProfileID, row.ProfileName, row.Entry,
		string(embedding), row.CreatedTs, row.UpdatedTs,
	)
	if err != nil {
		return core.StoreError("upsert memory "+row.ID, err)
	}
	return nil
}

// DeleteMemory removes the memory row for a note. Deleting an absent row is
// not an error.
func (d *DB) DeleteMemory(ctx context.Context, noteID string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", noteID); err != nil {
		return core.StoreError("delete memory "+noteID, err)
	}
	return nil
}

// ListMemoriesByUser returns all of a user's memory rows.
func (d *DB) ListMemoriesByUser(ctx context.Context, userID string) ([]*MemoryRow, error) {
	return d.listMemories(ctx,
		"SELECT id, user_id, profile_id, profile_name, entry, embedding, created_ts, updated_ts FROM memories WHERE user_id = ? ORDER BY rowid",
		userID,
	)
}

// ListMemoriesByProfile returns the memory rows under one profile.
func (d *DB) ListMemoriesByProfile(ctx context.Context, userID, profileID string) ([]*MemoryRow, error) {
	return d.listMemories(ctx,
		"SELECT id, user_id, profile_id, profile_name, entry, embedding, created_ts, updated_ts FROM memories WHERE user_id = ? AND profile_id = ? ORDER BY rowid",
		userID, profileID,
	)
}

func (d *DB) listMemories(ctx context.Context, query string, args ...any) ([]*MemoryRow, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.StoreError("list memories", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	memories := []*MemoryRow{}
	for rows.Next() {
		var row MemoryRow
		var embedding string
		if err := rows.Scan(
			&row.ID, &row.UserID, &row.ProfileID, &row.ProfileName,
			&row.Entry, &embedding, &row.CreatedTs, &row.UpdatedTs,
		); err != nil {
			return nil, core.StoreError("scan memory", err)
		}
		if err := json.Unmarshal([]byte(embedding), &row.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for %s: %w", row.ID, err)
		}
		memories = append(memories, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("list memories", err)
	}
	return memories, nil
}
