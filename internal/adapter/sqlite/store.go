// Package sqlite persists offline queues in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"nutramind/internal/domain"
	"nutramind/internal/offline"
)

//go:embed schema.sql
var schemaSQL string

// QueueStore implements offline.Store.
type QueueStore struct {
	db *sql.DB
}

var _ offline.Store = (*QueueStore)(nil)

// Open creates or opens the queue database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*QueueStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect queue db: %w", err)
	}

	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &QueueStore{db: db}, nil
}

// Close closes the database.
func (s *QueueStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the persisted queue of userID. A user with no rows gets an
// empty state.
func (s *QueueStore) Load(ctx context.Context, userID int64) (offline.State, error) {
	var st offline.State

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, kind, collection, record_id, local_id, payload, queued_at
		FROM queue_entries
		WHERE user_id = ?
		ORDER BY seq`, userID)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e        offline.Entry
			kind     string
			payload  []byte
			queuedAt string
		)
		if err := rows.Scan(&e.Mutation.Key, &kind, &e.Mutation.Collection, &e.Mutation.RecordID, &e.LocalID, &payload, &queuedAt); err != nil {
			return st, err
		}
		e.Mutation.Kind = domain.MutationKind(kind)
		if len(payload) > 0 {
			e.Mutation.Payload = payload
		}
		if t, err := time.Parse(time.RFC3339Nano, queuedAt); err == nil {
			e.Mutation.QueuedAt = t
		}
		st.Entries = append(st.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	idRows, err := s.db.QueryContext(ctx, `SELECT local_id, remote_id FROM committed_ids WHERE user_id = ?`, userID)
	if err != nil {
		return st, err
	}
	defer idRows.Close()
	for idRows.Next() {
		var local, remote string
		if err := idRows.Scan(&local, &remote); err != nil {
			return st, err
		}
		if st.Committed == nil {
			st.Committed = make(map[string]string)
		}
		st.Committed[local] = remote
	}
	if err := idRows.Err(); err != nil {
		return st, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT last_error FROM queue_meta WHERE user_id = ?`, userID).Scan(&st.LastError)
	if err != nil && err != sql.ErrNoRows {
		return st, err
	}
	return st, nil
}

// Save replaces the persisted queue of userID with st.
func (s *QueueStore) Save(ctx context.Context, userID int64, st offline.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM queue_entries WHERE user_id = ?`,
		`DELETE FROM committed_ids WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}

	for i, e := range st.Entries {
		m := e.Mutation
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO queue_entries (user_id, seq, key, kind, collection, record_id, local_id, payload, queued_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, i, m.Key, string(m.Kind), m.Collection, m.RecordID, e.LocalID, []byte(m.Payload),
			m.QueuedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert entry %s: %w", m.Key, err)
		}
	}
	for local, remote := range st.Committed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO committed_ids (user_id, local_id, remote_id) VALUES (?, ?, ?)`,
			userID, local, remote); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO queue_meta (user_id, last_error) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_error = excluded.last_error`,
		userID, st.LastError); err != nil {
		return err
	}
	return tx.Commit()
}
