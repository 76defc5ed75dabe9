// Package journal persists captured change events to SQLite so a live
// capture can be inspected after the fact and replayed through the
// verifier.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/streamcheck/streamcheck/internal/capture"
)

//go:embed schema.sql
var schemaSQL string

// Journal provides durable storage for captured event logs.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a SQLite journal at the given path. Use
// ":memory:" for an isolated in-memory journal in tests.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// WriteEvent inserts one captured event into a session's log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate ids are
// silently ignored.
func (j *Journal) WriteEvent(ctx context.Context, id, session string, seq int64, ev capture.Event) error {
	recordJSON, err := marshalRecord(ev.Record)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events (id, session, seq, topic, record)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, session, seq, ev.Topic, recordJSON)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// ReadSession returns a session's events in emission order.
// Ordering is deterministic: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no events.
func (j *Journal) ReadSession(ctx context.Context, session string) ([]capture.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT topic, record
		FROM events
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	events := []capture.Event{}
	for rows.Next() {
		var topic, recordJSON string
		if err := rows.Scan(&topic, &recordJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		rec, err := unmarshalRecord(recordJSON)
		if err != nil {
			return nil, fmt.Errorf("decode event record: %w", err)
		}
		events = append(events, capture.Event{Topic: topic, Record: rec})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Sessions lists the distinct sessions present in the journal, oldest
// first. UUIDv7 session ids sort by creation time.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT session
		FROM events
		ORDER BY session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
