package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carnav/pkg/db"
	"carnav/pkg/model"
)

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	EventStore

	// ListState returns all persisted keys with the given prefix.
	ListState(ctx context.Context, prefix string) (map[string]string, error)

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- StateStore ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.Warn("Store: failed to read state", "key", key, "error", err)
		return "", false
	}
	return val.String, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

func (s *SQLiteStore) ListState(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM persistent_state WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v.String
	}
	return out, rows.Err()
}

// --- EventStore ---

func (s *SQLiteStore) SaveEvent(ctx context.Context, event *model.TripEvent) error {
	if event.ID == "" {
		return errors.New("event id is required")
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	query := `INSERT OR REPLACE INTO trip_events (id, type, title, summary, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, event.ID, string(event.Type), event.Title, event.Summary, ts.UTC()); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// ListEvents returns the newest events in chronological order. A limit <= 0 returns all.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]model.TripEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, title, summary, created_at FROM (
			SELECT id, type, title, summary, created_at FROM trip_events ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.TripEvent
	for rows.Next() {
		var e model.TripEvent
		var typ string
		var title, summary sql.NullString
		var created sql.NullTime
		if err := rows.Scan(&e.ID, &typ, &title, &summary, &created); err != nil {
			return nil, err
		}
		e.Type = model.EventType(typ)
		e.Title = title.String
		e.Summary = summary.String
		e.Timestamp = created.Time
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) ClearEvents(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trip_events")
	return err
}
