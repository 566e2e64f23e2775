package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"carnav/pkg/logging"
	"carnav/pkg/model"
	"carnav/pkg/store"
)

// DefaultHistorySize bounds the in-memory trip history.
const DefaultHistorySize = 200

// Manager keeps the trip history of the session.
type Manager struct {
	mu      sync.RWMutex
	events  []model.TripEvent
	limit   int
	store   store.EventStore
	timeout time.Duration
}

// NewManager creates a new session manager. st may be nil.
func NewManager(st store.EventStore) *Manager {
	return &Manager{
		limit:   DefaultHistorySize,
		store:   st,
		timeout: 2 * time.Second,
	}
}

// SetLimit changes how many events are kept in memory.
func (m *Manager) SetLimit(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = n
	m.trimLocked()
}

// AddEvent adds a structured event to the session history.
func (m *Manager) AddEvent(event *model.TripEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.events = append(m.events, *event)
	m.trimLocked()
	m.mu.Unlock()

	// Log to events.log
	logging.LogEvent(event)

	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.store.SaveEvent(ctx, event); err != nil {
		slog.Error("Session: Failed to persist trip event", "type", event.Type, "error", err)
	}
}

func (m *Manager) trimLocked() {
	if over := len(m.events) - m.limit; over > 0 {
		m.events = append([]model.TripEvent(nil), m.events[over:]...)
	}
}

// Events returns up to limit of the most recent events, oldest first. limit <= 0 returns all.
func (m *Manager) Events(limit int) []model.TripEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.events
	if limit > 0 && len(src) > limit {
		src = src[len(src)-limit:]
	}
	return append([]model.TripEvent(nil), src...)
}

// Count returns the number of events in memory.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Restore replaces the in-memory history without persisting it again.
func (m *Manager) Restore(events []model.TripEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append([]model.TripEvent(nil), events...)
	m.trimLocked()
}

// Reset clears the history, including the persisted one.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	return m.store.ClearEvents(ctx)
}
