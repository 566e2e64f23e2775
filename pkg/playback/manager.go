// Package playback queues navigation cues and plays them one at a time.
package playback

import (
	"context"
	"log/slog"
	"sync"

	"carnav/pkg/model"
)

// DefaultMaxSize bounds the queue for non-priority cues.
const DefaultMaxSize = 5

// Player plays one audio file and reports completion.
type Player interface {
	Play(path string, onComplete func()) error
}

// Manager manages the playback queue for cues.
type Manager struct {
	mu      sync.RWMutex
	queue   []model.Cue
	maxSize int
	wake    chan struct{}
	played  int
}

// NewManager creates a new playback queue manager.
func NewManager(maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{
		queue:   make([]model.Cue, 0),
		maxSize: maxSize,
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue adds a cue to the playback queue. Priority cues go to the front and
// are never dropped. It reports whether the cue was queued.
func (m *Manager) Enqueue(c model.Cue, priority bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) >= m.maxSize && !priority {
		slog.Info("PlaybackQueue: Queue full, dropping cue", "name", c.Name)
		return false
	}

	if priority {
		m.queue = append([]model.Cue{c}, m.queue...)
	} else {
		m.queue = append(m.queue, c)
	}
	slog.Debug("PlaybackQueue: Enqueued cue", "name", c.Name, "priority", priority, "queue_len", len(m.queue))

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// Pop retrieves and removes the next cue from the queue.
func (m *Manager) Pop() (model.Cue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return model.Cue{}, false
	}
	c := m.queue[0]
	m.queue = m.queue[1:]
	return c, true
}

// Peek returns the head of the queue without removing it.
func (m *Manager) Peek() (model.Cue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.queue) == 0 {
		return model.Cue{}, false
	}
	return m.queue[0], true
}

// Count returns the number of items in the queue.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queue)
}

// Played returns how many cues the worker has finished.
func (m *Manager) Played() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.played
}

// Clear clears the queue.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = make([]model.Cue, 0)
}

// Run plays queued cues one after another until ctx is done.
// enabled is consulted per cue; disabled cues are discarded unplayed.
func (m *Manager) Run(ctx context.Context, p Player, enabled func() bool) {
	for {
		c, ok := m.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
				continue
			}
		}

		if enabled != nil && !enabled() {
			slog.Debug("PlaybackQueue: Audio disabled, skipping cue", "name", c.Name)
			continue
		}

		done := make(chan struct{})
		if err := p.Play(c.Path, func() { close(done) }); err != nil {
			slog.Warn("PlaybackQueue: Failed to play cue", "name", c.Name, "path", c.Path, "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-done:
		}

		m.mu.Lock()
		m.played++
		m.mu.Unlock()
	}
}
