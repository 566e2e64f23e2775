package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts applied and dropped instructions per kind.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*KindStats
	cues  int64
}

// KindStats holds the counters of one instruction kind.
// Fields are accessed atomically.
type KindStats struct {
	Applied int64 `json:"applied"`
	Dropped int64 `json:"dropped"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*KindStats),
	}
}

// getStats returns the stats object for a kind, creating it if needed.
func (t *Tracker) getStats(kind string) *KindStats {
	t.mu.RLock()
	s, ok := t.stats[kind]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[kind]; ok {
		return s
	}
	s = &KindStats{}
	t.stats[kind] = s
	return s
}

// TrackApplied counts an instruction folded into the trip state.
func (t *Tracker) TrackApplied(kind string) {
	atomic.AddInt64(&t.getStats(kind).Applied, 1)
}

// TrackDropped counts an instruction ignored because navigation had stopped.
func (t *Tracker) TrackDropped(kind string) {
	atomic.AddInt64(&t.getStats(kind).Dropped, 1)
}

func (t *Tracker) TrackCue() {
	atomic.AddInt64(&t.cues, 1)
}

func (t *Tracker) Cues() int64 {
	return atomic.LoadInt64(&t.cues)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]KindStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]KindStats)
	for k, v := range t.stats {
		result[k] = KindStats{
			Applied: atomic.LoadInt64(&v.Applied),
			Dropped: atomic.LoadInt64(&v.Dropped),
		}
	}
	return result
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = make(map[string]*KindStats)
	atomic.StoreInt64(&t.cues, 0)
}
