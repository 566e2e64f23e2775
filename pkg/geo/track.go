package geo

import "sync"

// Trail keeps the last few fixes of the vehicle. Headings are taken across the
// whole window so a single short hop does not swing the map arrow.
type Trail struct {
	mu    sync.RWMutex
	fixes []Location
	size  int
}

// NewTrail creates a trail holding at most size fixes. Sizes below 2 are raised to 2.
func NewTrail(size int) *Trail {
	if size < 2 {
		size = 2
	}
	return &Trail{size: size}
}

// Push records l and returns it with the smoothed heading. A fix at the same
// point as the previous one is not recorded. Until the trail spans two distinct
// points the heading of l is kept.
func (t *Trail) Push(l Location) Location {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.fixes); n == 0 || t.fixes[n-1].Point != l.Point {
		t.fixes = append(t.fixes, l)
		if len(t.fixes) > t.size {
			t.fixes = t.fixes[1:]
		}
	}
	if len(t.fixes) >= 2 {
		l.Heading = Bearing(t.fixes[0].Point, t.fixes[len(t.fixes)-1].Point)
	}
	return l
}

// Speed returns the mean speed in meters per second over the trail.
func (t *Trail) Speed() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.fixes) < 2 {
		return 0
	}
	first, last := t.fixes[0], t.fixes[len(t.fixes)-1]
	secs := last.Time.Sub(first.Time).Seconds()
	if secs <= 0 {
		return 0
	}
	return Distance(first.Point, last.Point) / secs
}

// Len returns the number of fixes held.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.fixes)
}

// Reset drops every fix.
func (t *Trail) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fixes = nil
}
