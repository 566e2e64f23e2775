package logging

import (
	"strings"
	"sync"
)

// DefaultCaptureLines is how many lines each capture keeps.
const DefaultCaptureLines = 50

// LineBuffer is an io.Writer that keeps the most recent lines written to it.
// Each Write is one line.
type LineBuffer struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// NewLineBuffer creates a buffer holding up to size lines.
func NewLineBuffer(size int) *LineBuffer {
	if size < 1 {
		size = 1
	}
	return &LineBuffer{lines: make([]string, size)}
}

var (
	// ServerLines captures INFO and above from the server log.
	ServerLines = NewLineBuffer(DefaultCaptureLines)
	// EventLines captures formatted trip events.
	EventLines = NewLineBuffer(DefaultCaptureLines)
)

func (b *LineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.next] = strings.TrimSpace(string(p))
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
	return len(p), nil
}

// Last returns the newest line, or "" when nothing was written.
func (b *LineBuffer) Last() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.full && b.next == 0 {
		return ""
	}
	return b.lines[(b.next-1+len(b.lines))%len(b.lines)]
}

// Lines returns up to n of the newest lines, oldest first. n <= 0 returns all held lines.
func (b *LineBuffer) Lines(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.next
	if b.full {
		count = len(b.lines)
	}
	if n <= 0 || n > count {
		n = count
	}
	out := make([]string, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, b.lines[(b.next-i+len(b.lines))%len(b.lines)])
	}
	return out
}
