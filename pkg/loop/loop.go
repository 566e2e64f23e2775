// Package loop provides the single execution context the navigation core runs on.
//
// Closures posted to a Loop run one at a time, in posting order, on the goroutine
// that called Run. Delayed closures are queued when their timer fires, so they
// are ordered with everything else posted to the loop.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a serialized FIFO task queue.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool
	once    sync.Once
}

// New creates a loop. Nothing executes until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Post queues fn. It returns false if the loop has been closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Timer is a delayed task that can be cancelled.
type Timer struct {
	t         *time.Timer
	cancelled atomic.Bool
}

// Cancel prevents the task from running. Called on the loop goroutine it is
// exact: a task whose timer already fired but has not run yet is skipped.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	t.t.Stop()
}

// PostDelayed queues fn after d elapses.
func (l *Loop) PostDelayed(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	run := func() {
		if !tm.cancelled.Load() {
			fn()
		}
	}
	if d <= 0 {
		tm.t = time.NewTimer(0)
		tm.t.Stop()
		l.Post(run)
		return tm
	}
	tm.t = time.AfterFunc(d, func() { l.Post(run) })
	return tm
}

// Do runs fn on the loop and waits for it to return.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Run executes queued tasks until ctx is cancelled or Close is called.
// Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	defer close(l.done)
	defer l.Close()

	for {
		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, task := range tasks {
			select {
			case <-l.stop:
				return
			default:
			}
			task()
		}

		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-l.wake:
		}
	}
}

// Close stops the loop. Pending and future posts are discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.stop)
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
