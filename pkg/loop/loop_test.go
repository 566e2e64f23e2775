package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

func TestLoop_FIFO(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 50; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if len(got) != 50 {
		t.Fatalf("expected 50 tasks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("expected FIFO order, got %v", got)
		}
	}
}

func TestLoop_SingleGoroutine(t *testing.T) {
	l := startLoop(t)

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected tasks to never overlap, max concurrent %d", maxActive)
	}
}

func TestLoop_PostDelayed(t *testing.T) {
	l := startLoop(t)

	fired := make(chan time.Time, 1)
	start := time.Now()
	l.PostDelayed(30*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		if at.Sub(start) < 30*time.Millisecond {
			t.Errorf("fired too early: %v", at.Sub(start))
		}
	case <-time.After(time.Second):
		t.Fatal("delayed task never fired")
	}
}

func TestLoop_CancelFromLoop(t *testing.T) {
	l := startLoop(t)

	ran := make(chan struct{}, 1)
	var tm *Timer
	_ = l.Do(context.Background(), func() {
		tm = l.PostDelayed(0, func() { ran <- struct{}{} })
		// Already queued, cancelled before it gets its turn
		tm.Cancel()
	})
	_ = l.Do(context.Background(), func() {})

	select {
	case <-ran:
		t.Fatal("cancelled task ran")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoop_Close(t *testing.T) {
	l := New()
	ctx := context.Background()
	go l.Run(ctx)

	l.Close()
	<-l.Done()

	if l.Post(func() {}) {
		t.Error("expected Post to fail after Close")
	}
	if err := l.Do(ctx, func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestLoop_DoContext(t *testing.T) {
	l := New() // never run
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
