// Package player replays a script of navigation instructions on a loop.
package player

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"carnav/pkg/logging"
	"carnav/pkg/loop"
	"carnav/pkg/model"
)

// ProcessFunc consumes one instruction. next is the instruction that follows it, or nil.
type ProcessFunc func(ins model.Instruction, next *model.Instruction)

// Player delivers instructions one at a time, waiting each instruction's delay
// after its callback returns before delivering the next.
type Player struct {
	loop   *loop.Loop
	logger *slog.Logger
	scale  atomic.Value // float64

	// gen invalidates every delivery of superseded or stopped runs.
	gen atomic.Uint64

	mu      sync.Mutex
	current *run
}

type run struct {
	gen     uint64
	seq     []model.Instruction
	process ProcessFunc

	// Loop-confined
	cursor int
	timer  *loop.Timer

	delivered atomic.Int64
	done      chan struct{}
	once      sync.Once
}

func (r *run) finish() {
	r.once.Do(func() { close(r.done) })
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithTimeScale divides every delay by scale. Values <= 0 are ignored.
func WithTimeScale(scale float64) Option {
	return func(p *Player) { p.SetTimeScale(scale) }
}

// New creates a player that runs on l.
func New(l *loop.Loop, opts ...Option) *Player {
	p := &Player{loop: l, logger: slog.Default()}
	p.scale.Store(1.0)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetTimeScale changes the replay speed for subsequently scheduled deliveries.
func (p *Player) SetTimeScale(scale float64) {
	if scale > 0 {
		p.scale.Store(scale)
	}
}

// Start begins playback of instructions at index 0. A running script is stopped first.
// Instruction 0 is delivered as soon as the loop gets to it.
func (p *Player) Start(instructions []model.Instruction, process ProcessFunc) {
	r := &run{
		gen:     p.gen.Add(1),
		seq:     append([]model.Instruction(nil), instructions...),
		process: process,
		done:    make(chan struct{}),
	}

	p.mu.Lock()
	prev := p.current
	p.current = r
	p.mu.Unlock()

	if prev != nil {
		if !p.loop.Post(func() { p.halt(prev) }) {
			prev.finish()
		}
	}

	p.logger.Debug("Player: Starting script", "instructions", len(r.seq))
	if !p.loop.Post(func() { p.deliver(r) }) {
		r.finish()
	}
}

// Stop cancels any pending delivery. A delivery already running completes.
// Calling Stop on a stopped or finished player does nothing.
func (p *Player) Stop() {
	p.mu.Lock()
	r := p.current
	p.mu.Unlock()
	if r == nil {
		return
	}

	// Takes effect immediately for deliveries already queued on the loop
	p.gen.CompareAndSwap(r.gen, r.gen+1)

	if !p.loop.Post(func() { p.halt(r) }) {
		r.finish()
	}
}

// Done returns a channel closed when the current script is exhausted or stopped.
// Without a script it returns a closed channel.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.current.done
}

// Delivered returns how many instructions of the current script were delivered.
func (p *Player) Delivered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return 0
	}
	return int(p.current.delivered.Load())
}

// Running reports whether the current script still has deliveries ahead.
func (p *Player) Running() bool {
	p.mu.Lock()
	r := p.current
	p.mu.Unlock()
	if r == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (p *Player) active(r *run) bool {
	return p.gen.Load() == r.gen
}

// deliver runs on the loop.
func (p *Player) deliver(r *run) {
	r.timer = nil
	if !p.active(r) || r.cursor >= len(r.seq) {
		r.cursor = len(r.seq)
		r.finish()
		return
	}

	ins := r.seq[r.cursor]
	var next *model.Instruction
	if r.cursor+1 < len(r.seq) {
		n := r.seq[r.cursor+1]
		next = &n
	}
	idx := r.cursor
	r.cursor++
	r.delivered.Add(1)

	logging.Trace(p.logger, "Player: Delivering instruction", "index", idx, "kind", ins.Kind, "delay", ins.Delay)
	r.process(ins, next)

	// The callback may have stopped or replaced this run
	if !p.active(r) || r.cursor >= len(r.seq) {
		if r.cursor >= len(r.seq) {
			p.logger.Debug("Player: Script finished", "delivered", r.delivered.Load())
		}
		r.cursor = len(r.seq)
		r.finish()
		return
	}

	r.timer = p.loop.PostDelayed(p.scaled(ins.Delay), func() { p.deliver(r) })
}

// halt runs on the loop.
func (p *Player) halt(r *run) {
	r.timer.Cancel()
	r.timer = nil
	r.cursor = len(r.seq)
	r.finish()
}

func (p *Player) scaled(d time.Duration) time.Duration {
	scale, _ := p.scale.Load().(float64)
	if scale <= 0 || scale == 1 {
		return d
	}
	return time.Duration(float64(d) / scale)
}
