package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned by Fire when the event is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// State of a car session.
type State string

const (
	StateInitialized State = "initialized"
	StateCreated     State = "created"
	StateStarted     State = "started"
	StateResumed     State = "resumed"
	StatePaused      State = "paused"
	StateStopped     State = "stopped"
	StateDestroyed   State = "destroyed"
)

// Event moves a session between states.
type Event string

const (
	EventCreate  Event = "create"
	EventStart   Event = "start"
	EventResume  Event = "resume"
	EventPause   Event = "pause"
	EventStop    Event = "stop"
	EventDestroy Event = "destroy"
)

var transitions = map[State]map[Event]State{
	StateInitialized: {EventCreate: StateCreated},
	StateCreated:     {EventStart: StateStarted, EventDestroy: StateDestroyed},
	StateStarted:     {EventResume: StateResumed, EventStop: StateStopped},
	StateResumed:     {EventPause: StatePaused},
	StatePaused:      {EventResume: StateResumed, EventStop: StateStopped},
	StateStopped:     {EventStart: StateStarted, EventDestroy: StateDestroyed},
	StateDestroyed:   {},
}

// Hook runs after the lifecycle entered a state.
type Hook func(from State)

// Lifecycle is the state machine of one session.
type Lifecycle struct {
	mu    sync.Mutex
	state State
	hooks map[State][]Hook
}

// NewLifecycle starts in StateInitialized.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		state: StateInitialized,
		hooks: make(map[State][]Hook),
	}
}

// On registers a hook for entering state.
func (l *Lifecycle) On(state State, h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks[state] = append(l.hooks[state], h)
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Fire applies event. Hooks run outside the lock, in registration order.
func (l *Lifecycle) Fire(e Event) error {
	l.mu.Lock()
	from := l.state
	to, ok := transitions[from][e]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, from)
	}
	l.state = to
	hooks := append([]Hook(nil), l.hooks[to]...)
	l.mu.Unlock()

	for _, h := range hooks {
		h(from)
	}
	return nil
}

// CanFire reports whether e is allowed in the current state.
func (l *Lifecycle) CanFire(e Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := transitions[l.state][e]
	return ok
}
