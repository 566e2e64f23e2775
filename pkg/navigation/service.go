// Package navigation runs scripted trips on a single event loop and
// publishes the resulting trip state.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"carnav/pkg/config"
	"carnav/pkg/loop"
	"carnav/pkg/model"
	"carnav/pkg/player"
	"carnav/pkg/script"
	"carnav/pkg/trip"
)

// ErrNotBound is returned when a script is started before a status sink is bound.
var ErrNotBound = errors.New("navigation service not bound")

// CueName is the cue queued every cue interval.
const CueName = "turn_right"

// closeTimeout bounds how long Close waits for the loop to apply the final stop.
const closeTimeout = 2 * time.Second

// Config holds the service settings.
type Config struct {
	CueInterval int
	CueFile     string
	TimeScale   float64
}

// ConfigFrom maps the application config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		CueInterval: c.Navigation.CueInterval,
		CueFile:     c.Navigation.CueFile,
		TimeScale:   c.Script.TimeScale,
	}
}

// CueQueue accepts audio cues for playback.
type CueQueue interface {
	Enqueue(c model.Cue, priority bool) bool
}

// EventRecorder stores trip history events.
type EventRecorder interface {
	AddEvent(event *model.TripEvent)
}

// Deps are the optional collaborators of the service.
type Deps struct {
	Notifier trip.Notifier
	Cues     CueQueue
	Stats    trip.Recorder
	Events   EventRecorder
	Logger   *slog.Logger
}

// Service owns the event loop, the script player and the trip aggregator.
// Instruction delivery, folding and stop requests all run on the loop goroutine.
type Service struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	loop    *loop.Loop
	player  *player.Player
	agg     *trip.Aggregator
	bound   atomic.Bool
	started atomic.Bool

	mu       sync.RWMutex
	snapshot model.TripState
	listener trip.Listener
	subs     map[int]trip.Listener
	nextSub  int
}

// NewService creates a service. Call Start to run its loop.
func NewService(cfg Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		loop:   loop.New(),
		subs:   make(map[int]trip.Listener),
	}
	s.player = player.New(s.loop, player.WithLogger(logger), player.WithTimeScale(cfg.TimeScale))

	opts := []trip.Option{
		trip.WithListener(s.publish),
		trip.WithCue(s.playCue, cfg.CueInterval),
		trip.WithLogger(logger),
	}
	if deps.Notifier != nil {
		opts = append(opts, trip.WithNotifier(deps.Notifier))
	}
	if deps.Stats != nil {
		opts = append(opts, trip.WithRecorder(deps.Stats))
	}
	s.agg = trip.NewAggregator(nil, opts...)
	return s
}

// Start runs the event loop until ctx is done or Close is called.
func (s *Service) Start(ctx context.Context) {
	s.started.Store(true)
	go s.loop.Run(ctx)
	s.logger.Info("Navigation: Service started")
}

// Close ends any running trip and stops the event loop. The stop is applied
// on the loop before it closes, so the ended transition is still published.
func (s *Service) Close() {
	s.player.Stop()
	if s.started.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		err := s.loop.Do(ctx, s.agg.Stop)
		if errors.Is(err, loop.ErrClosed) {
			// The loop already exited, so nothing else touches the aggregator
			select {
			case <-s.loop.Done():
				s.agg.Stop()
				err = nil
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		cancel()
		if err != nil {
			s.logger.Warn("Navigation: Final stop not applied", "error", err)
		}
	}
	s.loop.Close()
	// A halt still queued was dropped with the loop; this finishes the run
	s.player.Stop()
}

// Done is closed once the event loop has exited.
func (s *Service) Done() <-chan struct{} {
	return s.loop.Done()
}

// Bind attaches the navigation status sink and the UI listener.
// A sink that can request a stop is wired to StopNavigation.
func (s *Service) Bind(sink trip.StatusSink, l trip.Listener) error {
	if sink == nil {
		return fmt.Errorf("bind: nil status sink")
	}
	if sr, ok := sink.(trip.StopRequester); ok {
		sr.SetStopHandler(func() {
			if err := s.StopNavigation(); err != nil {
				s.logger.Warn("Navigation: Stop request failed", "error", err)
			}
		})
	}

	if !s.loop.Post(func() {
		s.agg.SetSink(sink, s.publish)
		s.mu.Lock()
		s.listener = l
		s.mu.Unlock()
	}) {
		return loop.ErrClosed
	}
	s.bound.Store(true)
	s.logger.Debug("Navigation: Bound")
	return nil
}

// Unbind detaches the sink and listener. A running script keeps playing.
func (s *Service) Unbind() {
	s.bound.Store(false)
	s.loop.Post(func() {
		s.agg.SetSink(nil, s.publish)
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	})
	s.logger.Debug("Navigation: Unbound")
}

// ExecuteInstructions validates a script and starts playing it, replacing any
// script still running.
func (s *Service) ExecuteInstructions(instructions []model.Instruction) error {
	if err := script.Validate(instructions); err != nil {
		return fmt.Errorf("failed to validate script: %w", err)
	}
	if !s.bound.Load() {
		return ErrNotBound
	}

	s.logger.Info("Navigation: Executing script", "instructions", len(instructions))
	s.player.Start(instructions, s.process)
	return nil
}

// StopNavigation cancels the running script and ends navigation.
// No instruction is delivered after it returns.
func (s *Service) StopNavigation() error {
	s.player.Stop()
	if !s.loop.Post(s.agg.Stop) {
		return loop.ErrClosed
	}
	s.logger.Info("Navigation: Stop requested")
	return nil
}

// SetTimeScale changes the replay speed of the remaining deliveries.
func (s *Service) SetTimeScale(scale float64) {
	s.player.SetTimeScale(scale)
}

// SetCueInterval changes how often the cue plays.
func (s *Service) SetCueInterval(n int) {
	s.loop.Post(func() { s.agg.SetCueInterval(n) })
}

// Subscribe registers l for every trip state change. l runs on the loop
// goroutine and must not block. The returned func unsubscribes.
func (s *Service) Subscribe(l trip.Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns a copy of the last published trip state.
func (s *Service) Snapshot() model.TripState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

func (s *Service) IsNavigating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.IsNavigating
}

// Running reports whether a script still has deliveries ahead.
func (s *Service) Running() bool {
	return s.player.Running()
}

// ScriptDone returns a channel closed when the current script ends.
func (s *Service) ScriptDone() <-chan struct{} {
	return s.player.Done()
}

// Delivered returns how many instructions of the current script were delivered.
func (s *Service) Delivered() int {
	return s.player.Delivered()
}

// process runs on the loop.
func (s *Service) process(ins model.Instruction, next *model.Instruction) {
	s.agg.Apply(ins, next)
	if ins.Kind == model.KindEndNavigation {
		s.player.Stop()
	}
}

// publish runs on the loop.
func (s *Service) publish(st model.TripState) {
	s.mu.Lock()
	prev := s.snapshot
	s.snapshot = st
	l := s.listener
	subs := make([]trip.Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.recordTransitions(&prev, &st)

	if l != nil {
		l(st.Clone())
	}
	for _, fn := range subs {
		fn(st.Clone())
	}
}

func (s *Service) recordTransitions(prev, cur *model.TripState) {
	if s.deps.Events == nil {
		return
	}

	add := func(t model.EventType, title, summary string) {
		s.deps.Events.AddEvent(&model.TripEvent{Type: t, Title: title, Summary: summary})
	}

	switch {
	case !prev.IsNavigating && cur.IsNavigating:
		add(model.EventNavigationStarted, "Navigation started", "")
	case prev.IsNavigating && !cur.IsNavigating:
		add(model.EventNavigationEnded, "Navigation ended", "")
		return
	}

	if prev.IsNavigating && cur.IsRerouting && !prev.IsRerouting {
		summary := ""
		if d, ok := cur.CurrentDestination(); ok {
			summary = d.Name
		}
		add(model.EventRerouting, "Rerouting", summary)
	}
	if cur.HasArrived && !prev.HasArrived {
		summary := ""
		if d, ok := cur.CurrentDestination(); ok {
			summary = fmt.Sprintf("%s, %s", d.Name, d.Address)
		}
		add(model.EventArrived, "Arrived", summary)
	}
}

func (s *Service) playCue() {
	if s.deps.Cues == nil || s.cfg.CueFile == "" {
		return
	}
	s.deps.Cues.Enqueue(model.Cue{Name: CueName, Path: s.cfg.CueFile}, false)
}
