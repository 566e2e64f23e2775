package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"carnav/pkg/geo"
	"carnav/pkg/model"
	"carnav/pkg/screen"
	"carnav/pkg/script"
	"carnav/pkg/trip"
)

// Navigator is the navigation service as seen by a session.
type Navigator interface {
	Bind(sink trip.StatusSink, l trip.Listener) error
	Unbind()
	ExecuteInstructions(instructions []model.Instruction) error
	StopNavigation() error
	Snapshot() model.TripState
}

// Options configures a NavigationSession.
type Options struct {
	Catalog *script.Catalog
	History *Manager
	// Route places the vehicle on the map. Without it the location stays unknown.
	Route         *geo.Route
	DefaultScript func() string
	ScreenOptions []screen.Option
	Logger        *slog.Logger
}

// NavigationSession connects one car display to the navigation service.
// It binds on start, unbinds on stop and tracks the vehicle while created.
type NavigationSession struct {
	lc      *Lifecycle
	nav     Navigator
	catalog *script.Catalog
	history *Manager
	status  *trip.StatusRecorder
	screen  *screen.NavigationScreen
	route   *geo.Route
	trail   *geo.Trail
	script  func() string
	logger  *slog.Logger
	now     func() time.Time

	locating atomic.Bool
}

// NewNavigationSession creates a session in StateInitialized.
func NewNavigationSession(nav Navigator, opts Options) *NavigationSession {
	s := &NavigationSession{
		lc:      NewLifecycle(),
		nav:     nav,
		catalog: opts.Catalog,
		history: opts.History,
		status:  trip.NewStatusRecorder(),
		route:   opts.Route,
		trail:   geo.NewTrail(3),
		script:  opts.DefaultScript,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if s.catalog == nil {
		s.catalog = script.NewCatalog()
	}
	if s.history == nil {
		s.history = NewManager(nil)
	}
	if s.script == nil {
		s.script = func() string { return script.DefaultScript }
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	screenOpts := append([]screen.Option{
		screen.WithScript(s.script),
		screen.WithLogger(s.logger),
	}, opts.ScreenOptions...)
	s.screen = screen.NewNavigationScreen(screen.NewSurface(), s, screenOpts...)

	s.lc.On(StateCreated, func(State) { s.requestLocationUpdates() })
	s.lc.On(StateStarted, func(State) { s.bind() })
	s.lc.On(StateStopped, func(State) { s.unbind() })
	s.lc.On(StateDestroyed, func(State) { s.removeLocationUpdates() })
	return s
}

// Fire drives the session lifecycle.
func (s *NavigationSession) Fire(e Event) error {
	return s.lc.Fire(e)
}

// State returns the lifecycle state.
func (s *NavigationSession) State() State {
	return s.lc.State()
}

func (s *NavigationSession) Screen() *screen.NavigationScreen { return s.screen }

// Status returns the navigation status sink the session binds with.
func (s *NavigationSession) Status() *trip.StatusRecorder { return s.status }

func (s *NavigationSession) History() *Manager { return s.history }

// Events returns up to limit of the most recent trip events.
func (s *NavigationSession) Events(limit int) []model.TripEvent {
	return s.history.Events(limit)
}

// Scripts lists the scripts the session can run.
func (s *NavigationSession) Scripts() []string {
	return s.catalog.Names()
}

// ExecuteScript builds the named script and hands it to the navigation service.
func (s *NavigationSession) ExecuteScript(name string) error {
	if name == "" {
		name = s.script()
	}
	instructions, err := s.catalog.Build(name, s.now())
	if err != nil {
		return fmt.Errorf("failed to build script %q: %w", name, err)
	}
	if err := s.nav.ExecuteInstructions(instructions); err != nil {
		return fmt.Errorf("failed to execute script %q: %w", name, err)
	}
	s.logger.Info("Session: Script started", "script", name, "instructions", len(instructions))
	return nil
}

// StopNavigation ends the current trip.
func (s *NavigationSession) StopNavigation() {
	if err := s.nav.StopNavigation(); err != nil {
		s.logger.Warn("Session: Failed to stop navigation", "error", err)
	}
}

// Navigate handles a navigation request coming from outside the car display.
// A query naming a script runs that script, anything else runs the default one.
func (s *NavigationSession) Navigate(query string) error {
	name := s.script()
	q := strings.ToLower(strings.TrimSpace(query))
	for _, n := range s.catalog.Names() {
		if n == q {
			name = n
			break
		}
	}
	s.logger.Info("Session: Navigation requested", "query", query, "script", name)
	return s.ExecuteScript(name)
}

func (s *NavigationSession) bind() {
	if err := s.nav.Bind(s.status, s.onTrip); err != nil {
		s.logger.Error("Session: Failed to bind navigation service", "error", err)
		return
	}
	s.screen.Update(s.nav.Snapshot())
	s.logger.Debug("Session: Bound to navigation service")
}

func (s *NavigationSession) unbind() {
	s.nav.Unbind()
	s.logger.Debug("Session: Unbound from navigation service")
}

func (s *NavigationSession) requestLocationUpdates() {
	s.locating.Store(true)
	if s.route != nil {
		start := s.route.Start()
		_, heading := s.route.PositionAt(s.route.Length())
		s.screen.Surface().UpdateLocation(&geo.Location{Time: s.now(), Point: start, Heading: heading})
	}
}

func (s *NavigationSession) removeLocationUpdates() {
	s.locating.Store(false)
	s.trail.Reset()
}

// onTrip runs on the navigation loop.
func (s *NavigationSession) onTrip(st model.TripState) {
	s.screen.Update(st)

	if !s.locating.Load() || s.route == nil || st.DestinationTravelEstimate == nil {
		return
	}
	remaining := st.DestinationTravelEstimate.RemainingDistance.InMeters()
	p, heading := s.route.PositionAt(remaining)
	fix := s.trail.Push(geo.Location{Time: s.now(), Point: p, Heading: heading})
	s.screen.Surface().UpdateLocation(&fix)
}
