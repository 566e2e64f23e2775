package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnav/pkg/geo"
	"carnav/pkg/model"
	"carnav/pkg/screen"
	"carnav/pkg/script"
	"carnav/pkg/trip"
)

type mockNavigator struct {
	mu       sync.Mutex
	sink     trip.StatusSink
	listener trip.Listener
	binds    int
	unbinds  int
	executed [][]model.Instruction
	stops    int
	execErr  error
}

func (m *mockNavigator) Bind(sink trip.StatusSink, l trip.Listener) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink, m.listener = sink, l
	m.binds++
	return nil
}

func (m *mockNavigator) Unbind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink, m.listener = nil, nil
	m.unbinds++
}

func (m *mockNavigator) ExecuteInstructions(ins []model.Instruction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.execErr != nil {
		return m.execErr
	}
	m.executed = append(m.executed, ins)
	return nil
}

func (m *mockNavigator) StopNavigation() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockNavigator) Snapshot() model.TripState { return model.TripState{} }

func newTestSession(t *testing.T, nav *mockNavigator, route *geo.Route) *NavigationSession {
	t.Helper()
	cat, err := script.DefaultCatalog(script.DefaultDemoConfig())
	require.NoError(t, err)
	require.NoError(t, cat.Register("short", func(now time.Time) []model.Instruction {
		return []model.Instruction{
			model.NewInstruction(model.KindStartNavigation, 0),
			model.NewInstruction(model.KindEndNavigation, 0),
		}
	}))
	return NewNavigationSession(nav, Options{Catalog: cat, Route: route})
}

func TestNavigationSession_BindsWithLifecycle(t *testing.T) {
	nav := &mockNavigator{}
	s := newTestSession(t, nav, nil)

	require.NoError(t, s.Fire(EventCreate))
	assert.Equal(t, 0, nav.binds)

	require.NoError(t, s.Fire(EventStart))
	assert.Equal(t, 1, nav.binds)
	assert.Same(t, s.Status(), nav.sink)

	require.NoError(t, s.Fire(EventStop))
	assert.Equal(t, 1, nav.unbinds)

	require.NoError(t, s.Fire(EventStart))
	assert.Equal(t, 2, nav.binds)

	err := s.Fire(EventDestroy)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestNavigationSession_ExecuteScript(t *testing.T) {
	nav := &mockNavigator{}
	s := newTestSession(t, nav, nil)

	require.NoError(t, s.ExecuteScript("short"))
	require.Len(t, nav.executed, 1)
	assert.Len(t, nav.executed[0], 2)

	// Empty name runs the default script
	require.NoError(t, s.ExecuteScript(""))
	assert.Len(t, nav.executed[1], 31)

	err := s.ExecuteScript("nowhere")
	assert.True(t, errors.Is(err, script.ErrUnknownScript))

	nav.execErr = errors.New("not bound")
	assert.Error(t, s.ExecuteScript("short"))
}

func TestNavigationSession_Navigate(t *testing.T) {
	nav := &mockNavigator{}
	s := newTestSession(t, nav, nil)

	require.NoError(t, s.Navigate(" Short "))
	assert.Len(t, nav.executed[0], 2)

	require.NoError(t, s.Navigate("coffee near me"))
	assert.Len(t, nav.executed[1], 31)
}

func TestNavigationSession_ScreenActions(t *testing.T) {
	nav := &mockNavigator{}
	s := newTestSession(t, nav, nil)

	require.NoError(t, s.Screen().HandleAction(screen.ActionSearch))
	assert.Len(t, nav.executed, 1)

	require.NoError(t, s.Screen().HandleAction(screen.ActionStop))
	assert.Equal(t, 1, nav.stops)
}

func TestNavigationSession_ForwardsTripAndLocation(t *testing.T) {
	route, err := geo.BuildRoute(geo.Point{Lat: 47.6, Lon: -122.3}, 0, geo.DemoLegs)
	require.NoError(t, err)

	nav := &mockNavigator{}
	s := newTestSession(t, nav, route)
	fixed := time.UnixMilli(1000)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Fire(EventCreate))
	assert.Contains(t, s.Screen().Surface().State().Location, "time: 1000 ")
	require.NoError(t, s.Fire(EventStart))

	st := model.TripState{
		IsNavigating:              true,
		Destinations:              []model.Destination{{Name: "Work"}},
		DestinationTravelEstimate: &model.TravelEstimate{RemainingDistance: model.Meters(0)},
	}
	nav.listener(st)

	assert.True(t, s.Screen().State().IsNavigating)
	loc := s.Screen().Surface().Location()
	require.NotNil(t, loc)
	assert.InDelta(t, 0, geo.Distance(loc.Point, route.End()), 0.5)

	// No more updates once destroyed
	require.NoError(t, s.Fire(EventStop))
	require.NoError(t, s.Fire(EventDestroy))
	st.DestinationTravelEstimate = &model.TravelEstimate{RemainingDistance: model.Meters(450)}
	s.onTrip(st)
	loc = s.Screen().Surface().Location()
	assert.InDelta(t, 0, geo.Distance(loc.Point, route.End()), 0.5)
}

func TestNavigationSession_Events(t *testing.T) {
	s := newTestSession(t, &mockNavigator{}, nil)
	s.History().AddEvent(&model.TripEvent{Type: model.EventArrived, Title: "Arrived"})

	events := s.Events(10)
	require.Len(t, events, 1)
	assert.Equal(t, "Arrived", events[0].Title)
	assert.Contains(t, s.Scripts(), "short")
}
