package trip

import (
	"sync"

	"carnav/pkg/model"
)

// Trip is the incremental update pushed to the navigation status API.
type Trip struct {
	Steps        []StepEstimate        `json:"steps"`
	Destinations []DestinationEstimate `json:"destinations"`
	CurrentRoad  string                `json:"current_road,omitempty"`
	Loading      bool                  `json:"loading"`
}

// StepEstimate pairs a step with its travel estimate.
type StepEstimate struct {
	Step     model.Step           `json:"step"`
	Estimate model.TravelEstimate `json:"estimate"`
}

// DestinationEstimate pairs a destination with its travel estimate.
type DestinationEstimate struct {
	Destination model.Destination    `json:"destination"`
	Estimate    model.TravelEstimate `json:"estimate"`
}

// StatusSink receives navigation status. It is never read back.
type StatusSink interface {
	NavigationStarted()
	NavigationEnded()
	UpdateTrip(Trip)
}

// StopRequester is implemented by sinks that can ask the host to stop navigation.
type StopRequester interface {
	SetStopHandler(fn func())
}

// StatusRecorder is an in-memory StatusSink that keeps what it was told.
type StatusRecorder struct {
	mu         sync.Mutex
	navigating bool
	started    int
	ended      int
	trips      []Trip
	onStop     func()
}

// NewStatusRecorder returns an empty recorder.
func NewStatusRecorder() *StatusRecorder {
	return &StatusRecorder{}
}

func (r *StatusRecorder) NavigationStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigating = true
	r.started++
}

func (r *StatusRecorder) NavigationEnded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigating = false
	r.ended++
}

func (r *StatusRecorder) UpdateTrip(t Trip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips = append(r.trips, t)
}

// SetStopHandler installs the function RequestStop calls.
func (r *StatusRecorder) SetStopHandler(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStop = fn
}

// RequestStop asks the host to stop navigation, as a head unit would.
// It reports whether a handler was installed.
func (r *StatusRecorder) RequestStop() bool {
	r.mu.Lock()
	fn := r.onStop
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Navigating reports whether the last lifecycle call was NavigationStarted.
func (r *StatusRecorder) Navigating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigating
}

// Counts returns how often navigation was started and ended.
func (r *StatusRecorder) Counts() (started, ended int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.ended
}

// Trips returns a copy of every trip update received.
func (r *StatusRecorder) Trips() []Trip {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Trip(nil), r.trips...)
}

// Last returns the most recent trip update.
func (r *StatusRecorder) Last() (Trip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trips) == 0 {
		return Trip{}, false
	}
	return r.trips[len(r.trips)-1], true
}
