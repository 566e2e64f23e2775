// Package trip folds delivered instructions into the running trip state.
package trip

import (
	"fmt"
	"log/slog"

	"carnav/pkg/model"
)

// DefaultCueInterval plays the cue on every 10th applied position update.
const DefaultCueInterval = 10

// Notifications posted by the aggregator itself.
var (
	NavigationActive = model.Notification{Alert: true, Title: "Navigation active", Icon: "ic_launcher"}
	TrafficWarning   = model.Notification{Alert: true, Title: "Traffic accident ahead", Content: "Drive slowly", Icon: "ic_settings"}
)

// Listener receives a copy of the trip state after every mutation.
type Listener func(model.TripState)

// Notifier posts status notifications.
type Notifier interface {
	Notify(ch model.NotificationChannel, n model.Notification)
}

// Recorder counts what the aggregator did with each instruction.
type Recorder interface {
	TrackApplied(kind string)
	TrackDropped(kind string)
	TrackCue()
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithListener(l Listener) Option {
	return func(a *Aggregator) { a.listener = l }
}

func WithNotifier(n Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

// WithCue sets the function played every interval applied position updates.
// An interval of zero disables the cue.
func WithCue(fn func(), interval int) Option {
	return func(a *Aggregator) {
		a.cue = fn
		a.cueInterval = interval
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// Aggregator owns the trip state. It is not safe for concurrent use:
// every call must come from the same goroutine, normally the event loop.
type Aggregator struct {
	sink        StatusSink
	listener    Listener
	notifier    Notifier
	recorder    Recorder
	cue         func()
	cueInterval int
	logger      *slog.Logger

	state     model.TripState
	positions int
}

// NewAggregator creates an aggregator reporting to sink, which may be nil.
func NewAggregator(sink StatusSink, opts ...Option) *Aggregator {
	a := &Aggregator{
		sink:        sink,
		cueInterval: DefaultCueInterval,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetSink replaces the status sink and listener. Either may be nil.
func (a *Aggregator) SetSink(sink StatusSink, l Listener) {
	a.sink = sink
	a.listener = l
}

// SetCueInterval changes how many applied position updates pass between cues.
func (a *Aggregator) SetCueInterval(n int) {
	if n >= 0 {
		a.cueInterval = n
	}
}

// State returns a copy of the current trip state.
func (a *Aggregator) State() model.TripState {
	return a.state.Clone()
}

// Positions returns the number of position updates applied since navigation started.
func (a *Aggregator) Positions() int {
	return a.positions
}

// Apply folds one instruction into the trip state. next is the instruction
// that follows it in the script, or nil.
// Position, rerouting and arrival updates are dropped while not navigating.
func (a *Aggregator) Apply(ins model.Instruction, next *model.Instruction) {
	switch ins.Kind {
	case model.KindStartNavigation:
		a.start()
	case model.KindEndNavigation:
		a.Stop()
	case model.KindAddDestination:
		a.state.Destinations = append(a.state.Destinations, *ins.Destination)
		if len(a.state.Destinations) == 1 {
			a.forwardCurrent()
		}
	case model.KindPopDestination:
		if len(a.state.Destinations) == 0 {
			panic("trip: pop_destination on empty destination list")
		}
		a.state.Destinations = a.state.Destinations[1:]
		a.state.DestinationTravelEstimate = nil
		a.forwardCurrent()
	case model.KindAddStep:
		a.state.Steps = append(a.state.Steps, *ins.Step)
		if len(a.state.Steps) == 1 {
			a.forwardCurrent()
		}
	case model.KindPopStep:
		if len(a.state.Steps) == 0 {
			panic("trip: pop_step on empty step list")
		}
		a.state.Steps = a.state.Steps[1:]
		a.state.StepRemainingDistance = nil
		a.state.StepTravelEstimate = nil
		a.forwardCurrent()
	case model.KindSetTripPosition:
		if !a.state.IsNavigating {
			a.drop(ins)
			return
		}
		a.position(ins, next)
	case model.KindSetRerouting:
		if !a.state.IsNavigating {
			a.drop(ins)
			return
		}
		a.reroute(ins)
	case model.KindSetArrived:
		if !a.state.IsNavigating {
			a.drop(ins)
			return
		}
		a.state.HasArrived = true
		a.state.IsRerouting = false
	default:
		panic(fmt.Sprintf("trip: unknown instruction kind %q", ins.Kind))
	}

	// Start and End publish on their own
	if ins.Kind != model.KindStartNavigation && ins.Kind != model.KindEndNavigation {
		a.publish(ins.Notification)
	}
	a.track(ins.Kind, true)
}

// Stop ends navigation from any state and clears the trip.
func (a *Aggregator) Stop() {
	wasNavigating := a.state.IsNavigating
	if !wasNavigating && len(a.state.Destinations) == 0 && len(a.state.Steps) == 0 {
		return
	}

	a.state = model.TripState{}
	a.positions = 0
	if wasNavigating && a.sink != nil {
		a.sink.NavigationEnded()
	}
	a.logger.Info("Trip: Navigation ended")
	a.publish(nil)
}

func (a *Aggregator) start() {
	a.state = model.TripState{IsNavigating: true}
	a.positions = 0
	if a.sink != nil {
		a.sink.NavigationStarted()
	}
	a.logger.Info("Trip: Navigation started")
	n := NavigationActive
	a.publish(&n)
}

func (a *Aggregator) position(ins model.Instruction, next *model.Instruction) {
	cur := a.front()
	t := Trip{
		Steps: []StepEstimate{{Step: cur, Estimate: *ins.StepTravelEstimate}},
		Destinations: []DestinationEstimate{{
			Destination: a.state.Destinations[0],
			Estimate:    *ins.DestinationTravelEstimate,
		}},
		CurrentRoad: ins.Road,
	}
	if ins.ShowNextStep && next != nil && len(a.state.Steps) > 1 && next.StepTravelEstimate != nil {
		t.Steps = append(t.Steps, StepEstimate{Step: a.state.Steps[1], Estimate: *next.StepTravelEstimate})
	}
	if a.sink != nil {
		a.sink.UpdateTrip(t)
	}

	a.positions++
	if a.cueInterval > 0 && a.positions%a.cueInterval == 0 {
		a.playCue()
	}

	d := *ins.StepRemainingDistance
	se := *ins.StepTravelEstimate
	de := *ins.DestinationTravelEstimate
	a.state.StepRemainingDistance = &d
	a.state.StepTravelEstimate = &se
	a.state.DestinationTravelEstimate = &de
	a.state.Road = ins.Road
	a.state.IsRerouting = false
	a.state.HasArrived = false
	a.setHints(ins)
}

func (a *Aggregator) reroute(ins model.Instruction) {
	if len(a.state.Destinations) == 0 {
		panic("trip: set_rerouting without destination")
	}
	de := *ins.DestinationTravelEstimate
	if a.sink != nil {
		a.sink.UpdateTrip(Trip{
			Destinations: []DestinationEstimate{{Destination: a.state.Destinations[0], Estimate: de}},
			Loading:      true,
		})
	}

	a.state.IsRerouting = true
	a.state.HasArrived = false
	a.state.Steps = nil
	a.state.StepRemainingDistance = nil
	a.state.StepTravelEstimate = nil
	a.state.DestinationTravelEstimate = &de
	a.setHints(ins)
	a.logger.Info("Trip: Rerouting")
}

func (a *Aggregator) setHints(ins model.Instruction) {
	a.state.ShowNextStep = ins.ShowNextStep
	a.state.ShowLanes = ins.ShowLanes
	a.state.JunctionImage = ins.JunctionImage
}

func (a *Aggregator) front() model.Step {
	if len(a.state.Steps) == 0 || len(a.state.Destinations) == 0 {
		panic("trip: set_trip_position without current step and destination")
	}
	return a.state.Steps[0]
}

// forwardCurrent tells the sink which destination and step are now current.
func (a *Aggregator) forwardCurrent() {
	if !a.state.IsNavigating || a.sink == nil {
		return
	}
	t := Trip{Loading: a.state.DestinationTravelEstimate == nil, CurrentRoad: a.state.Road}
	if len(a.state.Destinations) > 0 {
		var est model.TravelEstimate
		if a.state.DestinationTravelEstimate != nil {
			est = *a.state.DestinationTravelEstimate
		}
		t.Destinations = []DestinationEstimate{{Destination: a.state.Destinations[0], Estimate: est}}
	}
	if len(a.state.Steps) > 0 {
		var est model.TravelEstimate
		if a.state.StepTravelEstimate != nil {
			est = *a.state.StepTravelEstimate
		}
		t.Steps = []StepEstimate{{Step: a.state.Steps[0], Estimate: est}}
	}
	a.sink.UpdateTrip(t)
}

func (a *Aggregator) playCue() {
	a.logger.Debug("Trip: Playing cue", "positions", a.positions)
	if a.cue != nil {
		a.cue()
	}
	if a.notifier != nil {
		a.notifier.Notify(model.ChannelAlert, TrafficWarning)
	}
	if a.recorder != nil {
		a.recorder.TrackCue()
	}
}

// publish hands the listener a copy of the state and posts n if it has a title.
func (a *Aggregator) publish(n *model.Notification) {
	if a.listener != nil {
		a.listener(a.state.Clone())
	}
	if n != nil && n.Title != "" && a.notifier != nil {
		a.notifier.Notify(model.ChannelNavigation, *n)
	}
}

func (a *Aggregator) drop(ins model.Instruction) {
	a.logger.Debug("Trip: Dropped instruction while not navigating", "kind", ins.Kind)
	a.track(ins.Kind, false)
}

func (a *Aggregator) track(kind model.InstructionKind, applied bool) {
	if a.recorder == nil {
		return
	}
	if applied {
		a.recorder.TrackApplied(string(kind))
	} else {
		a.recorder.TrackDropped(string(kind))
	}
}
