package model

import "time"

// TripState is the running view of navigation progress.
// Consumers receive copies made with Clone and must not share them with the writer.
type TripState struct {
	IsNavigating bool `json:"is_navigating"`
	IsRerouting  bool `json:"is_rerouting"`
	HasArrived   bool `json:"has_arrived"`

	// Front entries are the current destination and step.
	Destinations []Destination `json:"destinations"`
	Steps        []Step        `json:"steps"`

	StepRemainingDistance     *Distance       `json:"step_remaining_distance,omitempty"`
	StepTravelEstimate        *TravelEstimate `json:"step_travel_estimate,omitempty"`
	DestinationTravelEstimate *TravelEstimate `json:"destination_travel_estimate,omitempty"`
	Road                      string          `json:"road,omitempty"`

	ShowNextStep  bool   `json:"show_next_step"`
	ShowLanes     bool   `json:"show_lanes"`
	JunctionImage string `json:"junction_image,omitempty"`
}

// Clone returns a deep copy.
func (s *TripState) Clone() TripState {
	out := *s
	if s.Destinations != nil {
		out.Destinations = append([]Destination(nil), s.Destinations...)
	}
	if s.Steps != nil {
		out.Steps = make([]Step, len(s.Steps))
		for i, st := range s.Steps {
			out.Steps[i] = st.clone()
		}
	}
	if s.StepRemainingDistance != nil {
		d := *s.StepRemainingDistance
		out.StepRemainingDistance = &d
	}
	if s.StepTravelEstimate != nil {
		e := *s.StepTravelEstimate
		out.StepTravelEstimate = &e
	}
	if s.DestinationTravelEstimate != nil {
		e := *s.DestinationTravelEstimate
		out.DestinationTravelEstimate = &e
	}
	return out
}

// CurrentDestination returns the front destination.
func (s *TripState) CurrentDestination() (Destination, bool) {
	if len(s.Destinations) == 0 {
		return Destination{}, false
	}
	return s.Destinations[0], true
}

// CurrentStep returns the front step.
func (s *TripState) CurrentStep() (Step, bool) {
	if len(s.Steps) == 0 {
		return Step{}, false
	}
	return s.Steps[0], true
}

// NextStep returns the step after the current one.
func (s *TripState) NextStep() (Step, bool) {
	if len(s.Steps) < 2 {
		return Step{}, false
	}
	return s.Steps[1], true
}

// EventType classifies entries of the trip history.
type EventType string

const (
	EventNavigationStarted EventType = "navigation_started"
	EventNavigationEnded   EventType = "navigation_ended"
	EventRerouting         EventType = "rerouting"
	EventArrived           EventType = "arrived"
	EventNotification      EventType = "notification"
	EventSettings          EventType = "settings"
)

// TripEvent is one entry of the trip history.
type TripEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Cue is a request to play a short navigation sound.
type Cue struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Priority bool   `json:"priority"`
}
