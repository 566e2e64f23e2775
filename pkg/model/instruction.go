package model

import (
	"errors"
	"fmt"
	"time"
)

// InstructionKind identifies what a scripted navigation event does.
type InstructionKind string

const (
	KindStartNavigation InstructionKind = "start_navigation"
	KindEndNavigation   InstructionKind = "end_navigation"
	KindAddDestination  InstructionKind = "add_destination"
	KindPopDestination  InstructionKind = "pop_destination"
	KindAddStep         InstructionKind = "add_step"
	KindPopStep         InstructionKind = "pop_step"
	KindSetTripPosition InstructionKind = "set_trip_position"
	KindSetRerouting    InstructionKind = "set_rerouting"
	KindSetArrived      InstructionKind = "set_arrived"
)

// Kinds lists every instruction kind in declaration order.
var Kinds = []InstructionKind{
	KindStartNavigation,
	KindEndNavigation,
	KindAddDestination,
	KindPopDestination,
	KindAddStep,
	KindPopStep,
	KindSetTripPosition,
	KindSetRerouting,
	KindSetArrived,
}

// Valid reports whether k is a known kind.
func (k InstructionKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ErrInvalidInstruction is returned when an instruction is missing the payload its kind requires.
var ErrInvalidInstruction = errors.New("invalid instruction")

// Notification is the status notification an instruction posts when applied.
// Alert asks the host to sound or flash; otherwise the notification updates silently.
type Notification struct {
	Alert   bool   `json:"alert" yaml:"alert"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	Icon    string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// NotificationChannel separates the ongoing navigation notification from one-off alerts.
type NotificationChannel string

const (
	ChannelNavigation NotificationChannel = "navigation"
	ChannelAlert      NotificationChannel = "alert"
)

// Instruction is one simulated navigation event and the time to wait after it.
// Instructions are built with NewInstruction and treated as read-only afterwards.
type Instruction struct {
	Kind  InstructionKind `json:"kind"`
	Delay time.Duration   `json:"delay"`

	Destination               *Destination    `json:"destination,omitempty"`
	Step                      *Step           `json:"step,omitempty"`
	StepRemainingDistance     *Distance       `json:"step_remaining_distance,omitempty"`
	StepTravelEstimate        *TravelEstimate `json:"step_travel_estimate,omitempty"`
	DestinationTravelEstimate *TravelEstimate `json:"destination_travel_estimate,omitempty"`
	Road                      string          `json:"road,omitempty"`

	// Display hints
	ShowNextStep  bool   `json:"show_next_step,omitempty"`
	ShowLanes     bool   `json:"show_lanes,omitempty"`
	JunctionImage string `json:"junction_image,omitempty"`

	Notification *Notification `json:"notification,omitempty"`
}

// InstructionOption sets an optional payload field.
type InstructionOption func(*Instruction)

// NewInstruction builds an instruction. Payload values are copied, so callers may reuse them.
func NewInstruction(kind InstructionKind, delay time.Duration, opts ...InstructionOption) Instruction {
	ins := Instruction{Kind: kind, Delay: delay}
	for _, opt := range opts {
		opt(&ins)
	}
	return ins
}

func WithDestination(d Destination) InstructionOption {
	return func(i *Instruction) { i.Destination = &d }
}

func WithStep(s Step) InstructionOption {
	return func(i *Instruction) {
		c := s.clone()
		i.Step = &c
	}
}

func WithStepRemainingDistance(d Distance) InstructionOption {
	return func(i *Instruction) { i.StepRemainingDistance = &d }
}

func WithStepTravelEstimate(e TravelEstimate) InstructionOption {
	return func(i *Instruction) { i.StepTravelEstimate = &e }
}

func WithDestinationTravelEstimate(e TravelEstimate) InstructionOption {
	return func(i *Instruction) { i.DestinationTravelEstimate = &e }
}

func WithRoad(road string) InstructionOption {
	return func(i *Instruction) { i.Road = road }
}

func WithShowNextStep(show bool) InstructionOption {
	return func(i *Instruction) { i.ShowNextStep = show }
}

func WithShowLanes(show bool) InstructionOption {
	return func(i *Instruction) { i.ShowLanes = show }
}

func WithJunctionImage(image string) InstructionOption {
	return func(i *Instruction) { i.JunctionImage = image }
}

func WithNotification(n Notification) InstructionOption {
	return func(i *Instruction) { i.Notification = &n }
}

// Validate checks that the payload required by the kind is present.
func (i *Instruction) Validate() error {
	if !i.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInstruction, i.Kind)
	}
	if i.Delay < 0 {
		return fmt.Errorf("%w: %s has negative delay %v", ErrInvalidInstruction, i.Kind, i.Delay)
	}

	var missing []string
	switch i.Kind {
	case KindAddDestination:
		if i.Destination == nil {
			missing = append(missing, "destination")
		}
	case KindAddStep:
		if i.Step == nil {
			missing = append(missing, "step")
		}
	case KindSetTripPosition:
		if i.StepRemainingDistance == nil {
			missing = append(missing, "step_remaining_distance")
		}
		if i.StepTravelEstimate == nil {
			missing = append(missing, "step_travel_estimate")
		}
		if i.DestinationTravelEstimate == nil {
			missing = append(missing, "destination_travel_estimate")
		}
	case KindSetRerouting:
		if i.DestinationTravelEstimate == nil {
			missing = append(missing, "destination_travel_estimate")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing %v", ErrInvalidInstruction, i.Kind, missing)
	}
	return nil
}
