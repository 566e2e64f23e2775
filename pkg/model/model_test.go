package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestInstruction_Validate(t *testing.T) {
	est := TravelEstimate{RemainingDistance: Meters(100)}

	tests := []struct {
		name    string
		ins     Instruction
		wantErr bool
	}{
		{"start", NewInstruction(KindStartNavigation, 0), false},
		{"end", NewInstruction(KindEndNavigation, 0), false},
		{"add destination ok", NewInstruction(KindAddDestination, 0, WithDestination(Destination{Name: "Work"})), false},
		{"add destination missing", NewInstruction(KindAddDestination, 0), true},
		{"add step ok", NewInstruction(KindAddStep, 0, WithStep(Step{Cue: "Left"})), false},
		{"add step missing", NewInstruction(KindAddStep, 0), true},
		{"position ok", NewInstruction(KindSetTripPosition, time.Second,
			WithStepRemainingDistance(Meters(100)),
			WithStepTravelEstimate(est),
			WithDestinationTravelEstimate(est)), false},
		{"position missing estimates", NewInstruction(KindSetTripPosition, 0, WithStepRemainingDistance(Meters(1))), true},
		{"rerouting ok", NewInstruction(KindSetRerouting, 5*time.Second, WithDestinationTravelEstimate(est)), false},
		{"rerouting missing", NewInstruction(KindSetRerouting, 0), true},
		{"negative delay", NewInstruction(KindPopStep, -time.Millisecond), true},
		{"unknown kind", NewInstruction("teleport", 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ins.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInstruction) {
				t.Errorf("expected ErrInvalidInstruction, got %v", err)
			}
		})
	}
}

func TestNewInstruction_CopiesPayload(t *testing.T) {
	step := Step{Cue: "State Street", Lanes: []Lane{{Directions: []LaneDirection{{Shape: LaneShapeStraight}}}}}
	ins := NewInstruction(KindAddStep, 0, WithStep(step))

	step.Cue = "changed"
	step.Lanes[0].Directions[0].Recommended = true

	if ins.Step.Cue != "State Street" {
		t.Errorf("expected cue to be copied, got %q", ins.Step.Cue)
	}
	if ins.Step.Lanes[0].Directions[0].Recommended {
		t.Error("expected lanes to be copied")
	}
}

func TestTripState_Clone(t *testing.T) {
	d := Meters(50)
	s := TripState{
		IsNavigating:          true,
		Destinations:          []Destination{{Name: "Work"}},
		Steps:                 []Step{{Cue: "A", Maneuver: &Maneuver{Type: ManeuverTurnNormalLeft}}, {Cue: "B"}},
		StepRemainingDistance: &d,
	}

	c := s.Clone()
	c.Destinations[0].Name = "Home"
	c.Steps[0].Maneuver.Type = ManeuverTurnNormalRight
	c.StepRemainingDistance.Value = 1

	if s.Destinations[0].Name != "Work" {
		t.Errorf("destinations shared with clone")
	}
	if s.Steps[0].Maneuver.Type != ManeuverTurnNormalLeft {
		t.Errorf("maneuver shared with clone")
	}
	if s.StepRemainingDistance.Value != 50 {
		t.Errorf("distance shared with clone")
	}

	cur, ok := s.CurrentStep()
	if !ok || cur.Cue != "A" {
		t.Errorf("expected current step A, got %v %v", cur, ok)
	}
	next, ok := s.NextStep()
	if !ok || next.Cue != "B" {
		t.Errorf("expected next step B, got %v %v", next, ok)
	}
}

func TestTurnIcon(t *testing.T) {
	icon, err := TurnIcon(ManeuverRoundaboutEnterAndExitCCWAng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if icon != "ic_roundabout_ccw" {
		t.Errorf("expected ic_roundabout_ccw, got %s", icon)
	}
	if _, err := TurnIcon("sideways"); err == nil {
		t.Error("expected error for unknown maneuver")
	}
}

func TestDistance(t *testing.T) {
	if got := Meters(350).String(); got != "350m" {
		t.Errorf("expected 350m, got %s", got)
	}
	if got := (Distance{Value: 2, Unit: UnitKilometers}).InMeters(); got != 2000 {
		t.Errorf("expected 2000, got %v", got)
	}
}

func TestDistanceIn(t *testing.T) {
	tests := []struct {
		meters float64
		unit   DistanceUnit
		want   Distance
	}{
		{1500, UnitKilometers, Distance{Value: 1.5, Unit: UnitKilometers}},
		{30.48, UnitFeet, Distance{Value: 100, Unit: UnitFeet}},
		{42, "", Meters(42)},
		{42, "furlong", Meters(42)},
	}
	for _, tt := range tests {
		got := DistanceIn(tt.meters, tt.unit)
		if got.Unit != tt.want.Unit || math.Abs(got.Value-tt.want.Value) > 1e-9 {
			t.Errorf("DistanceIn(%v, %q) = %v, want %v", tt.meters, tt.unit, got, tt.want)
		}
	}
}
