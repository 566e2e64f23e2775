package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnav/pkg/model"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func countKind(seq []model.Instruction, kind model.InstructionKind) int {
	n := 0
	for i := range seq {
		if seq[i].Kind == kind {
			n++
		}
	}
	return n
}

func TestBuildDemoTrip_Layout(t *testing.T) {
	seq := BuildDemoTrip(DefaultDemoConfig(), testNow)

	require.Len(t, seq, 31)
	assert.Equal(t, model.KindStartNavigation, seq[0].Kind)
	assert.Equal(t, model.KindAddDestination, seq[1].Kind)
	assert.Equal(t, model.KindSetRerouting, seq[2].Kind)
	assert.Equal(t, model.KindEndNavigation, seq[len(seq)-1].Kind)
	assert.Equal(t, model.KindPopDestination, seq[len(seq)-2].Kind)
	assert.Equal(t, model.KindSetArrived, seq[len(seq)-3].Kind)

	assert.Equal(t, 1, countKind(seq, model.KindAddDestination))
	assert.Equal(t, 4, countKind(seq, model.KindAddStep))
	assert.Equal(t, 3, countKind(seq, model.KindPopStep))
	assert.Equal(t, 18, countKind(seq, model.KindSetTripPosition))

	require.NoError(t, Validate(seq))
}

func TestBuildDemoTrip_Steps(t *testing.T) {
	seq := BuildDemoTrip(DefaultDemoConfig(), testNow)

	var steps []model.Step
	for i := range seq {
		if seq[i].Kind == model.KindAddStep {
			steps = append(steps, *seq[i].Step)
		}
	}
	require.Len(t, steps, 4)

	assert.Equal(t, "State Street", steps[0].Cue)
	assert.Equal(t, model.ManeuverRoundaboutEnterAndExitCCWAng, steps[0].Maneuver.Type)
	assert.Equal(t, 2, steps[0].Maneuver.RoundaboutExitNumber)
	assert.Equal(t, 270, steps[0].Maneuver.RoundaboutExitAngle)
	require.Len(t, steps[0].Lanes, 5)
	assert.True(t, steps[0].Lanes[4].Directions[0].Recommended)
	assert.False(t, steps[0].Lanes[0].Directions[0].Recommended)

	assert.Equal(t, model.ManeuverTurnNormalLeft, steps[1].Maneuver.Type)
	assert.Equal(t, model.ManeuverTurnNormalRight, steps[2].Maneuver.Type)
	assert.Equal(t, model.ManeuverDestinationRight, steps[3].Maneuver.Type)
	assert.Empty(t, steps[3].Lanes)
}

func TestBuildDemoTrip_Rerouting(t *testing.T) {
	seq := BuildDemoTrip(DefaultDemoConfig(), testNow)
	r := seq[2]

	assert.Equal(t, 5*time.Second, r.Delay)
	require.NotNil(t, r.DestinationTravelEstimate)
	assert.Equal(t, model.Meters(350), r.DestinationTravelEstimate.RemainingDistance)
	assert.Equal(t, 90*time.Second, r.DestinationTravelEstimate.RemainingTime)
	assert.Equal(t, testNow.Add(30*time.Second), r.DestinationTravelEstimate.Arrival.Time)
	assert.Equal(t, "PST", r.DestinationTravelEstimate.Arrival.ZoneShortName)
	require.NotNil(t, r.Notification)
	assert.True(t, r.Notification.Alert)
}

func TestBuildDemoTrip_TotalDelay(t *testing.T) {
	var total time.Duration
	for _, ins := range BuildDemoTrip(DefaultDemoConfig(), testNow) {
		total += ins.Delay
	}
	// reroute 5s, 18 positions of 5s each, arrival 5s
	assert.Equal(t, 100*time.Second, total)
}

func TestBuildDemoTrip_Deterministic(t *testing.T) {
	a := BuildDemoTrip(DefaultDemoConfig(), testNow)
	b := BuildDemoTrip(DefaultDemoConfig(), testNow)
	require.Equal(t, a, b)

	// Independent allocation
	a[3].Step.Cue = "changed"
	a[3].Step.Lanes[0].Directions[0].Shape = model.LaneShapeUTurnLeft
	a[7].StepTravelEstimate.RemainingTime = time.Hour
	a[7].Notification.Title = "changed"

	assert.Equal(t, "State Street", b[3].Step.Cue)
	assert.Equal(t, model.LaneShapeStraight, b[3].Step.Lanes[0].Directions[0].Shape)
	assert.Equal(t, 25*time.Second, b[7].StepTravelEstimate.RemainingTime)
	assert.Equal(t, "100m", b[7].Notification.Title)
}

func TestBuildDemoTrip_EndsBalanced(t *testing.T) {
	var dests, steps int
	for _, ins := range BuildDemoTrip(DefaultDemoConfig(), testNow) {
		switch ins.Kind {
		case model.KindAddDestination:
			dests++
		case model.KindPopDestination:
			dests--
		case model.KindAddStep:
			steps++
		case model.KindPopStep:
			steps--
		}
		assert.GreaterOrEqual(t, dests, 0)
		assert.GreaterOrEqual(t, steps, 0)
	}
	assert.Equal(t, 0, dests)
	// The destination step is left for EndNavigation to clear
	assert.Equal(t, 1, steps)
}

func TestBuildDemoTrip_ZeroSpeedPanics(t *testing.T) {
	cfg := DefaultDemoConfig()
	cfg.SpeedMPS = 0
	assert.Panics(t, func() { BuildDemoTrip(cfg, testNow) })
}
