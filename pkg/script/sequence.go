package script

import (
	"fmt"
	"time"

	"carnav/pkg/model"
)

// SequenceParams describes one straight-line approach to the next step.
// Distances are whole meters and speed is meters per second, all integer
// arithmetic like the rest of the demo data.
type SequenceParams struct {
	Count                    int
	StartDestinationDistance int
	StartStepDistance        int
	Arrival                  model.DateTimeWithZone
	Road                     string
	JunctionImage            string
	ShowLanes                bool
	NextInstruction          string
	SpeedMPS                 int
	Icon                     string
	Now                      time.Time
}

// GenerateTripUpdateSequence interpolates Count position updates, each one
// increment = StartStepDistance/Count closer to the step and the destination.
//
// Display hints follow the approach: the first update shows the next step, the
// second adds lanes, the third keeps lanes only, the rest show the junction image.
// Only the first update alerts.
func GenerateTripUpdateSequence(p SequenceParams) []model.Instruction {
	if p.Count <= 0 {
		return nil
	}
	if p.SpeedMPS <= 0 {
		panic(fmt.Sprintf("script: speed must be positive, got %d", p.SpeedMPS))
	}

	out := make([]model.Instruction, 0, p.Count)
	destRemaining := p.StartDestinationDistance
	stepRemaining := p.StartStepDistance
	increment := p.StartStepDistance / p.Count
	stepTime := time.Duration(increment) * time.Second

	for i := 0; i < p.Count; i++ {
		remaining := model.Meters(float64(stepRemaining))

		opts := []model.InstructionOption{
			model.WithStepRemainingDistance(remaining),
			model.WithStepTravelEstimate(model.TravelEstimate{
				RemainingDistance: remaining,
				Arrival:           model.DateTimeWithZone{Time: p.Now.Add(stepTime), ZoneShortName: p.Arrival.ZoneShortName},
				RemainingTime:     stepTime,
			}),
			model.WithDestinationTravelEstimate(model.TravelEstimate{
				RemainingDistance:      model.Meters(float64(destRemaining)),
				Arrival:                p.Arrival,
				RemainingTime:          time.Duration(destRemaining/p.SpeedMPS) * time.Second,
				RemainingTimeColor:     model.ColorYellow,
				RemainingDistanceColor: model.ColorGreen,
			}),
			model.WithRoad(p.Road),
			model.WithNotification(model.Notification{
				Alert:   i == 0,
				Title:   fmt.Sprintf("%dm", stepRemaining),
				Content: p.NextInstruction,
				Icon:    p.Icon,
			}),
		}

		switch i {
		case 0:
			opts = append(opts, model.WithShowLanes(false), model.WithShowNextStep(true))
		case 1:
			opts = append(opts, model.WithShowLanes(p.ShowLanes), model.WithShowNextStep(true))
		case 2:
			opts = append(opts, model.WithShowLanes(p.ShowLanes), model.WithShowNextStep(false))
		default:
			opts = append(opts, model.WithShowLanes(false), model.WithShowNextStep(false), model.WithJunctionImage(p.JunctionImage))
		}

		delay := time.Duration(increment/p.SpeedMPS) * time.Second
		out = append(out, model.NewInstruction(model.KindSetTripPosition, delay, opts...))

		destRemaining -= increment
		stepRemaining -= increment
	}
	return out
}
