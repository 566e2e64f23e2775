// Package script builds the instruction sequences the player replays.
package script

import (
	"fmt"
	"time"

	"carnav/pkg/config"
	"carnav/pkg/model"
)

// Icons and images referenced by the demo trip.
const (
	IconLauncher  = "ic_launcher"
	ImageLanes    = "lanes"
	ImageJunction = "junction_image"
)

// DemoConfig shapes the bundled demo trip.
type DemoConfig struct {
	SpeedMPS       int
	DistanceMeters int
	ArrivalOffset  time.Duration
	RerouteDelay   time.Duration
	ArrivedDelay   time.Duration
	ZoneName       string
}

// Validate reports parameters BuildDemoTrip cannot build a trip from.
func (c DemoConfig) Validate() error {
	switch {
	case c.SpeedMPS <= 0:
		return fmt.Errorf("demo speed must be positive, got %d m/s", c.SpeedMPS)
	case c.RerouteDelay < 0 || c.ArrivedDelay < 0:
		return fmt.Errorf("demo delays must not be negative")
	}
	return nil
}

// DefaultDemoConfig returns the reference trip parameters.
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		SpeedMPS:       5,
		DistanceMeters: 450,
		ArrivalOffset:  30 * time.Second,
		RerouteDelay:   5 * time.Second,
		ArrivedDelay:   5 * time.Second,
		ZoneName:       "PST",
	}
}

// DemoConfigFrom maps the script section of the app config.
func DemoConfigFrom(c *config.ScriptConfig) DemoConfig {
	d := DefaultDemoConfig()
	if c.Speed >= 1 {
		d.SpeedMPS = int(c.Speed)
	}
	if c.Distance > 0 {
		d.DistanceMeters = int(c.Distance.Meters())
	}
	if c.ArrivalOffset > 0 {
		d.ArrivalOffset = c.ArrivalOffset.Std()
	}
	if c.RerouteDelay >= 0 {
		d.RerouteDelay = c.RerouteDelay.Std()
	}
	if c.ArrivedDelay >= 0 {
		d.ArrivedDelay = c.ArrivedDelay.Std()
	}
	if c.ZoneName != "" {
		d.ZoneName = c.ZoneName
	}
	return d
}

// leg is one step of the demo route and the position updates leading up to it.
type leg struct {
	step      model.Step
	count     int
	distance  int
	road      string
	junction  string
	showLanes bool
	next      string
}

func lanes() []model.Lane {
	straight := model.Lane{Directions: []model.LaneDirection{{Shape: model.LaneShapeStraight}}}
	right := model.Lane{Directions: []model.LaneDirection{{Shape: model.LaneShapeNormalRight, Recommended: true}}}
	return []model.Lane{straight, straight, straight, straight, right}
}

func maneuver(t model.ManeuverType) *model.Maneuver {
	icon, err := model.TurnIcon(t)
	if err != nil {
		panic(err)
	}
	return &model.Maneuver{Type: t, Icon: icon}
}

// demoLegs has four approaches (4, 6, 4 and 4 position updates), one per
// step, so the trip pops three steps before arriving.
func demoLegs() []leg {
	roundabout := maneuver(model.ManeuverRoundaboutEnterAndExitCCWAng)
	roundabout.RoundaboutExitNumber = 2
	roundabout.RoundaboutExitAngle = 270

	return []leg{
		{
			step:      model.Step{Cue: "State Street", Road: "State Street", Maneuver: roundabout, Lanes: lanes(), LanesImage: ImageLanes},
			count:     4,
			distance:  100,
			road:      "3rd Street",
			junction:  ImageJunction,
			showLanes: true,
			next:      "onto State Street",
		},
		{
			step:      model.Step{Cue: "Kirkland Way", Road: "Kirkland Way", Maneuver: maneuver(model.ManeuverTurnNormalLeft), Lanes: lanes(), LanesImage: ImageLanes},
			count:     6,
			distance:  150,
			road:      "State Street",
			junction:  ImageJunction,
			showLanes: true,
			next:      "onto Kirkland Way",
		},
		{
			step:      model.Step{Cue: "6th Street.", Road: "6th Street.", Maneuver: maneuver(model.ManeuverTurnNormalRight), Lanes: lanes(), LanesImage: ImageLanes},
			count:     4,
			distance:  100,
			road:      "Kirkland Way",
			junction:  ImageJunction,
			showLanes: true,
			next:      "onto 6th Street",
		},
		{
			step:     model.Step{Cue: "Google Kirkland.", Road: "Google Kirkland.", Maneuver: maneuver(model.ManeuverDestinationRight)},
			count:    4,
			distance: 100,
			road:     "6th Street",
			next:     "to Google Kirkland on right",
		},
	}
}

// BuildDemoTrip returns the reference trip: one destination, four steps,
// a reroute, interpolated position updates and arrival.
// Every call allocates a fresh sequence.
func BuildDemoTrip(cfg DemoConfig, now time.Time) []model.Instruction {
	if cfg.SpeedMPS <= 0 {
		panic(fmt.Sprintf("script: demo speed must be positive, got %d", cfg.SpeedMPS))
	}

	arrival := model.DateTimeWithZone{Time: now.Add(cfg.ArrivalOffset), ZoneShortName: cfg.ZoneName}
	legs := demoLegs()

	out := []model.Instruction{
		model.NewInstruction(model.KindStartNavigation, 0),
		model.NewInstruction(model.KindAddDestination, 0,
			model.WithDestination(model.Destination{Name: "Work", Address: "747 6th St."})),
		model.NewInstruction(model.KindSetRerouting, cfg.RerouteDelay,
			model.WithDestinationTravelEstimate(model.TravelEstimate{
				RemainingDistance: model.Meters(350),
				Arrival:           arrival,
				RemainingTime:     time.Duration(cfg.DistanceMeters/cfg.SpeedMPS) * time.Second,
			}),
			model.WithNotification(model.Notification{Alert: true, Title: "Rerouting", Icon: IconLauncher})),
	}

	for _, l := range legs {
		out = append(out, model.NewInstruction(model.KindAddStep, 0, model.WithStep(l.step)))
	}

	remaining := cfg.DistanceMeters
	for i, l := range legs {
		out = append(out, GenerateTripUpdateSequence(SequenceParams{
			Count:                    l.count,
			StartDestinationDistance: remaining,
			StartStepDistance:        l.distance,
			Arrival:                  arrival,
			Road:                     l.road,
			JunctionImage:            l.junction,
			ShowLanes:                l.showLanes,
			NextInstruction:          l.next,
			SpeedMPS:                 cfg.SpeedMPS,
			Icon:                     l.step.Maneuver.Icon,
			Now:                      now,
		})...)
		remaining -= l.distance

		// The last step stays until navigation ends
		if i < len(legs)-1 {
			out = append(out, model.NewInstruction(model.KindPopStep, 0))
		}
	}

	return append(out,
		model.NewInstruction(model.KindSetArrived, cfg.ArrivedDelay),
		model.NewInstruction(model.KindPopDestination, 0),
		model.NewInstruction(model.KindEndNavigation, 0),
	)
}
