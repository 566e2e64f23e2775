package model

import (
	"fmt"
	"strconv"
	"time"
)

// DistanceUnit is the display unit of a Distance.
type DistanceUnit string

const (
	UnitMeters     DistanceUnit = "m"
	UnitKilometers DistanceUnit = "km"
	UnitMiles      DistanceUnit = "mi"
	UnitFeet       DistanceUnit = "ft"
	UnitYards      DistanceUnit = "yd"
)

var metersPerUnit = map[DistanceUnit]float64{
	UnitMeters:     1,
	UnitKilometers: 1000,
	UnitMiles:      1609.344,
	UnitFeet:       0.3048,
	UnitYards:      0.9144,
}

// Distance is a displayable distance value.
type Distance struct {
	Value float64      `json:"value" yaml:"value"`
	Unit  DistanceUnit `json:"unit" yaml:"unit"`
}

// Meters returns a Distance in meters.
func Meters(v float64) Distance {
	return Distance{Value: v, Unit: UnitMeters}
}

// DistanceIn expresses meters in unit. An unknown or empty unit yields meters.
func DistanceIn(meters float64, unit DistanceUnit) Distance {
	f, ok := metersPerUnit[unit]
	if !ok {
		return Meters(meters)
	}
	return Distance{Value: meters / f, Unit: unit}
}

// InMeters converts the distance to meters. Unknown units are treated as meters.
func (d Distance) InMeters() float64 {
	if f, ok := metersPerUnit[d.Unit]; ok {
		return d.Value * f
	}
	return d.Value
}

func (d Distance) String() string {
	unit := d.Unit
	if unit == "" {
		unit = UnitMeters
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64) + string(unit)
}

// Color is a display color hint for travel estimates.
type Color string

const (
	ColorDefault Color = ""
	ColorYellow  Color = "yellow"
	ColorGreen   Color = "green"
	ColorRed     Color = "red"
	ColorBlue    Color = "blue"
)

// DateTimeWithZone is an arrival time together with the zone label shown to the driver.
type DateTimeWithZone struct {
	Time          time.Time `json:"time" yaml:"time"`
	ZoneShortName string    `json:"zone" yaml:"zone"`
}

// TravelEstimate describes how far and how long until a step or destination.
type TravelEstimate struct {
	RemainingDistance      Distance         `json:"remaining_distance" yaml:"remaining_distance"`
	Arrival                DateTimeWithZone `json:"arrival" yaml:"arrival"`
	RemainingTime          time.Duration    `json:"remaining_time" yaml:"remaining_time"`
	RemainingTimeColor     Color            `json:"remaining_time_color,omitempty" yaml:"remaining_time_color,omitempty"`
	RemainingDistanceColor Color            `json:"remaining_distance_color,omitempty" yaml:"remaining_distance_color,omitempty"`
}

// Destination is a named place the trip is heading to.
type Destination struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// ManeuverType enumerates the maneuvers a step can carry.
type ManeuverType string

const (
	ManeuverUnknown                      ManeuverType = "unknown"
	ManeuverDepart                       ManeuverType = "depart"
	ManeuverNameChange                   ManeuverType = "name_change"
	ManeuverStraight                     ManeuverType = "straight"
	ManeuverKeepLeft                     ManeuverType = "keep_left"
	ManeuverKeepRight                    ManeuverType = "keep_right"
	ManeuverTurnSlightLeft               ManeuverType = "turn_slight_left"
	ManeuverTurnSlightRight              ManeuverType = "turn_slight_right"
	ManeuverTurnNormalLeft               ManeuverType = "turn_normal_left"
	ManeuverTurnNormalRight              ManeuverType = "turn_normal_right"
	ManeuverTurnSharpLeft                ManeuverType = "turn_sharp_left"
	ManeuverTurnSharpRight               ManeuverType = "turn_sharp_right"
	ManeuverUTurnLeft                    ManeuverType = "u_turn_left"
	ManeuverUTurnRight                   ManeuverType = "u_turn_right"
	ManeuverOnRampSlightLeft             ManeuverType = "on_ramp_slight_left"
	ManeuverOnRampNormalLeft             ManeuverType = "on_ramp_normal_left"
	ManeuverOnRampSharpLeft              ManeuverType = "on_ramp_sharp_left"
	ManeuverOnRampUTurnLeft              ManeuverType = "on_ramp_u_turn_left"
	ManeuverOnRampSlightRight            ManeuverType = "on_ramp_slight_right"
	ManeuverOnRampNormalRight            ManeuverType = "on_ramp_normal_right"
	ManeuverOnRampSharpRight             ManeuverType = "on_ramp_sharp_right"
	ManeuverOnRampUTurnRight             ManeuverType = "on_ramp_u_turn_right"
	ManeuverOffRampSlightLeft            ManeuverType = "off_ramp_slight_left"
	ManeuverOffRampNormalLeft            ManeuverType = "off_ramp_normal_left"
	ManeuverOffRampSlightRight           ManeuverType = "off_ramp_slight_right"
	ManeuverOffRampNormalRight           ManeuverType = "off_ramp_normal_right"
	ManeuverForkLeft                     ManeuverType = "fork_left"
	ManeuverForkRight                    ManeuverType = "fork_right"
	ManeuverMergeLeft                    ManeuverType = "merge_left"
	ManeuverMergeRight                   ManeuverType = "merge_right"
	ManeuverMergeSideUnspecified         ManeuverType = "merge_side_unspecified"
	ManeuverRoundaboutEnterCW            ManeuverType = "roundabout_enter_cw"
	ManeuverRoundaboutEnterCCW           ManeuverType = "roundabout_enter_ccw"
	ManeuverRoundaboutExitCW             ManeuverType = "roundabout_exit_cw"
	ManeuverRoundaboutExitCCW            ManeuverType = "roundabout_exit_ccw"
	ManeuverRoundaboutEnterAndExitCW     ManeuverType = "roundabout_enter_and_exit_cw"
	ManeuverRoundaboutEnterAndExitCWAng  ManeuverType = "roundabout_enter_and_exit_cw_with_angle"
	ManeuverRoundaboutEnterAndExitCCW    ManeuverType = "roundabout_enter_and_exit_ccw"
	ManeuverRoundaboutEnterAndExitCCWAng ManeuverType = "roundabout_enter_and_exit_ccw_with_angle"
	ManeuverFerryBoat                    ManeuverType = "ferry_boat"
	ManeuverFerryTrain                   ManeuverType = "ferry_train"
	ManeuverDestination                  ManeuverType = "destination"
	ManeuverDestinationStraight          ManeuverType = "destination_straight"
	ManeuverDestinationLeft              ManeuverType = "destination_left"
	ManeuverDestinationRight             ManeuverType = "destination_right"
)

var turnIcons = map[ManeuverType]string{
	ManeuverTurnNormalLeft:               "ic_turn_normal_left",
	ManeuverTurnNormalRight:              "ic_turn_normal_right",
	ManeuverUnknown:                      "ic_turn_name_change",
	ManeuverDepart:                       "ic_turn_name_change",
	ManeuverStraight:                     "ic_turn_name_change",
	ManeuverNameChange:                   "ic_turn_name_change",
	ManeuverDestination:                  "ic_turn_destination",
	ManeuverDestinationStraight:          "ic_turn_destination",
	ManeuverDestinationLeft:              "ic_turn_destination",
	ManeuverDestinationRight:             "ic_turn_destination",
	ManeuverKeepLeft:                     "ic_turn_slight_left",
	ManeuverTurnSlightLeft:               "ic_turn_slight_left",
	ManeuverKeepRight:                    "ic_turn_slight_right",
	ManeuverTurnSlightRight:              "ic_turn_slight_right",
	ManeuverTurnSharpLeft:                "ic_turn_sharp_left",
	ManeuverTurnSharpRight:               "ic_turn_sharp_right",
	ManeuverUTurnLeft:                    "ic_turn_u_turn_left",
	ManeuverUTurnRight:                   "ic_turn_u_turn_right",
	ManeuverOnRampSlightLeft:             "ic_turn_fork_left",
	ManeuverOnRampNormalLeft:             "ic_turn_fork_left",
	ManeuverOnRampSharpLeft:              "ic_turn_fork_left",
	ManeuverOnRampUTurnLeft:              "ic_turn_fork_left",
	ManeuverOffRampSlightLeft:            "ic_turn_fork_left",
	ManeuverOffRampNormalLeft:            "ic_turn_fork_left",
	ManeuverForkLeft:                     "ic_turn_fork_left",
	ManeuverOnRampSlightRight:            "ic_turn_fork_right",
	ManeuverOnRampNormalRight:            "ic_turn_fork_right",
	ManeuverOnRampSharpRight:             "ic_turn_fork_right",
	ManeuverOnRampUTurnRight:             "ic_turn_fork_right",
	ManeuverOffRampSlightRight:           "ic_turn_fork_right",
	ManeuverOffRampNormalRight:           "ic_turn_fork_right",
	ManeuverForkRight:                    "ic_turn_fork_right",
	ManeuverMergeLeft:                    "ic_turn_merge_symmetrical",
	ManeuverMergeRight:                   "ic_turn_merge_symmetrical",
	ManeuverMergeSideUnspecified:         "ic_turn_merge_symmetrical",
	ManeuverRoundaboutEnterCW:            "ic_turn_name_change",
	ManeuverRoundaboutEnterCCW:           "ic_turn_name_change",
	ManeuverRoundaboutExitCW:             "ic_turn_name_change",
	ManeuverRoundaboutExitCCW:            "ic_turn_name_change",
	ManeuverRoundaboutEnterAndExitCW:     "ic_roundabout_cw",
	ManeuverRoundaboutEnterAndExitCWAng:  "ic_roundabout_cw",
	ManeuverRoundaboutEnterAndExitCCW:    "ic_roundabout_ccw",
	ManeuverRoundaboutEnterAndExitCCWAng: "ic_roundabout_ccw",
	ManeuverFerryBoat:                    "ic_turn_name_change",
	ManeuverFerryTrain:                   "ic_turn_name_change",
}

// TurnIcon returns the icon name drawn for a maneuver type.
func TurnIcon(t ManeuverType) (string, error) {
	icon, ok := turnIcons[t]
	if !ok {
		return "", fmt.Errorf("unexpected maneuver type: %q", t)
	}
	return icon, nil
}

// Maneuver is the action the driver takes at the end of a step.
type Maneuver struct {
	Type                 ManeuverType `json:"type" yaml:"type"`
	RoundaboutExitNumber int          `json:"roundabout_exit_number,omitempty" yaml:"roundabout_exit_number,omitempty"`
	RoundaboutExitAngle  int          `json:"roundabout_exit_angle,omitempty" yaml:"roundabout_exit_angle,omitempty"`
	Icon                 string       `json:"icon" yaml:"icon"`
}

// LaneShape is the arrow drawn for one lane direction.
type LaneShape string

const (
	LaneShapeStraight    LaneShape = "straight"
	LaneShapeNormalLeft  LaneShape = "normal_left"
	LaneShapeNormalRight LaneShape = "normal_right"
	LaneShapeSlightLeft  LaneShape = "slight_left"
	LaneShapeSlightRight LaneShape = "slight_right"
	LaneShapeUTurnLeft   LaneShape = "u_turn_left"
	LaneShapeUTurnRight  LaneShape = "u_turn_right"
)

// LaneDirection is one permitted direction out of a lane.
type LaneDirection struct {
	Shape       LaneShape `json:"shape" yaml:"shape"`
	Recommended bool      `json:"recommended" yaml:"recommended"`
}

// Lane lists the directions a lane allows.
type Lane struct {
	Directions []LaneDirection `json:"directions" yaml:"directions"`
}

// Step is one maneuver of a route.
type Step struct {
	Cue        string    `json:"cue" yaml:"cue"`
	Road       string    `json:"road" yaml:"road"`
	Maneuver   *Maneuver `json:"maneuver,omitempty" yaml:"maneuver,omitempty"`
	Lanes      []Lane    `json:"lanes,omitempty" yaml:"lanes,omitempty"`
	LanesImage string    `json:"lanes_image,omitempty" yaml:"lanes_image,omitempty"`
}

func (s Step) clone() Step {
	out := s
	if s.Maneuver != nil {
		m := *s.Maneuver
		out.Maneuver = &m
	}
	if s.Lanes != nil {
		out.Lanes = make([]Lane, len(s.Lanes))
		for i, l := range s.Lanes {
			out.Lanes[i] = Lane{Directions: append([]LaneDirection(nil), l.Directions...)}
		}
	}
	return out
}
