package script

import (
	"errors"
	"fmt"

	"carnav/pkg/model"
)

// ErrUnbalanced is returned when a script pops more destinations or steps than it added.
var ErrUnbalanced = errors.New("unbalanced script")

// Validate checks that a script can be replayed without popping an empty list
// and that every position update has a current step and destination to refer to.
func Validate(instructions []model.Instruction) error {
	var dests, steps int
	for i := range instructions {
		ins := &instructions[i]
		if err := ins.Validate(); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}

		switch ins.Kind {
		case model.KindStartNavigation, model.KindEndNavigation:
			dests, steps = 0, 0
		case model.KindAddDestination:
			dests++
		case model.KindPopDestination:
			if dests == 0 {
				return fmt.Errorf("instruction %d: %w: pop_destination without destination", i, ErrUnbalanced)
			}
			dests--
		case model.KindAddStep:
			steps++
		case model.KindPopStep:
			if steps == 0 {
				return fmt.Errorf("instruction %d: %w: pop_step without step", i, ErrUnbalanced)
			}
			steps--
		case model.KindSetTripPosition:
			if dests == 0 || steps == 0 {
				return fmt.Errorf("%w: instruction %d: set_trip_position needs a current destination and step", model.ErrInvalidInstruction, i)
			}
		case model.KindSetRerouting:
			if dests == 0 {
				return fmt.Errorf("%w: instruction %d: set_rerouting needs a current destination", model.ErrInvalidInstruction, i)
			}
			// Rerouting discards the pending steps
			steps = 0
		}
	}
	return nil
}
