package audio

import "math"

// volumeToPower maps a linear 0..1 volume to the base-2 exponent of effects.Volume.
// Values at or below 0.01 are silent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
