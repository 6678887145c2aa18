package drive

import "math"

// DeadZone returns 0 when |value| is below threshold and value unchanged
// otherwise. A zero threshold disables filtering.
func DeadZone(value, threshold float64) float64 {
	if math.Abs(value) < threshold {
		return 0
	}

	return value
}
