package drive

import "sort"

// GamepadSample is the gamepad state captured once per tick: normalized
// sticks, the buttons held down and the hats pushed off center.
type GamepadSample struct {
	Forward float64
	Strafe  float64
	Turn    float64
	Pressed map[int]bool
	Hats    map[int][2]int
}

// Filtered applies the movement dead zone to forward and strafe and the turn
// dead zone to turn.
func (s GamepadSample) Filtered(deadZoneMovement, deadZoneTurn float64) GamepadSample {
	return GamepadSample{
		Forward: DeadZone(s.Forward, deadZoneMovement),
		Strafe:  DeadZone(s.Strafe, deadZoneMovement),
		Turn:    DeadZone(s.Turn, deadZoneTurn),
		Pressed: s.Pressed,
		Hats:    s.Hats,
	}
}

// PressedIDs returns the held buttons in ascending order.
func (s GamepadSample) PressedIDs() []int {
	ids := make([]int, 0, len(s.Pressed))
	for id, down := range s.Pressed {
		if down {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	return ids
}
