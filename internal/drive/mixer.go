package drive

import "fmt"

const (
	DefaultMaxPWM    = 4095
	DefaultTurnScale = 0.5
)

// WheelCommand holds signed duty cycles for the four wheels.
type WheelCommand struct {
	FL, FR, BL, BR int
}

// Stop is the all-zero command issued on every exit path of the drive loop.
var Stop = WheelCommand{}

// Within reports whether every wheel duty is inside [-maxPWM, maxPWM].
func (c WheelCommand) Within(maxPWM int) bool {
	for _, d := range [...]int{c.FL, c.FR, c.BL, c.BR} {
		if d > maxPWM || d < -maxPWM {
			return false
		}
	}

	return true
}

func (c WheelCommand) String() string {
	return fmt.Sprintf("FL=%d FR=%d BL=%d BR=%d", c.FL, c.FR, c.BL, c.BR)
}

// Mixer converts forward, strafe and turn intents into skid-steer wheel
// duties. Wheels on the same side always receive the same duty.
type Mixer struct {
	MaxPWM    int
	TurnScale float64
}

func NewMixer(maxPWM int, turnScale float64) Mixer {
	return Mixer{MaxPWM: maxPWM, TurnScale: turnScale}
}

// Mix computes the wheel command for normalized y (forward), x (strafe) and
// r (turn), each in [-1,1]. Intermediate duties truncate toward zero.
func (m Mixer) Mix(y, x, r float64) WheelCommand {
	limit := float64(m.MaxPWM)

	dutyY := int(y * limit)
	dutyX := int(x * limit)
	dutyR := int(r * limit * m.TurnScale)

	left := m.clamp(dutyY + dutyX + dutyR)
	right := m.clamp(dutyY - dutyX - dutyR)

	return WheelCommand{
		FL: left,
		FR: right,
		BL: left,
		BR: right,
	}
}

// MixSample filters a gamepad sample and mixes it.
func (m Mixer) MixSample(s GamepadSample, deadZoneMovement, deadZoneTurn float64) WheelCommand {
	f := s.Filtered(deadZoneMovement, deadZoneTurn)
	return m.Mix(f.Forward, f.Strafe, f.Turn)
}

func (m Mixer) clamp(v int) int {
	return clamp(v, -m.MaxPWM, m.MaxPWM)
}

func clamp(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}

	return value
}
