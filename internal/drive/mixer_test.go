package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMix(t *testing.T) {
	m := NewMixer(DefaultMaxPWM, DefaultTurnScale)

	tests := []struct {
		name    string
		y, x, r float64
		want    WheelCommand
	}{
		{"idle", 0, 0, 0, Stop},
		{"full forward", 1, 0, 0, WheelCommand{4095, 4095, 4095, 4095}},
		{"full reverse", -1, 0, 0, WheelCommand{-4095, -4095, -4095, -4095}},
		{"rotate in place", 0, 0, 1, WheelCommand{FL: 2047, FR: -2047, BL: 2047, BR: -2047}},
		{"rotate other way", 0, 0, -1, WheelCommand{FL: -2047, FR: 2047, BL: -2047, BR: 2047}},
		{"strafe right", 0, 1, 0, WheelCommand{FL: 4095, FR: -4095, BL: 4095, BR: -4095}},
		{"forward plus turn saturates left", 1, 0, 1, WheelCommand{FL: 4095, FR: 2048, BL: 4095, BR: 2048}},
		{"half forward", 0.5, 0, 0, WheelCommand{2047, 2047, 2047, 2047}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Mix(tt.y, tt.x, tt.r))
		})
	}
}

func TestMixSaturation(t *testing.T) {
	steps := []float64{-1, -0.75, -0.5, -0.2, 0, 0.2, 0.5, 0.75, 1}

	for _, maxPWM := range []int{1, 255, 4095} {
		for _, scale := range []float64{0, 0.5, 1, 2} {
			m := NewMixer(maxPWM, scale)
			for _, y := range steps {
				for _, x := range steps {
					for _, r := range steps {
						cmd := m.Mix(y, x, r)
						assert.True(t, cmd.Within(maxPWM), "max=%d scale=%v y=%v x=%v r=%v -> %v", maxPWM, scale, y, x, r, cmd)
						assert.Equal(t, cmd.FL, cmd.BL)
						assert.Equal(t, cmd.FR, cmd.BR)
						assert.Equal(t, cmd, m.Mix(y, x, r))
					}
				}
			}
		}
	}
}

func TestMixSample(t *testing.T) {
	m := NewMixer(DefaultMaxPWM, DefaultTurnScale)

	cmd := m.MixSample(GamepadSample{Forward: 0.1, Strafe: 0.1, Turn: 0.1}, 0.2, 0.2)
	assert.Equal(t, Stop, cmd, "noise inside the dead zone must not move the wheels")

	cmd = m.MixSample(GamepadSample{Forward: 1, Strafe: 0.1}, 0.2, 0.2)
	assert.Equal(t, WheelCommand{4095, 4095, 4095, 4095}, cmd)
}

func TestWithin(t *testing.T) {
	assert.True(t, WheelCommand{100, -100, 0, 100}.Within(100))
	assert.False(t, WheelCommand{101, 0, 0, 0}.Within(100))
	assert.False(t, WheelCommand{0, 0, 0, -101}.Within(100))
}
