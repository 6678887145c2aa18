package control

import (
	"time"

	"codeberg.org/mutker/robotctl/internal/drive"
)

// Motor applies a wheel command to the drive train
type Motor interface {
	SetWheels(cmd drive.WheelCommand) error
}

// Router turns discrete button and hat events into servo moves
type Router interface {
	ButtonDown(button int) error
	ButtonUp(button int) error
	Hat(hat int, value [2]int)
	Reset() error
}

// Axes selects which gamepad axes drive the mixer
type Axes struct {
	Forward int
	Strafe  int
	Turn    int
}

// Config holds the tunables of the drive loop
type Config struct {
	Interval         time.Duration
	DeadZoneMovement float64
	DeadZoneTurn     float64
	InvertForward    bool
	Axes             Axes
}
