package gamepad

import "fmt"

// EventType identifies a gamepad event.
type EventType int

const (
	EventQuit EventType = iota
	EventButtonDown
	EventButtonUp
	EventHatMotion
)

func (t EventType) String() string {
	switch t {
	case EventQuit:
		return "quit"
	case EventButtonDown:
		return "button_down"
	case EventButtonUp:
		return "button_up"
	case EventHatMotion:
		return "hat_motion"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is a discrete input change. Value is only set for hat motion.
type Event struct {
	Type  EventType
	ID    int
	Value [2]int
}

// Device exposes the state of one gamepad.
type Device interface {
	Name() string
	AxisCount() int
	ButtonCount() int
	HatCount() int
	// Poll samples the device and returns the events since the previous
	// call. An error means the device is gone.
	Poll() ([]Event, error)
	// Axis returns the last polled value of axis i in [-1,1].
	Axis(i int) float64
	// Pressed returns the buttons held at the last poll.
	Pressed() map[int]bool
	// Hats returns the hats that were off center at the last poll.
	Hats() map[int][2]int
	Close() error
}
