package gamepad

import (
	"fmt"
	"strings"
	"sync"

	"codeberg.org/mutker/robotctl/internal/errors"
	"github.com/0xcafed00d/joystick"
)

// Options configure how raw joydev state is interpreted.
type Options struct {
	// Hats is the number of hats reported as trailing axis pairs.
	Hats int
	// QuitButton emits EventQuit instead of a button-down. Negative disables it.
	QuitButton int
}

type joystickDevice struct {
	mu    sync.Mutex
	js    joystick.Joystick
	state *tracker
}

var openJoystick = joystick.Open

// Open opens the Linux joystick device /dev/input/js<index>.
func Open(index int, opts Options) (dev Device, err error) {
	unavailable := func(cause error) error {
		return errors.New().Wrap(errors.ErrDeviceUnavailable, cause).WithData(map[string]any{
			"device": "gamepad",
			"index":  index,
		})
	}

	// the driver panics when an ioctl on an existing node fails
	defer func() {
		if r := recover(); r != nil {
			dev, err = nil, unavailable(fmt.Errorf("joystick open: %v", r))
		}
	}()

	js, openErr := openJoystick(index)
	if openErr != nil {
		return nil, unavailable(openErr)
	}

	return &joystickDevice{js: js, state: newTracker(opts.Hats, opts.QuitButton)}, nil
}

func (d *joystickDevice) Name() string {
	return strings.TrimRight(d.js.Name(), "\x00")
}

func (d *joystickDevice) AxisCount() int {
	return d.state.axisCount(d.js.AxisCount())
}

func (d *joystickDevice) ButtonCount() int {
	return d.js.ButtonCount()
}

func (d *joystickDevice) HatCount() int {
	if d.js.AxisCount() < 2*d.state.hats {
		return 0
	}

	return d.state.hats
}

func (d *joystickDevice) Poll() ([]Event, error) {
	st, err := d.js.Read()
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrDeviceUnavailable, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.update(st.AxisData, st.Buttons, d.js.ButtonCount()), nil
}

func (d *joystickDevice) Axis(i int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.axis(i)
}

func (d *joystickDevice) Pressed() map[int]bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.pressed()
}

func (d *joystickDevice) Hats() map[int][2]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.offCenter()
}

func (d *joystickDevice) Close() error {
	d.js.Close()
	return nil
}
