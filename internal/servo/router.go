package servo

import (
	"sort"
	"sync"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
)

// Servo is the actuator that moves a named channel to an angle in degrees.
type Servo interface {
	SetAngle(channel string, degrees int) error
}

// Position is the commanded state of a channel.
type Position int

const (
	Neutral Position = iota
	ExtremeA
	ExtremeB
)

func (p Position) String() string {
	switch p {
	case ExtremeA:
		return "extreme_a"
	case ExtremeB:
		return "extreme_b"
	default:
		return "neutral"
	}
}

// Channel describes the preset angles of one servo.
type Channel struct {
	ID      string
	Neutral int
	A       int
	B       int
	Min     int
	Max     int
}

func (c Channel) angle(p Position) int {
	var deg int
	switch p {
	case ExtremeA:
		deg = c.A
	case ExtremeB:
		deg = c.B
	default:
		deg = c.Neutral
	}

	if deg < c.Min {
		return c.Min
	}
	if deg > c.Max {
		return c.Max
	}

	return deg
}

type binding struct {
	channel  string
	position Position
}

type channelState struct {
	Channel
	position Position
	deg      int
}

// Router maps button events onto servo positions. A mapped button-down moves
// its channel to the bound extreme, the matching button-up returns it to
// neutral.
type Router struct {
	mu       sync.Mutex
	servo    Servo
	log      logger.Logger
	channels map[string]*channelState
	bindings map[int]binding
}

func NewRouter(servo Servo, log logger.Logger, channels ...Channel) *Router {
	r := &Router{
		servo:    servo,
		log:      log.With("servo"),
		channels: make(map[string]*channelState, len(channels)),
		bindings: make(map[int]binding),
	}
	for _, ch := range channels {
		r.channels[ch.ID] = &channelState{Channel: ch, deg: ch.angle(Neutral)}
	}

	return r
}

// Bind maps a button onto a channel extreme. Binding the same button again
// replaces the previous mapping.
func (r *Router) Bind(button int, channel string, pos Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channel]; !ok {
		return errors.New().WithData(errors.ErrInvalidArgument, "unknown servo channel "+channel)
	}
	if pos == Neutral {
		return errors.New().WithData(errors.ErrInvalidArgument, "buttons bind to an extreme, not neutral")
	}
	r.bindings[button] = binding{channel: channel, position: pos}

	return nil
}

// Reset commands every channel to neutral. All channels are attempted; the
// first write error is returned.
func (r *Router) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var first error
	for _, id := range ids {
		if err := r.move(r.channels[id], Neutral); err != nil && first == nil {
			first = err
		}
	}

	return first
}

func (r *Router) ButtonDown(button int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[button]
	if !ok {
		r.log.Debug().Int("button", button).Msg("Unmapped button pressed")
		return nil
	}

	return r.move(r.channels[b.channel], b.position)
}

func (r *Router) ButtonUp(button int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[button]
	if !ok {
		r.log.Debug().Int("button", button).Msg("Unmapped button released")
		return nil
	}

	ch := r.channels[b.channel]
	if ch.position != b.position {
		// another button owns the channel now
		return nil
	}

	return r.move(ch, Neutral)
}

// Hat logs hat motion. No hat is mapped to a servo.
func (r *Router) Hat(hat int, value [2]int) {
	r.log.Debug().Int("hat", hat).Ints("value", value[:]).Msg("Unmapped hat motion")
}

// State returns the last successfully commanded position and angle.
func (r *Router) State(channel string) (Position, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channel]
	if !ok {
		return Neutral, 0, false
	}

	return ch.position, ch.deg, true
}

func (r *Router) move(ch *channelState, pos Position) error {
	deg := ch.angle(pos)
	if err := r.servo.SetAngle(ch.ID, deg); err != nil {
		return errors.New().Wrap(errors.ErrActuatorWrite, err).WithData(map[string]any{
			"channel": ch.ID,
			"angle":   deg,
		})
	}

	ch.position = pos
	ch.deg = deg
	r.log.Debug().Str("channel", ch.ID).Stringer("position", pos).Int("angle", deg).Msg("Servo moved")

	return nil
}
