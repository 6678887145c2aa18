package control

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/gamepad"
	"codeberg.org/mutker/robotctl/internal/logger"
	"codeberg.org/mutker/robotctl/internal/servo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buttonUp   = 7
	buttonDown = 6
	interval   = time.Second / 60
)

type fakePad struct {
	polls   [][]gamepad.Event
	err     error
	panicAt int
	calls   int
	axes    map[int]float64
	held    map[int]bool
	hats    map[int][2]int
}

func (p *fakePad) Name() string     { return "fake pad" }
func (p *fakePad) AxisCount() int   { return 4 }
func (p *fakePad) ButtonCount() int { return 12 }
func (p *fakePad) HatCount() int    { return 1 }
func (p *fakePad) Close() error     { return nil }

func (p *fakePad) Axis(i int) float64 { return p.axes[i] }

func (p *fakePad) Pressed() map[int]bool { return p.held }

func (p *fakePad) Hats() map[int][2]int { return p.hats }

func (p *fakePad) Poll() ([]gamepad.Event, error) {
	p.calls++
	if p.calls == p.panicAt {
		panic("joystick driver exploded")
	}
	if i := p.calls - 1; i < len(p.polls) {
		return p.polls[i], nil
	}
	if p.err != nil {
		return nil, p.err
	}

	return nil, nil
}

type fakeMotor struct {
	cmds  []drive.WheelCommand
	onSet func(n int, cmd drive.WheelCommand) error
}

func (m *fakeMotor) SetWheels(cmd drive.WheelCommand) error {
	m.cmds = append(m.cmds, cmd)
	if m.onSet != nil {
		return m.onSet(len(m.cmds), cmd)
	}

	return nil
}

func (m *fakeMotor) last() drive.WheelCommand {
	return m.cmds[len(m.cmds)-1]
}

type fakeServo struct{}

func (fakeServo) SetAngle(string, int) error { return nil }

type harness struct {
	pad    *fakePad
	motor  *fakeMotor
	router *servo.Router
	sleeps []time.Duration
	loop   *Loop
}

func newHarness(t *testing.T, pad *fakePad) *harness {
	t.Helper()

	h := &harness{pad: pad, motor: &fakeMotor{}}
	h.router = servo.NewRouter(fakeServo{}, logger.Nop(), servo.Channel{
		ID: "1", Neutral: 90, A: 160, B: 120, Min: 0, Max: 180,
	})
	require.NoError(t, h.router.Bind(buttonUp, "1", servo.ExtremeA))
	require.NoError(t, h.router.Bind(buttonDown, "1", servo.ExtremeB))

	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	sleep := func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}

	cfg := Config{
		Interval:         interval,
		DeadZoneMovement: 0.2,
		DeadZoneTurn:     0.2,
		InvertForward:    true,
		Axes:             Axes{Forward: 1, Strafe: 0, Turn: 3},
	}
	h.loop = New(cfg, pad, h.motor, h.router, drive.NewMixer(drive.DefaultMaxPWM, drive.DefaultTurnScale), logger.Nop(), WithClock(clock, sleep))

	return h
}

func (h *harness) assertReleased(t *testing.T) {
	t.Helper()

	assert.Equal(t, drive.Stop, h.motor.last(), "wheels must be stopped on exit")
	pos, angle, _ := h.router.State("1")
	assert.Equal(t, servo.Neutral, pos, "servo must be centered on exit")
	assert.Equal(t, 90, angle)
}

func TestRunQuit(t *testing.T) {
	h := newHarness(t, &fakePad{
		axes: map[int]float64{1: -1},
		polls: [][]gamepad.Event{
			nil,
			{{Type: gamepad.EventButtonDown, ID: buttonUp}},
			{{Type: gamepad.EventQuit}},
		},
	})

	require.NoError(t, h.loop.Run(context.Background()))

	full := drive.WheelCommand{FL: 4095, FR: 4095, BL: 4095, BR: 4095}
	assert.Equal(t, []drive.WheelCommand{full, full, drive.Stop}, h.motor.cmds)
	assert.Equal(t, []time.Duration{interval, interval}, h.sleeps)
	h.assertReleased(t)
}

func TestRunInterruptedMidTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pad := &fakePad{
		axes:  map[int]float64{0: 0.8, 3: 0.5},
		polls: [][]gamepad.Event{{{Type: gamepad.EventButtonDown, ID: buttonUp}}},
	}
	h := newHarness(t, pad)
	h.motor.onSet = func(n int, _ drive.WheelCommand) error {
		if n == 3 {
			cancel()
		}
		return nil
	}

	require.NoError(t, h.loop.Run(ctx), "interruption is a graceful shutdown")

	assert.Len(t, h.motor.cmds, 4)
	assert.NotEqual(t, drive.Stop, h.motor.cmds[2])
	h.assertReleased(t)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newHarness(t, &fakePad{})

	require.NoError(t, h.loop.Run(ctx))
	assert.Equal(t, []drive.WheelCommand{drive.Stop}, h.motor.cmds)
	assert.Zero(t, h.pad.calls)
}

func TestRunPanicStillCleansUp(t *testing.T) {
	h := newHarness(t, &fakePad{
		axes:    map[int]float64{1: -0.5},
		polls:   [][]gamepad.Event{{{Type: gamepad.EventButtonDown, ID: buttonDown}}},
		panicAt: 2,
	})

	err := h.loop.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.KindUnknownFault, errors.KindOf(err))
	assert.Contains(t, err.Error(), "joystick driver exploded")
	h.assertReleased(t)
}

func TestRunMotorErrorsContinue(t *testing.T) {
	h := newHarness(t, &fakePad{
		axes: map[int]float64{1: -1},
		polls: [][]gamepad.Event{
			nil,
			nil,
			{{Type: gamepad.EventQuit}},
		},
	})
	h.motor.onSet = func(_ int, cmd drive.WheelCommand) error {
		if cmd != drive.Stop {
			return stderrors.New("i2c: remote I/O error")
		}
		return nil
	}

	require.NoError(t, h.loop.Run(context.Background()))
	assert.Len(t, h.motor.cmds, 3, "two rejected ticks, no retries, then the stop command")
	h.assertReleased(t)
}

func TestRunGamepadLost(t *testing.T) {
	lost := errors.New().Wrap(errors.ErrDeviceUnavailable, stderrors.New("read /dev/input/js0: no such device"))
	h := newHarness(t, &fakePad{
		polls: [][]gamepad.Event{nil},
		err:   lost,
	})

	err := h.loop.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.KindDeviceUnavailable, errors.KindOf(err))
	h.assertReleased(t)
}

func TestRunOverrunSkipsSleep(t *testing.T) {
	pad := &fakePad{polls: [][]gamepad.Event{nil, {{Type: gamepad.EventQuit}}}}
	h := newHarness(t, pad)

	now := time.Unix(0, 0)
	h.loop.now = func() time.Time {
		now = now.Add(2 * interval)
		return now
	}

	require.NoError(t, h.loop.Run(context.Background()))
	assert.Empty(t, h.sleeps)
}

func TestGuardReleasesOnce(t *testing.T) {
	motor := &fakeMotor{}
	router := servo.NewRouter(fakeServo{}, logger.Nop(), servo.Channel{ID: "1", Neutral: 90, Max: 180})
	g := NewGuard(motor, router, logger.Nop())

	g.Release()
	g.Release()

	assert.Equal(t, []drive.WheelCommand{drive.Stop}, motor.cmds)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestSampleCarriesHeldInputs(t *testing.T) {
	h := newHarness(t, &fakePad{
		axes: map[int]float64{0: 0.3, 1: 0.6, 3: -0.4},
		held: map[int]bool{buttonUp: true},
		hats: map[int][2]int{0: {0, 1}},
	})

	s := h.loop.sample()

	assert.InDelta(t, -0.6, s.Forward, 1e-9, "forward is inverted")
	assert.InDelta(t, 0.3, s.Strafe, 1e-9)
	assert.InDelta(t, -0.4, s.Turn, 1e-9)
	assert.Equal(t, []int{buttonUp}, s.PressedIDs())
	assert.Equal(t, map[int][2]int{0: {0, 1}}, s.Hats)
}
