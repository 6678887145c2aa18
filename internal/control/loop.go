package control

import (
	"context"
	"time"

	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/gamepad"
	"codeberg.org/mutker/robotctl/internal/logger"
	"codeberg.org/mutker/robotctl/internal/metrics"
)

// Loop reads the gamepad at a fixed rate and drives the motors and servos.
type Loop struct {
	cfg    Config
	pad    gamepad.Device
	motor  Motor
	router Router
	mixer  drive.Mixer
	log    logger.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

type Option func(*Loop)

// WithClock replaces the time source and the sleep used to pace ticks
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Loop) {
		l.now = now
		l.sleep = sleep
	}
}

func New(cfg Config, pad gamepad.Device, motor Motor, router Router, mixer drive.Mixer, log logger.Logger, opts ...Option) *Loop {
	l := &Loop{
		cfg:    cfg,
		pad:    pad,
		motor:  motor,
		router: router,
		mixer:  mixer,
		log:    log.With("drive"),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run drives the robot until a quit event, a device failure or ctx
// cancellation. Quit and cancellation return nil. The wheels are stopped and
// the servos centered before Run returns, including after a panic.
func (l *Loop) Run(ctx context.Context) (err error) {
	guard := NewGuard(l.motor, l.router, l.log)

	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic(r)
		}
		guard.Release()
		err = l.finish(err)
	}()

	if err := l.router.Reset(); err != nil {
		metrics.ActuatorError("servo")
		l.log.ErrorWithContext(asError(err), "drive", "reset_servos").Msg("Failed to center servos at startup")
	}

	l.log.Info().
		Str("gamepad", l.pad.Name()).
		Int("axes", l.pad.AxisCount()).
		Int("buttons", l.pad.ButtonCount()).
		Int("hats", l.pad.HatCount()).
		Dur("interval", l.cfg.Interval).
		Msg("Drive loop started")

	for {
		if ctx.Err() != nil {
			return errors.New().Wrap(errors.ErrInterrupted, ctx.Err())
		}

		start := l.now()
		quit, err := l.tick()
		if err != nil {
			return err
		}
		if quit {
			l.log.Info().Msg("Quit requested")
			return nil
		}

		remaining := l.cfg.Interval - l.now().Sub(start)
		metrics.DriveTick(remaining < 0)
		if remaining < 0 {
			l.log.Debug().Dur("overrun", -remaining).Msg("Drive tick exceeded its budget")
			continue
		}
		if err := l.sleep(ctx, remaining); err != nil {
			return errors.New().Wrap(errors.ErrInterrupted, err)
		}
	}
}

// tick drains pending input events, then mixes the current axes into a wheel
// command.
func (l *Loop) tick() (bool, error) {
	events, err := l.pad.Poll()
	if err != nil {
		return false, err
	}

	for _, ev := range events {
		switch ev.Type {
		case gamepad.EventQuit:
			return true, nil
		case gamepad.EventButtonDown:
			l.servoResult(l.router.ButtonDown(ev.ID), ev)
		case gamepad.EventButtonUp:
			l.servoResult(l.router.ButtonUp(ev.ID), ev)
		case gamepad.EventHatMotion:
			l.router.Hat(ev.ID, ev.Value)
		}
	}

	sample := l.sample()
	cmd := l.mixer.MixSample(sample, l.cfg.DeadZoneMovement, l.cfg.DeadZoneTurn)
	l.log.Debug().
		Float64("forward", sample.Forward).
		Float64("strafe", sample.Strafe).
		Float64("turn", sample.Turn).
		Ints("pressed", sample.PressedIDs()).
		Str("command", cmd.String()).
		Msg("Drive tick")
	if err := l.motor.SetWheels(cmd); err != nil {
		metrics.ActuatorError("motor")
		l.log.ErrorWithContext(asError(err), "drive", "set_wheels").
			Str("command", cmd.String()).
			Msg("Motor rejected wheel command")
	}

	return false, nil
}

func (l *Loop) sample() drive.GamepadSample {
	forward := l.pad.Axis(l.cfg.Axes.Forward)
	if l.cfg.InvertForward {
		forward = -forward
	}

	return drive.GamepadSample{
		Forward: forward,
		Strafe:  l.pad.Axis(l.cfg.Axes.Strafe),
		Turn:    l.pad.Axis(l.cfg.Axes.Turn),
		Pressed: l.pad.Pressed(),
		Hats:    l.pad.Hats(),
	}
}

func (l *Loop) servoResult(err error, ev gamepad.Event) {
	if err == nil {
		return
	}

	metrics.ActuatorError("servo")
	l.log.ErrorWithContext(asError(err), "drive", ev.Type.String()).
		Int("button", ev.ID).
		Msg("Servo rejected command")
}

// finish logs the exit cause by taxonomy kind and maps graceful shutdown to nil
func (l *Loop) finish(err error) error {
	if err == nil {
		l.log.Info().Msg("Drive loop stopped")
		return nil
	}

	switch kind := errors.KindOf(err); kind {
	case errors.KindInterrupted:
		l.log.Info().Msg("Drive loop interrupted")
		return nil
	default:
		var coded errors.Error
		if !errors.As(err, &coded) {
			coded = errors.New().Wrap(errors.ErrUnknownFault, err)
		}
		event := l.log.ErrorWithContext(coded, "drive", "run").Stringer("kind", kind)
		if p, ok := coded.GetData().(errors.PanicData); ok {
			event = event.Str("stack", p.Stack)
		}
		event.Msg("Drive loop failed")
		return err
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
