package chassis

import (
	"strconv"

	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/errors"
)

const (
	pwmFullScale = 4095
	servoPeriod  = 20000 // us at 50 Hz
	servoBase    = 8     // first PCA9685 channel wired to a servo header
	servoTrim    = 10    // degrees
)

// pwmWriter is the part of the PCA9685 driver the chassis uses.
type pwmWriter interface {
	SetPWM(channel int, on uint16, off uint16) error
}

// wheelChannels is the pair of PCA9685 channels behind one motor. Forward
// motion puts the duty on fwd, reverse puts it on rev.
type wheelChannels struct {
	rev int
	fwd int
}

var (
	frontLeft  = wheelChannels{rev: 0, fwd: 1}
	backLeft   = wheelChannels{rev: 3, fwd: 2}
	frontRight = wheelChannels{rev: 6, fwd: 7}
	backRight  = wheelChannels{rev: 4, fwd: 5}
)

// dutyTicks returns the off-ticks for (rev, fwd). Zero duty shorts both
// inputs high, which brakes the motor.
func dutyTicks(duty int) (uint16, uint16) {
	if duty > pwmFullScale {
		duty = pwmFullScale
	}
	if duty < -pwmFullScale {
		duty = -pwmFullScale
	}

	switch {
	case duty > 0:
		return 0, uint16(duty)
	case duty < 0:
		return uint16(-duty), 0
	default:
		return pwmFullScale, pwmFullScale
	}
}

// Motor drives the four wheels through the PCA9685.
type Motor struct {
	pwm pwmWriter
}

func (m *Motor) SetWheels(cmd drive.WheelCommand) error {
	wheels := []struct {
		ch   wheelChannels
		duty int
	}{
		{frontLeft, cmd.FL},
		{backLeft, cmd.BL},
		{frontRight, cmd.FR},
		{backRight, cmd.BR},
	}

	for _, w := range wheels {
		rev, fwd := dutyTicks(w.duty)
		if err := m.pwm.SetPWM(w.ch.rev, 0, rev); err != nil {
			return errors.New().Wrap(errors.ErrActuatorWrite, err).WithData(cmd.String())
		}
		if err := m.pwm.SetPWM(w.ch.fwd, 0, fwd); err != nil {
			return errors.New().Wrap(errors.ErrActuatorWrite, err).WithData(cmd.String())
		}
	}

	return nil
}

// Servo positions the hobby servos on PCA9685 channels 8 to 15.
type Servo struct {
	pwm pwmWriter
}

func (s *Servo) SetAngle(channel string, degrees int) error {
	pca, err := servoChannel(channel)
	if err != nil {
		return err
	}
	if degrees < 0 || degrees > 180 {
		return errors.New().WithData(errors.ErrInvalidArgument, degrees)
	}

	if err := s.pwm.SetPWM(pca, 0, angleToTicks(channel, degrees)); err != nil {
		return errors.New().Wrap(errors.ErrActuatorWrite, err)
	}

	return nil
}

func servoChannel(channel string) (int, error) {
	n, err := strconv.Atoi(channel)
	if err != nil || n < 0 || n > 7 {
		return 0, errors.New().WithData(errors.ErrInvalidArgument, "servo channel "+channel)
	}

	return servoBase + n, nil
}

// angleToTicks converts an angle to PCA9685 off-ticks at 50 Hz. Servo "0" is
// mounted mirrored, so its pulse runs from 2500us down.
func angleToTicks(channel string, degrees int) uint16 {
	step := int(float64(degrees+servoTrim) / 0.09)

	pulse := 500 + step
	if channel == "0" {
		pulse = 2500 - step
	}

	return uint16(pulse * 4096 / servoPeriod)
}
