package chassis

import (
	"bytes"
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePWM struct {
	off  map[int]uint16
	fail error
}

func newFakePWM() *fakePWM {
	return &fakePWM{off: make(map[int]uint16)}
}

func (f *fakePWM) SetPWM(channel int, on uint16, off uint16) error {
	if f.fail != nil {
		return f.fail
	}
	if on != 0 {
		panic("chassis always starts the pulse at tick 0")
	}
	f.off[channel] = off
	return nil
}

func TestDutyTicks(t *testing.T) {
	tests := []struct {
		duty     int
		rev, fwd uint16
	}{
		{2000, 0, 2000},
		{-1500, 1500, 0},
		{0, 4095, 4095},
		{9000, 0, 4095},
		{-9000, 4095, 0},
	}

	for _, tt := range tests {
		rev, fwd := dutyTicks(tt.duty)
		assert.Equal(t, tt.rev, rev, "duty %d", tt.duty)
		assert.Equal(t, tt.fwd, fwd, "duty %d", tt.duty)
	}
}

func TestSetWheelsChannelMap(t *testing.T) {
	pwm := newFakePWM()
	m := &Motor{pwm: pwm}

	require.NoError(t, m.SetWheels(drive.WheelCommand{FL: 100, FR: -200, BL: 300, BR: 0}))

	assert.Equal(t, map[int]uint16{
		0: 0, 1: 100,     // front left forward
		3: 0, 2: 300,     // back left forward
		6: 200, 7: 0,     // front right reverse
		4: 4095, 5: 4095, // back right brake
	}, pwm.off)
}

func TestSetWheelsError(t *testing.T) {
	pwm := newFakePWM()
	pwm.fail = stderrors.New("write /dev/i2c-1: remote I/O error")

	err := (&Motor{pwm: pwm}).SetWheels(drive.Stop)
	require.Error(t, err)
	assert.Equal(t, errors.KindActuatorWrite, errors.KindOf(err))
}

func TestAngleToTicks(t *testing.T) {
	// 500us + (90+10)/0.09us = 1611us -> 1611*4096/20000
	assert.Equal(t, uint16(329), angleToTicks("1", 90))
	// mirrored: 2500us - 1111us = 1389us
	assert.Equal(t, uint16(284), angleToTicks("0", 90))
	assert.Equal(t, uint16(102), angleToTicks("1", -10), "pulse floor is 500us")
}

func TestSetAngle(t *testing.T) {
	pwm := newFakePWM()
	s := &Servo{pwm: pwm}

	require.NoError(t, s.SetAngle("1", 90))
	assert.Equal(t, uint16(329), pwm.off[9])

	err := s.SetAngle("8", 90)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	err = s.SetAngle("x", 90)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	err = s.SetAngle("1", 181)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	pwm.fail = stderrors.New("bus busy")
	err = s.SetAngle("1", 90)
	assert.Equal(t, errors.KindActuatorWrite, errors.KindOf(err))
}

type fakePin struct {
	on   bool
	fail error
}

func (p *fakePin) On() error {
	p.on = true
	return p.fail
}

func (p *fakePin) Off() error {
	p.on = false
	return p.fail
}

func TestBuzzer(t *testing.T) {
	pin := &fakePin{}
	b := &Buzzer{pin: pin}

	require.NoError(t, b.Play())
	assert.True(t, pin.on)
	require.NoError(t, b.Stop())
	assert.False(t, pin.on)

	pin.fail = stderrors.New("gpio busy")
	assert.Equal(t, errors.KindActuatorWrite, errors.KindOf(b.Play()))
}

func TestSimulatedLogs(t *testing.T) {
	var buf bytes.Buffer
	s := NewSimulated(logger.New(&buf))

	require.NoError(t, s.SetWheels(drive.WheelCommand{FL: 1}))
	require.NoError(t, s.SetAngle("1", 90))
	require.NoError(t, s.Play())
	require.NoError(t, s.Stop())

	assert.Contains(t, buf.String(), `"component":"chassis"`)
	assert.Contains(t, buf.String(), "Set servo angle")
	assert.Contains(t, buf.String(), "Buzzer off")
}
