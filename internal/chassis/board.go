package chassis

import (
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/drivers/i2c"
	"gobot.io/x/gobot/platforms/raspi"
)

// Config describes how the Raspberry Pi reaches the motor board.
type Config struct {
	I2CBus     int
	I2CAddress int
	PWMFreq    float64
	BuzzerPin  string
}

// Board owns the Raspberry Pi adaptor, the PCA9685 PWM driver and the buzzer.
type Board struct {
	adaptor *raspi.Adaptor
	pca     *i2c.PCA9685Driver
	buzzer  *gpio.BuzzerDriver
	log     logger.Logger
}

// Open connects to the Pi and starts the PWM and buzzer drivers. Any failure
// is reported as device_unavailable.
func Open(cfg Config, log logger.Logger) (*Board, error) {
	errFactory := errors.New()

	adaptor := raspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err).WithData("raspi adaptor")
	}

	pca := i2c.NewPCA9685Driver(adaptor,
		i2c.WithBus(cfg.I2CBus),
		i2c.WithAddress(cfg.I2CAddress),
	)
	if err := pca.Start(); err != nil {
		adaptor.Finalize()
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err).WithData("pca9685")
	}
	if err := pca.SetPWMFreq(float32(cfg.PWMFreq)); err != nil {
		adaptor.Finalize()
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err).WithData("pca9685 frequency")
	}

	buzzer := gpio.NewBuzzerDriver(adaptor, cfg.BuzzerPin)
	if err := buzzer.Start(); err != nil {
		pca.Halt()
		adaptor.Finalize()
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err).WithData("buzzer")
	}

	log.Info().
		Int("i2c_bus", cfg.I2CBus).
		Int("i2c_address", cfg.I2CAddress).
		Float64("pwm_freq", cfg.PWMFreq).
		Str("buzzer_pin", cfg.BuzzerPin).
		Msg("Chassis connected")

	return &Board{adaptor: adaptor, pca: pca, buzzer: buzzer, log: log}, nil
}

func (b *Board) Motor() *Motor {
	return &Motor{pwm: b.pca}
}

func (b *Board) Servo() *Servo {
	return &Servo{pwm: b.pca}
}

func (b *Board) Buzzer() *Buzzer {
	return &Buzzer{pin: b.buzzer}
}

// Close silences the buzzer and releases the I2C and GPIO handles.
func (b *Board) Close() error {
	if err := b.buzzer.Off(); err != nil {
		b.log.Warn().Err(err).Msg("Failed to silence buzzer")
	}
	if err := b.pca.Halt(); err != nil {
		b.log.Warn().Err(err).Msg("Failed to halt PWM driver")
	}
	if err := b.adaptor.Finalize(); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}
