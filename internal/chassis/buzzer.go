package chassis

import "codeberg.org/mutker/robotctl/internal/errors"

type onOff interface {
	On() error
	Off() error
}

// Buzzer plays detection feedback on the car's GPIO buzzer.
type Buzzer struct {
	pin onOff
}

func (b *Buzzer) Play() error {
	if err := b.pin.On(); err != nil {
		return errors.New().Wrap(errors.ErrActuatorWrite, err)
	}

	return nil
}

func (b *Buzzer) Stop() error {
	if err := b.pin.Off(); err != nil {
		return errors.New().Wrap(errors.ErrActuatorWrite, err)
	}

	return nil
}
