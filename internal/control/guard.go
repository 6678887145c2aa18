package control

import (
	"sync"

	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
)

// Guard stops the wheels and centers the servos exactly once, however the
// drive loop exits.
type Guard struct {
	once   sync.Once
	motor  Motor
	router Router
	log    logger.Logger
}

func NewGuard(motor Motor, router Router, log logger.Logger) *Guard {
	return &Guard{motor: motor, router: router, log: log}
}

// Release issues the all-zero wheel command and resets every servo. Both
// steps are attempted even if the first fails.
func (g *Guard) Release() {
	g.once.Do(func() {
		if err := g.motor.SetWheels(drive.Stop); err != nil {
			g.log.ErrorWithContext(asError(err), "drive", "stop_wheels").Msg("Failed to stop wheels")
		}
		if err := g.router.Reset(); err != nil {
			g.log.ErrorWithContext(asError(err), "drive", "reset_servos").Msg("Failed to center servos")
		}
		g.log.Debug().Msg("Actuators released")
	})
}

func asError(err error) errors.Error {
	var e errors.Error
	if errors.As(err, &e) {
		return e
	}

	return errors.New().Wrap(errors.ErrActuatorWrite, err)
}
