package chassis

import (
	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/logger"
)

// Simulated stands in for the board when no hardware is attached. Every
// command is logged at debug level and succeeds.
type Simulated struct {
	log logger.Logger
}

func NewSimulated(log logger.Logger) *Simulated {
	return &Simulated{log: log.With("chassis")}
}

func (s *Simulated) SetWheels(cmd drive.WheelCommand) error {
	s.log.Debug().Str("command", cmd.String()).Msg("Set wheels")
	return nil
}

func (s *Simulated) SetAngle(channel string, degrees int) error {
	s.log.Debug().Str("channel", channel).Int("degrees", degrees).Msg("Set servo angle")
	return nil
}

func (s *Simulated) Play() error {
	s.log.Info().Msg("Buzzer on")
	return nil
}

func (s *Simulated) Stop() error {
	s.log.Info().Msg("Buzzer off")
	return nil
}
