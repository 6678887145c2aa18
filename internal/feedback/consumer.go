package feedback

import (
	"context"

	"codeberg.org/mutker/robotctl/internal/logger"
)

// Player makes the feedback sound.
type Player interface {
	Play() error
	Stop() error
}

// Consume plays queued commands until ctx is done, then silences the player.
func Consume(ctx context.Context, queue *Queue, player Player, log logger.Logger) {
	log = log.With("audio")

	defer func() {
		if err := player.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to silence player")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-queue.C():
			var err error
			switch cmd {
			case Start:
				err = player.Play()
			case Stop:
				err = player.Stop()
			}
			if err != nil {
				log.Error().Err(err).Stringer("command", cmd).Msg("Audio command failed")
			}
		}
	}
}
