package feedback

import (
	"context"
	"time"

	"codeberg.org/mutker/robotctl/internal/logger"
)

// Dispatcher turns detections into a Start now and a Stop after a delay.
//
// Every detection schedules its own Stop and earlier Stops are never
// canceled, so a Stop scheduled by an older detection can end the sound
// started by a newer one before its own delay has passed.
type Dispatcher struct {
	queue     *Queue
	scheduler *Scheduler
	delay     time.Duration
	log       logger.Logger
}

func NewDispatcher(queue *Queue, scheduler *Scheduler, delay time.Duration, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		scheduler: scheduler,
		delay:     delay,
		log:       log.With("feedback"),
	}
}

// OnDetection pushes Start and schedules Stop. A result without markers is
// ignored.
func (d *Dispatcher) OnDetection(ctx context.Context, markers int) error {
	if markers <= 0 {
		return nil
	}

	if err := d.queue.Push(ctx, Start); err != nil {
		return err
	}

	d.scheduler.Schedule(d.delay, func(ctx context.Context) {
		if err := d.queue.Push(ctx, Stop); err != nil {
			d.log.Warn().Err(err).Msg("Dropped deferred stop")
		}
	})
	d.log.Debug().Int("markers", markers).Dur("delay", d.delay).Msg("Feedback started")

	return nil
}
